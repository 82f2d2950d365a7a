package link

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/lguimbarda/reportflow/flow/core"
)

const maxStackFrames = 32

// pkgPrefix is the prefix of every function name in this package.
var pkgPrefix = func() string {
	pc, _, _, _ := runtime.Caller(0)
	name := runtime.FuncForPC(pc).Name()
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	return name[:slash+1+dot+1]
}()

// stagePanic records r, recovered from a stage, with the stack of the
// panicking goroutine. Frames of the runtime and of this package are
// left out, so the trace starts at the stage that panicked.
func stagePanic(r any) core.ErrPanic {
	var pcs [maxStackFrames]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") && !strings.HasPrefix(f.Function, pkgPrefix) {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return core.ErrPanic{Value: r, Stack: strings.TrimSuffix(sb.String(), "\n")}
}
