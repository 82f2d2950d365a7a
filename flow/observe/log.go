package observe

import (
	"log/slog"
	"time"

	"github.com/lguimbarda/reportflow/flow/link"
)

// Logging returns hooks that log link activity. Dispatches and deliveries
// are logged at debug level, superseded results at info level and failed
// deliveries at warn level.
func Logging(logger *slog.Logger) link.Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return link.Hooks{
		OnDispatch: func(name string, gen uint64) {
			logger.Debug("Stage dispatched", "link", name, "generation", gen)
		},
		OnDeliver: func(name string, gen uint64, failed bool, elapsed time.Duration) {
			if failed {
				logger.Warn("Stage failed", "link", name, "generation", gen, "duration_ms", elapsed.Milliseconds())
				return
			}
			logger.Debug("Stage delivered", "link", name, "generation", gen, "duration_ms", elapsed.Milliseconds())
		},
		OnSupersede: func(name string, gen uint64, elapsed time.Duration) {
			logger.Info("Stage result superseded", "link", name, "generation", gen, "duration_ms", elapsed.Milliseconds())
		},
	}
}
