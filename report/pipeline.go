package report

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/flow/link"
	"github.com/lguimbarda/reportflow/flow/state"
)

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	background core.Executor
	foreground core.Executor
	hooks      link.Hooks
	logger     *slog.Logger
	workers    int
	cancel     bool
	complete   []Completion
}

// Completion is called once per submission that reaches the project
// stage, with that submission's terminal Result. It runs on the background
// executor and must not block.
type Completion func(sub Submission, r ProjectResult)

// WithExecutors sets the executor stage work runs on and the executor
// slot updates are delivered on. The foreground executor should run one
// task at a time; the background executor must not run tasks inline if
// observers call Submit from their callbacks.
func WithExecutors(background, foreground core.Executor) Option {
	return func(o *options) {
		o.background = background
		o.foreground = foreground
	}
}

// WithWorkers sets how many stage tasks the Pipeline's own pool runs at
// once. It has no effect together with WithExecutors.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithHooks attaches hooks to all three links.
func WithHooks(h link.Hooks) Option {
	return func(o *options) { o.hooks = link.Chain(o.hooks, h) }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCompletion registers fn to receive every terminal Result together
// with the Submission it belongs to.
func WithCompletion(fn Completion) Option {
	return func(o *options) { o.complete = append(o.complete, fn) }
}

// WithCancelSuperseded cancels the content stage's context when a newer
// input supersedes it.
func WithCancelSuperseded() Option {
	return func(o *options) { o.cancel = true }
}

// Pipeline threads submitted URLs through the content, report and project
// stages and publishes each stage's latest Result.
//
// The content link is latest-wins: only the most recently submitted URL's
// content is ever published. The report and project links run every
// Result they receive. A stage that never returns stalls its submission;
// the pipeline has no timeout of its own.
type Pipeline struct {
	logger *slog.Logger

	content *state.Slot[ContentResult]
	report  *state.Slot[ReportResult]
	project *state.Slot[ProjectResult]
	status  *state.Slot[Status]
	statusW *state.Writer[Status]

	gate *link.Link[URL, *ContentError, Content, *ContentError]

	pool   *core.Pool   // owned background, if any
	serial *core.Serial // owned foreground, if any

	mu   sync.Mutex
	last URL
	seen bool
}

// New builds a Pipeline running stages. Without WithExecutors, stage work
// runs on a core.Pool and delivery on a core.Serial owned by the Pipeline;
// call Close to stop it.
func New(stages Stages, opts ...Option) *Pipeline {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	p := &Pipeline{logger: o.logger}
	if o.background == nil {
		p.pool = core.NewPool(o.workers)
		o.background = p.pool
	}
	if o.foreground == nil {
		p.serial = core.NewSerial()
		o.foreground = p.serial
	}
	fg := o.foreground

	var contentW *state.Writer[ContentResult]
	var reportW *state.Writer[ReportResult]
	var projectW *state.Writer[ProjectResult]
	p.content, contentW = state.New(core.Failure[Content](NewContentError(ContentNotComputed, nil)))
	p.report, reportW = state.New(core.Failure[Report](NewReportError(ReportNotComputed, nil)))
	p.project, projectW = state.New(core.Failure[Project](NewProjectError(ProjectNotComputed, nil)))
	p.status, p.statusW = state.New(StatusInitial, state.WithExecutor(fg))

	projectLink := link.New(
		link.Lift(stages.Project, WrapReportError),
		o.background,
		func(ctx context.Context, r ProjectResult) {
			fg.Execute(func() { projectW.Set(r) })
			if sub, ok := SubmissionFrom(ctx); ok {
				for _, fn := range o.complete {
					fn(sub, r)
				}
			}
		},
		link.WithName("project"), link.WithHooks(o.hooks),
	)
	reportLink := link.New(
		link.Lift(stages.Report, WrapContentError),
		o.background,
		func(ctx context.Context, r ReportResult) {
			fg.Execute(func() { reportW.Set(r) })
			projectLink.SendContext(ctx, r)
		},
		link.WithName("report"), link.WithHooks(o.hooks),
	)
	gateOpts := []link.Option{link.WithName("content"), link.WithPolicy(link.Switch), link.WithHooks(o.hooks)}
	if o.cancel {
		gateOpts = append(gateOpts, link.WithCancelSuperseded())
	}
	p.gate = link.New(
		link.Lift(stages.Content, func(err *ContentError) *ContentError { return err }),
		o.background,
		func(ctx context.Context, r ContentResult) {
			fg.Execute(func() { contentW.Set(r) })
			reportLink.SendContext(ctx, r)
		},
		gateOpts...,
	)

	// Only the terminal slot moves the status out of Loading.
	p.project.Observe(func(r ProjectResult) {
		ev := TerminalSuccess
		if r.IsFailure() {
			ev = TerminalFailure
		}
		p.advance(ev)
	})
	p.status.Observe(func(s Status) {
		p.logger.Debug("Pipeline status changed", "status", s.String())
	})

	return p
}

// Submit is the Input Gate. raw is the URL to process, or the error that
// prevented obtaining one. A ContentError is used as is; any other error
// becomes a FileImportFailed ContentError carrying it. The status is
// Loading when Submit hands the input to the content stage, even if a
// status observer is still busy with an earlier value.
func (p *Pipeline) Submit(raw core.Result[URL, error]) {
	in := core.MapError(raw, normalizeInputError)
	sub := Submission{ID: uuid.NewString(), URL: raw.Value()}

	if raw.IsSuccess() {
		p.mu.Lock()
		p.last, p.seen = raw.Value(), true
		p.mu.Unlock()
		p.logger.Debug("Input submitted", "submission", sub.ID, "url", string(sub.URL))
	} else {
		p.logger.Debug("Input failure submitted", "submission", sub.ID, "error", raw.Error())
	}

	p.advance(Submitted)
	p.gate.SendContext(core.WithValue(context.Background(), sub), in)
}

// advance feeds ev to the status machine. Events that leave the status
// unchanged are not published.
func (p *Pipeline) advance(ev Event) {
	p.statusW.UpdateIf(func(s Status) (Status, bool) {
		next := s.Next(ev)
		return next, next != s
	})
}

// SubmitURL submits a URL.
func (p *Pipeline) SubmitURL(u URL) {
	p.Submit(core.Success[URL, error](u))
}

// SubmitError submits a failure to acquire input.
func (p *Pipeline) SubmitError(err error) {
	p.Submit(core.Failure[URL](err))
}

// LastURL returns the most recently submitted URL, if any.
func (p *Pipeline) LastURL() (URL, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, p.seen
}

// Content returns the content stage's published Result.
func (p *Pipeline) Content() state.Observable[ContentResult] { return p.content }

// Report returns the report stage's published Result.
func (p *Pipeline) Report() state.Observable[ReportResult] { return p.report }

// Project returns the project stage's published Result.
func (p *Pipeline) Project() state.Observable[ProjectResult] { return p.project }

// Status returns the derived status. Submit writes Loading before it
// returns, on the submitting goroutine; observers are notified on the
// foreground executor like every other slot.
func (p *Pipeline) Status() state.Observable[Status] { return p.status }

// Wait blocks until every submission made so far has reached the project
// slot and every slot update has been delivered. It only waits on the
// executors the Pipeline owns.
func (p *Pipeline) Wait() {
	if p.pool != nil {
		p.pool.Wait()
	}
	if p.serial != nil {
		p.serial.Sync()
	}
}

// Close stops the foreground executor the Pipeline owns, after delivering
// what is already queued. Submissions still in flight are dropped.
func (p *Pipeline) Close() {
	if p.serial != nil {
		p.serial.Close()
	}
}
