package observe

import (
	"context"
	"fmt"
	"time"

	"github.com/lguimbarda/reportflow/flow/link"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Otel records link activity with OpenTelemetry instruments.
type Otel struct {
	dispatched metric.Int64Counter
	delivered  metric.Int64Counter
	superseded metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewOtel creates the instruments on meter.
func NewOtel(meter metric.Meter) (*Otel, error) {
	dispatched, err := meter.Int64Counter("reportflow.link.dispatched",
		metric.WithDescription("count of stage tasks handed to an executor"))
	if err != nil {
		return nil, fmt.Errorf("create dispatched counter: %w", err)
	}
	delivered, err := meter.Int64Counter("reportflow.link.delivered",
		metric.WithDescription("count of stage results handed downstream"))
	if err != nil {
		return nil, fmt.Errorf("create delivered counter: %w", err)
	}
	superseded, err := meter.Int64Counter("reportflow.link.superseded",
		metric.WithDescription("count of stale stage results discarded"))
	if err != nil {
		return nil, fmt.Errorf("create superseded counter: %w", err)
	}
	duration, err := meter.Float64Histogram("reportflow.link.duration",
		metric.WithDescription("time from accepting an input to resolving its stage"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("create duration histogram: %w", err)
	}
	return &Otel{
		dispatched: dispatched,
		delivered:  delivered,
		superseded: superseded,
		duration:   duration,
	}, nil
}

// Hooks returns the hooks that feed the instruments.
func (o *Otel) Hooks() link.Hooks {
	ctx := context.Background()
	return link.Hooks{
		OnDispatch: func(name string, _ uint64) {
			o.dispatched.Add(ctx, 1, metric.WithAttributes(attribute.String("link", name)))
		},
		OnDeliver: func(name string, _ uint64, failed bool, elapsed time.Duration) {
			attrs := metric.WithAttributes(attribute.String("link", name), attribute.String("outcome", outcome(failed)))
			o.delivered.Add(ctx, 1, attrs)
			o.duration.Record(ctx, elapsed.Seconds(), attrs)
		},
		OnSupersede: func(name string, _ uint64, elapsed time.Duration) {
			attrs := metric.WithAttributes(attribute.String("link", name), attribute.String("outcome", "superseded"))
			o.superseded.Add(ctx, 1, metric.WithAttributes(attribute.String("link", name)))
			o.duration.Record(ctx, elapsed.Seconds(), attrs)
		},
	}
}

func outcome(failed bool) string {
	if failed {
		return "failure"
	}
	return "success"
}
