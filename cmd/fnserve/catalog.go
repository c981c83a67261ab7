package main

import (
	"context"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dsyer/spring-cloud-function/catalog"
	"github.com/dsyer/spring-cloud-function/cloudevent"
	"github.com/dsyer/spring-cloud-function/message"
)

// sampleCfg needs no config file, the tick interval is optional.
type sampleCfg struct {
	TickInterval string `json:"tick_interval"`
}

func (sampleCfg) OK() error {
	return nil
}

func newSampleCatalog(_ context.Context, logger *slog.Logger, cfg sampleCfg) *catalog.Catalog {
	interval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil || interval <= 0 {
		interval = time.Second
	}

	return catalog.New(
		catalog.Function("uppercase", func(_ context.Context, s string) (string, error) {
			return strings.ToUpper(s), nil
		}),
		catalog.Function("lowercase", func(_ context.Context, s string) (string, error) {
			return strings.ToLower(s), nil
		}),
		catalog.Function("words", func(_ context.Context, s string) ([]string, error) {
			return strings.Fields(s), nil
		}),
		catalog.Function("sorted", func(_ context.Context, in []string) ([]string, error) {
			out := slices.Clone(in)
			slices.Sort(out)
			return out, nil
		}),
		catalog.ReduceFunction("sum", func(_ context.Context, in iter.Seq2[float64, error]) (float64, error) {
			var total float64
			for v, err := range in {
				if err != nil {
					return 0, err
				}
				total += v
			}
			return total, nil
		}),
		catalog.MessageFunction("event", func(_ context.Context, in message.Message[map[string]any]) (message.Message[map[string]any], error) {
			attrs := cloudevent.FromHeaders(in.Headers)
			out := map[string]any{
				"received": in.Payload,
				"id":       attrs.ID(),
				"source":   attrs.Source(),
			}
			return message.Message[map[string]any]{
				Payload: out,
				Headers: attrs.SetSubject("echo").Headers(),
			}, nil
		}),
		catalog.Consumer("log", func(_ context.Context, v any) error {
			if logger != nil {
				logger.Info("consumed", "value", v)
			}
			return nil
		}),
		catalog.Supplier("ticks", func(ctx context.Context) iter.Seq2[string, error] {
			return func(yield func(string, error) bool) {
				t := time.NewTicker(interval)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case now := <-t.C:
						if !yield(now.UTC().Format(time.RFC3339), nil) {
							return
						}
					}
				}
			}
		}),
	)
}
