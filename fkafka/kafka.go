// Package fkafka wraps Kafka consumption and production as pipeline
// stages, built on franz-go. A source stage polls one bounded batch of
// records from a topic; a sink stage produces the upstream values to a
// topic and yields a Unit port for ordering.
//
// These helpers open a fresh client per run, matching the library's
// no-state-across-runs model. They are convenience collaborators, not a
// streaming runtime.
package fkafka

import (
	"context"
	"fmt"
	"time"

	"github.com/birdayz/flowz"
	"github.com/birdayz/flowz/fserde"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/multierr"
)

// SourceConfig configures a Kafka source stage.
type SourceConfig struct {
	Brokers []string
	Topic   string

	// MaxRecords bounds the batch; the stage returns as soon as it has
	// this many records, or whatever it got when Timeout elapses.
	MaxRecords int

	// Timeout bounds the total poll time. Defaults to 10s.
	Timeout time.Duration
}

// SinkConfig configures a Kafka sink stage.
type SinkConfig struct {
	Brokers []string
	Topic   string

	// Timeout bounds the total produce time. Defaults to 10s.
	Timeout time.Duration
}

const defaultTimeout = 10 * time.Second

// AddSource registers a source stage that consumes up to cfg.MaxRecords
// record values from cfg.Topic, starting at the earliest offset, and
// deserializes them with d.
func AddSource[T any](p *flowz.Pipeline, key string, cfg SourceConfig, d fserde.Deserializer[T]) (flowz.Port[[]T], error) {
	return flowz.AddSource(p, key, func() ([]T, error) {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		client, err := kgo.NewClient(
			kgo.SeedBrokers(cfg.Brokers...),
			kgo.ConsumeTopics(cfg.Topic),
			kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: kafka client: %v", flowz.ErrIO, err)
		}
		defer client.Close()

		values := make([]T, 0, cfg.MaxRecords)
		for len(values) < cfg.MaxRecords {
			fetches := client.PollFetches(ctx)
			if ctx.Err() != nil {
				break
			}
			if errs := fetches.Errors(); len(errs) > 0 {
				var ferr error
				for _, e := range errs {
					ferr = multierr.Append(ferr, e.Err)
				}
				return nil, fmt.Errorf("%w: poll %s: %v", flowz.ErrIO, cfg.Topic, ferr)
			}
			iter := fetches.RecordIter()
			for !iter.Done() && len(values) < cfg.MaxRecords {
				record := iter.Next()
				v, err := d(record.Value)
				if err != nil {
					return nil, fmt.Errorf("deserialize record at offset %d: %w", record.Offset, err)
				}
				values = append(values, v)
			}
		}
		return values, nil
	})
}

// AddSink registers a stage that produces the upstream values to
// cfg.Topic, serialized with s. The returned Unit port orders dependents
// after the produce.
func AddSink[T any](p *flowz.Pipeline, key string, in flowz.Port[[]T], cfg SinkConfig, s fserde.Serializer[T]) (flowz.Port[flowz.Unit], error) {
	return flowz.AddStage(p, key, func(values []T) (flowz.Unit, error) {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		client, err := kgo.NewClient(kgo.SeedBrokers(cfg.Brokers...))
		if err != nil {
			return flowz.Unit{}, fmt.Errorf("%w: kafka client: %v", flowz.ErrIO, err)
		}
		defer client.Close()

		records := make([]*kgo.Record, 0, len(values))
		for _, v := range values {
			data, err := s(v)
			if err != nil {
				return flowz.Unit{}, fmt.Errorf("serialize record: %w", err)
			}
			records = append(records, &kgo.Record{Topic: cfg.Topic, Value: data})
		}
		if err := client.ProduceSync(ctx, records...).FirstErr(); err != nil {
			return flowz.Unit{}, fmt.Errorf("%w: produce %s: %v", flowz.ErrIO, cfg.Topic, err)
		}
		return flowz.Unit{}, nil
	}, in)
}
