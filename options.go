package gametestx

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger. Instance loggers derive from it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStructures sets the catalog that sizes each test's sandbox.
func WithStructures(c StructureCatalog) Option {
	return func(s *Scheduler) {
		s.catalog = c
	}
}

// WithGrid bounds the sandbox grid. A zero width or depth leaves that axis
// unbounded. A test whose footprint exceeds a bound fails instead of waiting.
func WithGrid(g GridConfig) Option {
	return func(s *Scheduler) {
		s.grid = g
	}
}

// WithMaxConcurrent caps the number of concurrently active instances.
// 0 leaves it unbounded.
func WithMaxConcurrent(n int) Option {
	return func(s *Scheduler) {
		s.maxConcurrent = max(n, 0)
	}
}

// WithPublisher sends every finished Result to p.
func WithPublisher(p Publisher) Option {
	return func(s *Scheduler) {
		s.publisher = p
	}
}

// WithMetrics reports scheduler activity to m.
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer records one span per run and per test instance.
func WithTracer(t trace.Tracer) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMaxRunTicks aborts RunSuite after n ticks. 0 means no limit.
func WithMaxRunTicks(n uint64) Option {
	return func(s *Scheduler) {
		s.maxRunTicks = n
	}
}
