// Package builder constructs test definitions with functional options, as
// an alternative to the registry's chained Handle.
package builder

import (
	"github.com/comalice/gametestx"
)

// Option configures a definition.
type Option func(*gametestx.Definition)

// New creates a synchronous test definition.
func New(suite, name string, body gametestx.Body, opts ...Option) gametestx.Definition {
	d := gametestx.NewDefinition(suite, name, body)
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewAsync creates a test definition whose body may call T.Idle.
func NewAsync(suite, name string, body gametestx.AsyncBody, opts ...Option) gametestx.Definition {
	d := gametestx.NewAsyncDefinition(suite, name, body)
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Suite registers every definition in reg, stopping at the first error.
func Suite(reg *gametestx.Registry, defs ...gametestx.Definition) error {
	for _, d := range defs {
		if err := reg.Add(d); err != nil {
			return err
		}
	}
	return nil
}

func Structure(name string) Option {
	return func(d *gametestx.Definition) { d.StructureName = name }
}

func MaxTicks(n int) Option {
	return func(d *gametestx.Definition) { d.MaxTicks = n }
}

func SetupTicks(n int) Option {
	return func(d *gametestx.Definition) { d.SetupTicks = n }
}

func Padding(n int) Option {
	return func(d *gametestx.Definition) { d.Padding = n }
}

// Batch places the test in a serial batch.
func Batch(name string) Option {
	return func(d *gametestx.Definition) { d.Batch = name }
}

func Tags(tags ...string) Option {
	return func(d *gametestx.Definition) { d.Tags = append(d.Tags, tags...) }
}

// Optional marks the test as not required: its failure is reported but
// does not fail the run.
func Optional() Option {
	return func(d *gametestx.Definition) { d.Required = false }
}

func Rotate() Option {
	return func(d *gametestx.Definition) { d.RotateTest = true }
}

// Disabled moves the test into the disabled suite.
func Disabled() Option {
	return Tags(gametestx.TagSuiteDisabled)
}
