package gametestx

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// DefaultMaxTicks is the tick budget of a test that does not set one.
const DefaultMaxTicks = 100

// Suite membership tags. A definition registered without any "suite:" tag
// is placed in TagSuiteDefault.
const (
	TagSuiteDefault  = "suite:default"
	TagSuiteDisabled = "suite:disabled"
	TagSuiteDebug    = "suite:debug"
	// TagSuiteAll selects every definition when used in a Tags filter.
	TagSuiteAll = "suite:all"

	suiteTagPrefix = "suite:"
)

// Body is a synchronous test body, run once on the instance's first tick.
type Body func(t *T)

// AsyncBody is a test body that may suspend itself with T.Idle. A non-nil
// return value fails the test.
type AsyncBody func(t *T) error

// Definition describes one registered test.
type Definition struct {
	Suite string
	Name  string

	Body      Body
	AsyncBody AsyncBody

	StructureName string
	MaxTicks      int
	SetupTicks    int
	Padding       int
	Batch         string
	Tags          []string
	Required      bool
	RotateTest    bool
}

// NewDefinition returns a definition with the framework defaults applied.
func NewDefinition(suite, name string, body Body) Definition {
	return Definition{
		Suite:    suite,
		Name:     name,
		Body:     body,
		MaxTicks: DefaultMaxTicks,
		Required: true,
	}
}

// NewAsyncDefinition is NewDefinition for an async body.
func NewAsyncDefinition(suite, name string, body AsyncBody) Definition {
	d := NewDefinition(suite, name, nil)
	d.AsyncBody = body
	return d
}

// ID returns "suite:name", the unique key of the definition.
func (d Definition) ID() string {
	return d.Suite + ":" + d.Name
}

// HasTag reports whether tag is in the definition's tag set.
func (d Definition) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}

// IsAsync reports whether the definition carries an async body.
func (d Definition) IsAsync() bool {
	return d.AsyncBody != nil
}

// Validate reports configuration errors. Every returned error wraps
// ErrInvalidConfig.
func (d Definition) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Suite) == "" {
		errs = append(errs, errors.New("suite name is required"))
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("test name is required"))
	}
	switch {
	case d.Body == nil && d.AsyncBody == nil:
		errs = append(errs, errors.New("a body is required"))
	case d.Body != nil && d.AsyncBody != nil:
		errs = append(errs, errors.New("body and async body are mutually exclusive"))
	}
	if d.MaxTicks <= 0 {
		errs = append(errs, fmt.Errorf("maxTicks must be positive, got %d", d.MaxTicks))
	}
	if d.SetupTicks < 0 {
		errs = append(errs, fmt.Errorf("setupTicks must not be negative, got %d", d.SetupTicks))
	}
	if d.Padding < 0 {
		errs = append(errs, fmt.Errorf("padding must not be negative, got %d", d.Padding))
	}
	for _, tag := range d.Tags {
		if strings.TrimSpace(tag) == "" {
			errs = append(errs, errors.New("tags must not be empty"))
			break
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, d.ID(), errors.Join(errs...))
}

// normalized returns a copy that owns its tag slice, with duplicate tags
// removed and the default suite tag added when no suite tag is present.
func (d Definition) normalized() Definition {
	tags := make([]string, 0, len(d.Tags)+1)
	hasSuite := false
	for _, tag := range d.Tags {
		if slices.Contains(tags, tag) {
			continue
		}
		if strings.HasPrefix(tag, suiteTagPrefix) {
			hasSuite = true
		}
		tags = append(tags, tag)
	}
	if !hasSuite {
		tags = append(tags, TagSuiteDefault)
	}
	d.Tags = tags
	return d
}

// clone returns a copy that does not share the tag slice.
func (d Definition) clone() Definition {
	d.Tags = slices.Clone(d.Tags)
	return d
}
