package gametestx

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// BatchHook runs once around a batch: before its first test is dispatched
// or after its last test finished.
type BatchHook func(ctx context.Context) error

type batchHooks struct {
	before []BatchHook
	after  []BatchHook
}

// Registry holds test definitions in registration order. It is frozen by
// the first run that uses it.
type Registry struct {
	mu      sync.RWMutex
	defs    []Definition
	index   map[string]int
	batches map[string]*batchHooks
	errs    []error
	frozen  bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:   make(map[string]int),
		batches: make(map[string]*batchHooks),
	}
}

// Add registers a fully built definition. It fails with ErrDuplicateName
// when the ID is taken, ErrInvalidConfig when the definition can never run
// and ErrFrozen once a run started. A failed Add leaves the registry
// unchanged.
func (r *Registry) Add(d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(d)
}

func (r *Registry) insertLocked(d Definition) error {
	if r.frozen {
		return fmt.Errorf("%w: cannot add %s", ErrFrozen, d.ID())
	}
	if _, ok := r.index[d.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, d.ID())
	}
	r.index[d.ID()] = len(r.defs)
	r.defs = append(r.defs, d.clone())
	return nil
}

// Register adds a synchronous test with default settings and returns a
// Handle to configure it further. Errors are kept on the handle and
// reported by Validate.
func (r *Registry) Register(suite, name string, body Body) *Handle {
	return r.register(NewDefinition(suite, name, body))
}

// RegisterAsync is Register for a body that may call T.Idle.
func (r *Registry) RegisterAsync(suite, name string, body AsyncBody) *Handle {
	return r.register(NewAsyncDefinition(suite, name, body))
}

// MustRegister is Register that panics on registration errors.
func (r *Registry) MustRegister(suite, name string, body Body) *Handle {
	h := r.Register(suite, name, body)
	if err := h.Err(); err != nil {
		panic(err)
	}
	return h
}

// MustRegisterAsync is RegisterAsync that panics on registration errors.
func (r *Registry) MustRegisterAsync(suite, name string, body AsyncBody) *Handle {
	h := r.RegisterAsync(suite, name, body)
	if err := h.Err(); err != nil {
		panic(err)
	}
	return h
}

func (r *Registry) register(d Definition) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := &Handle{r: r, id: d.ID()}
	if err := r.insertLocked(d); err != nil {
		h.err = err
		if !errors.Is(err, ErrFrozen) {
			r.errs = append(r.errs, err)
		}
	}
	return h
}

// update applies fn to a registered definition on behalf of a handle.
func (r *Registry) update(id string, fn func(d *Definition)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: cannot modify %s", ErrFrozen, id)
	}
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	d := r.defs[i].clone()
	fn(&d)
	r.defs[i] = d
	return nil
}

func (r *Registry) recordErr(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

// Validate joins every registration error and every definition that would
// fail Definition.Validate. A run refuses to start while it is non-nil.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	errs := slices.Clone(r.errs)
	for _, d := range r.defs {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Definitions returns a copy of every definition in registration order,
// with duplicate tags removed and the default suite tag added where no
// suite tag was given.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.normalized()
	}
	return out
}

// Lookup returns the definition registered as suite:name.
func (r *Registry) Lookup(suite, name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[suite+":"+name]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i].normalized(), true
}

// SelectSuite returns the definitions matched by f in registration order.
// A nil filter selects TagSuiteDefault.
func (r *Registry) SelectSuite(f Filter) []Definition {
	if f == nil {
		f = Tags()
	}
	var out []Definition
	for _, d := range r.Definitions() {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Batch returns a handle for registering hooks on the named batch.
func (r *Registry) Batch(name string) *BatchHandle {
	return &BatchHandle{r: r, name: name}
}

func (r *Registry) hooks(batch string) batchHooks {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h, ok := r.batches[batch]; ok {
		return batchHooks{before: slices.Clone(h.before), after: slices.Clone(h.after)}
	}
	return batchHooks{}
}

func (r *Registry) freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether a run has started with this registry.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// BatchHandle registers setup and teardown hooks for a batch.
type BatchHandle struct {
	r    *Registry
	name string
	err  error
}

// Err returns the first hook this handle rejected, if any.
func (b *BatchHandle) Err() error {
	return b.err
}

// BeforeBatch adds a hook run before the batch's first test is dispatched.
// If it fails, every test of the batch fails without running.
func (b *BatchHandle) BeforeBatch(hook BatchHook) *BatchHandle {
	return b.add(hook, false)
}

// AfterBatch adds a hook run after the batch's last test finished.
func (b *BatchHandle) AfterBatch(hook BatchHook) *BatchHandle {
	return b.add(hook, true)
}

// add rejects hooks once a run has started. That error stays on the handle:
// the registry itself is still valid for later runs.
func (b *BatchHandle) add(hook BatchHook, after bool) *BatchHandle {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()
	if b.r.frozen {
		if b.err == nil {
			b.err = fmt.Errorf("%w: cannot add hooks to batch %q", ErrFrozen, b.name)
		}
		return b
	}
	if hook == nil {
		err := fmt.Errorf("%w: nil hook for batch %q", ErrInvalidConfig, b.name)
		if b.err == nil {
			b.err = err
		}
		b.r.errs = append(b.r.errs, err)
		return b
	}
	h, ok := b.r.batches[b.name]
	if !ok {
		h = &batchHooks{}
		b.r.batches[b.name] = h
	}
	if after {
		h.after = append(h.after, hook)
	} else {
		h.before = append(h.before, hook)
	}
	return b
}
