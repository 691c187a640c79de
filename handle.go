package gametestx

import "errors"

// Handle configures a registered test with chained calls:
//
//	reg.Register("redstone", "torch_toggle", body).
//		StructureName("redstone_torch").
//		MaxTicks(40).
//		Batch("night")
//
// A handle whose registration failed ignores further calls and reports the
// failure from Err.
type Handle struct {
	r   *Registry
	id  string
	err error
}

// Err returns the registration error of this handle, or the configuration
// error of the test as currently configured.
func (h *Handle) Err() error {
	if h.err != nil {
		return h.err
	}
	h.r.mu.RLock()
	defer h.r.mu.RUnlock()
	return h.r.defs[h.r.index[h.id]].Validate()
}

// ID returns "suite:name" of the registered test.
func (h *Handle) ID() string {
	return h.id
}

// StructureName selects the structure whose bounding box sizes the sandbox.
func (h *Handle) StructureName(name string) *Handle {
	return h.set(func(d *Definition) { d.StructureName = name })
}

// MaxTicks sets the tick budget; the test times out on local tick n.
func (h *Handle) MaxTicks(n int) *Handle {
	return h.set(func(d *Definition) { d.MaxTicks = n })
}

// SetupTicks delays the body by n ticks after dispatch.
func (h *Handle) SetupTicks(n int) *Handle {
	return h.set(func(d *Definition) { d.SetupTicks = n })
}

// Padding keeps n empty blocks around the structure.
func (h *Handle) Padding(n int) *Handle {
	return h.set(func(d *Definition) { d.Padding = n })
}

// Batch puts the test in a named batch. Tests of one batch run one at a
// time in registration order.
func (h *Handle) Batch(name string) *Handle {
	return h.set(func(d *Definition) { d.Batch = name })
}

// Tag adds tags to the test.
func (h *Handle) Tag(tags ...string) *Handle {
	return h.set(func(d *Definition) { d.Tags = append(d.Tags, tags...) })
}

// Required marks whether a failure of this test fails the run.
func (h *Handle) Required(required bool) *Handle {
	return h.set(func(d *Definition) { d.Required = required })
}

// RotateTest gives the test's structure a deterministic rotation.
func (h *Handle) RotateTest(rotate bool) *Handle {
	return h.set(func(d *Definition) { d.RotateTest = rotate })
}

func (h *Handle) set(fn func(d *Definition)) *Handle {
	if h.err != nil {
		return h
	}
	if err := h.r.update(h.id, fn); err != nil {
		h.err = err
		// A change after a run started is refused, but the registry is
		// unchanged and stays runnable.
		if !errors.Is(err, ErrFrozen) {
			h.r.recordErr(err)
		}
	}
	return h
}
