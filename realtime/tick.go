package realtime

// processTick processes one complete tick
func (rt *Runtime) processTick() error {
	// Phase 1: Collect commands atomically
	cmds := rt.collectCommands()

	// Phase 2: Sort for deterministic order
	sortCommands(cmds)

	// Phase 3: Apply commands; they take effect at this tick's boundary
	for _, c := range cmds {
		if err := c.Command.Apply(rt.sched); err != nil {
			rt.logger.Warn("command rejected", "command", c.Command.Name, "error", err)
		}
	}

	// Phase 4: Advance the scheduler
	return rt.sched.Advance()
}

// collectCommands atomically retrieves and clears the command batch
func (rt *Runtime) collectCommands() []CommandWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	cmds := rt.cmdBatch
	rt.cmdBatch = make([]CommandWithMeta, 0, cap(rt.cmdBatch))

	return cmds
}
