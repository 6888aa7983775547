package stackfield

// cleanup is a stack of release functions run in reverse acquisition order.
type cleanup struct {
	fns []func()
}

func (c *cleanup) push(fn func()) {
	c.fns = append(c.fns, fn)
}

// run calls every release function once, most recent first.
func (c *cleanup) run() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
	c.fns = nil
}
