package engine

// Teardown collects cancel funcs for resources scheduled during a session.
type Teardown struct {
	fns []func()
}

// Add registers fn to run on the next Release.
func (t *Teardown) Add(fn func()) {
	if fn == nil {
		return
	}
	t.fns = append(t.fns, fn)
}

// Len returns the number of pending cancel funcs.
func (t *Teardown) Len() int {
	return len(t.fns)
}

// Release runs the registered funcs in reverse order and forgets them.
func (t *Teardown) Release() {
	fns := t.fns
	t.fns = nil
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
