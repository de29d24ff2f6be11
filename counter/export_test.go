package counter

// SetStep replaces the mutation run inside Mutex.Increment.
func (c *Mutex) SetStep(step func(n *int64)) { c.step = step }
