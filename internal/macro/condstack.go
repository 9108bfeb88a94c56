package macro

// condStack tracks nested `ifdef/`ifndef regions. A region is active when its
// own branch condition holds and every enclosing region is active.
type condStack struct {
	stack []condFrame
}

type condFrame struct {
	parentActive bool
	taken        bool // some branch of this region has been active
	active       bool
	elseSeen     bool
	line         int
	file         string
}

func newCondStack() *condStack { return &condStack{} }

func (c *condStack) Active() bool {
	if len(c.stack) == 0 {
		return true
	}
	return c.stack[len(c.stack)-1].active
}

func (c *condStack) Push(cond bool, file string, line int) {
	parent := c.Active()
	active := parent && cond
	c.stack = append(c.stack, condFrame{
		parentActive: parent,
		taken:        active,
		active:       active,
		line:         line,
		file:         file,
	})
}

// Elsif switches to a new branch. It reports false if there is no open
// region or the region already had its else.
func (c *condStack) Elsif(cond bool) bool {
	if len(c.stack) == 0 {
		return false
	}
	top := &c.stack[len(c.stack)-1]
	if top.elseSeen {
		return false
	}
	if !top.parentActive || top.taken {
		top.active = false
		return true
	}
	top.active = cond
	if cond {
		top.taken = true
	}
	return true
}

// Else flips to the final branch. It reports false if there is no open
// region or the region already had its else; the stack is unchanged then.
func (c *condStack) Else() bool {
	if len(c.stack) == 0 {
		return false
	}
	top := &c.stack[len(c.stack)-1]
	if top.elseSeen {
		return false
	}
	top.elseSeen = true
	if !top.parentActive {
		top.active = false
		return true
	}
	top.active = !top.taken
	top.taken = true
	return true
}

// Pop closes the innermost region. It reports false if none is open.
func (c *condStack) Pop() bool {
	if len(c.stack) == 0 {
		return false
	}
	c.stack = c.stack[:len(c.stack)-1]
	return true
}

// Unclosed returns the open regions, innermost last.
func (c *condStack) Unclosed() []condFrame {
	return c.stack
}

// HasElse reports whether the innermost region already had its else.
func (c *condStack) HasElse() bool {
	return len(c.stack) > 0 && c.stack[len(c.stack)-1].elseSeen
}
