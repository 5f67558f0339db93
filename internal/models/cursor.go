package models

// Cursor is the selected position within the current MatchList.
//
// The zero value is an empty cursor. Next and Previous do nothing while empty.
type Cursor struct {
	index int
	bound int
}

// NewCursor returns a cursor reset to bound
func NewCursor(bound int) Cursor {
	var c Cursor
	c.Reset(bound)
	return c
}

// Reset moves to index 0 of a list with bound entries
func (c *Cursor) Reset(bound int) {
	if bound < 0 {
		bound = 0
	}
	c.index = 0
	c.bound = bound
}

// Next advances, wrapping to 0 past the last match
func (c *Cursor) Next() {
	if c.bound == 0 {
		return
	}
	c.index = (c.index + 1) % c.bound
}

// Previous steps back, wrapping to the last match before the first
func (c *Cursor) Previous() {
	if c.bound == 0 {
		return
	}
	c.index = (c.index - 1 + c.bound) % c.bound
}

func (c Cursor) Index() int  { return c.index }
func (c Cursor) Bound() int  { return c.bound }
func (c Cursor) Empty() bool { return c.bound == 0 }

// Current returns the selected index, or false when there is nothing to select
func (c Cursor) Current() (int, bool) {
	if c.bound == 0 {
		return 0, false
	}
	return c.index, true
}
