package interp

// Tape is a deque of bytes with a nonnegative head index. The head
// starts at 0 and at any moment 0 <= Head < len(cells). Moving right
// past the end grows the tape to the right; moving left at index 0
// prepends a cell and bumps OriginShift, so the logical position "0"
// from before any left-moves stays reachable as Head-OriginShift==0.
type Tape struct {
	cells       []byte
	Head        int
	OriginShift int
}

// NewTape returns a single-cell tape with the head at logical 0.
func NewTape() *Tape {
	return &Tape{cells: []byte{0}, Head: 0, OriginShift: 0}
}

// Cur returns the byte under the head.
func (t *Tape) Cur() byte {
	return t.cells[t.Head]
}

// Set writes the byte under the head.
func (t *Tape) Set(v byte) {
	t.cells[t.Head] = v
}

// Len reports the number of allocated cells.
func (t *Tape) Len() int {
	return len(t.cells)
}

// At returns the cell at absolute index i (0 <= i < Len()).
func (t *Tape) At(i int) byte {
	return t.cells[i]
}

// growToAbsolute extends the backing slice, prepending (and bumping
// OriginShift) or appending as needed, until target is a valid index.
// It returns the (possibly shifted) absolute index of the same cell.
func (t *Tape) growToAbsolute(target int) int {
	for target < 0 {
		t.cells = append([]byte{0}, t.cells...)
		t.OriginShift++
		target++
	}
	for target >= len(t.cells) {
		t.cells = append(t.cells, 0)
	}
	return target
}

// MoveRight advances the head, growing the tape if the head runs off
// the end.
func (t *Tape) MoveRight() {
	t.Head = t.growToAbsolute(t.Head + 1)
}

// MoveLeft retreats the head, prepending a zero cell if the head is
// already at the start of the backing slice.
func (t *Tape) MoveLeft() {
	t.Head = t.growToAbsolute(t.Head - 1)
}

// Inc adds 1 to the current cell, wrapping modulo 256.
func (t *Tape) Inc() {
	t.cells[t.Head]++
}

// Dec subtracts 1 from the current cell, wrapping modulo 256.
func (t *Tape) Dec() {
	t.cells[t.Head]--
}

// GotoLogical moves the head to the cell at tape-origin + p, growing
// the tape as needed. Used to execute SetHead.
func (t *Tape) GotoLogical(p int32) {
	t.Head = t.growToAbsolute(t.OriginShift + int(p))
}

// SetLogical writes v to the cell at tape-origin + p without moving
// the head. Used to execute SetCell.
func (t *Tape) SetLogical(p int32, v byte) {
	shift := t.OriginShift
	abs := t.growToAbsolute(t.OriginShift + int(p))
	t.Head += t.OriginShift - shift
	t.cells[abs] = v
}

// Logical returns the current head's position relative to tape-origin.
func (t *Tape) Logical() int32 {
	return int32(t.Head - t.OriginShift)
}
