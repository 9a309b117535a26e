package pattern

import "gomoku/internal/board"

const (
	WindowSize = board.WindowSize

	// TableSize is 4^9: every window read as a base-4 number.
	TableSize = 1 << (2 * WindowSize)
)

type Window [WindowSize]board.Cell

// Key reads w as a base-4 integer, most significant symbol first.
func Key(w Window) int {
	key := 0
	for _, cell := range w {
		key = key<<2 | int(cell)
	}
	return key
}

func Decode(key int) Window {
	var w Window
	for i := WindowSize - 1; i >= 0; i-- {
		w[i] = board.Cell(key & 3)
		key >>= 2
	}
	return w
}

// WindowKey is Key applied to the live window of f along axis.
func WindowKey(f *board.Field, axis board.Axis) int {
	key := 0
	for _, n := range f.Window(axis) {
		key = key<<2 | int(n.Cell())
	}
	return key
}

// Reachable reports whether w can be read off a real board: the center is on
// the board and, on each side, the out-of-bounds cells form the outer end.
func Reachable(w Window) bool {
	center := board.WindowCenter
	if w[center] == board.CellOutOfBounds {
		return false
	}
	edge := false
	for i := center - 1; i >= 0; i-- {
		if w[i] == board.CellOutOfBounds {
			edge = true
		} else if edge {
			return false
		}
	}
	edge = false
	for i := center + 1; i < WindowSize; i++ {
		if w[i] == board.CellOutOfBounds {
			edge = true
		} else if edge {
			return false
		}
	}
	return true
}

func (w Window) String() string {
	buf := make([]byte, WindowSize)
	for i, cell := range w {
		buf[i] = '0' + byte(cell)
	}
	return string(buf)
}

// ParseWindow decodes the 9-digit form used by the data file.
func ParseWindow(s string) (Window, bool) {
	var w Window
	if len(s) != WindowSize {
		return w, false
	}
	for i := 0; i < WindowSize; i++ {
		if s[i] < '0' || s[i] > '3' {
			return w, false
		}
		w[i] = board.Cell(s[i] - '0')
	}
	return w, true
}
