package entity

import "strings"

// PinLength is the number of cells in the pin pad.
const PinLength = 6

type PinKey int

const (
	PinKeyOther PinKey = iota
	PinKeyBackspace
	PinKeyDelete
)

// PinKeyFromString maps DOM-style key names.
func PinKeyFromString(s string) PinKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "backspace":
		return PinKeyBackspace
	case "delete", "del":
		return PinKeyDelete
	default:
		return PinKeyOther
	}
}

type pinCell struct {
	value    string
	previous string
}

// PinPad aggregates six single-digit cells into one verification code and
// tracks which cell has focus. Cell indexes are zero based.
type PinPad struct {
	cells [PinLength]pinCell
	focus int
}

// Input applies a value change to cell i. A new digit moves focus to the
// next cell; an empty value clears the cell and leaves focus alone.
func (p *PinPad) Input(i int, v string) error {
	if i < 0 || i >= PinLength {
		return ErrCellOutOfRange
	}

	if v == "" {
		p.cells[i] = pinCell{}
		return nil
	}
	if !isDigit(v) {
		return ErrInvalidCell
	}

	c := &p.cells[i]
	changed := v != c.previous
	c.value, c.previous = v, v

	if changed {
		p.focus = min(i+1, PinLength-1)
	}
	return nil
}

// Key applies a key event to cell i. Backspace and Delete empty the cell;
// past the first cell they also empty the previous cell and focus it.
func (p *PinPad) Key(i int, k PinKey) error {
	if i < 0 || i >= PinLength {
		return ErrCellOutOfRange
	}
	if k != PinKeyBackspace && k != PinKeyDelete {
		return nil
	}

	p.cells[i] = pinCell{}
	if i > 0 {
		p.cells[i-1] = pinCell{}
		p.focus = i - 1
	}
	return nil
}

// Code concatenates the cells left to right.
func (p *PinPad) Code() (string, error) {
	var sb strings.Builder
	for _, c := range p.cells {
		if !isDigit(c.value) {
			return "", ErrIncompleteCode
		}
		sb.WriteString(c.value)
	}
	return sb.String(), nil
}

// Fill replaces every cell from a complete code, as a paste would.
func (p *PinPad) Fill(code string) error {
	if len(code) != PinLength {
		return ErrIncompleteCode
	}
	for i := range PinLength {
		if !isDigit(code[i : i+1]) {
			return ErrIncompleteCode
		}
	}

	for i := range PinLength {
		d := code[i : i+1]
		p.cells[i] = pinCell{value: d, previous: d}
	}
	p.focus = PinLength - 1
	return nil
}

// Clear empties every cell and focuses the first one.
func (p *PinPad) Clear() {
	*p = PinPad{}
}

func (p *PinPad) Focus() int { return p.focus }

// Cells returns the current cell values.
func (p *PinPad) Cells() [PinLength]string {
	var out [PinLength]string
	for i, c := range p.cells {
		out[i] = c.value
	}
	return out
}

// Filled counts non-empty cells.
func (p *PinPad) Filled() int {
	n := 0
	for _, c := range p.cells {
		if c.value != "" {
			n++
		}
	}
	return n
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}
