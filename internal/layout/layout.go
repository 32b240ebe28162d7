// Package layout describes which umbrella numbers exist on the beach map and which belong to the hotel block.
package layout

import (
	"fmt"
	"sort"
)

// Layout is immutable after construction.
type Layout struct {
	total    int
	disabled map[int]bool
	hotel    []int
}

// New builds a layout for umbrellas 1..total. Hotel-block numbers that are disabled are dropped.
func New(total int, disabled, hotel []int) (*Layout, error) {
	if total <= 0 {
		return nil, fmt.Errorf("umbrella count must be positive, got %d", total)
	}

	l := &Layout{total: total, disabled: make(map[int]bool, len(disabled))}
	for _, n := range disabled {
		if n < 1 || n > total {
			return nil, fmt.Errorf("disabled umbrella %d out of range 1..%d", n, total)
		}
		l.disabled[n] = true
	}

	seen := make(map[int]bool, len(hotel))
	for _, n := range hotel {
		if n < 1 || n > total {
			return nil, fmt.Errorf("hotel umbrella %d out of range 1..%d", n, total)
		}
		if seen[n] || l.disabled[n] {
			continue
		}
		seen[n] = true
		l.hotel = append(l.hotel, n)
	}
	sort.Ints(l.hotel)

	return l, nil
}

// Total is the number of provisioned umbrellas, disabled ones included.
func (l *Layout) Total() int {
	return l.total
}

// Disabled reports whether n is a non-existent grid position.
func (l *Layout) Disabled(n int) bool {
	return l.disabled[n]
}

// HotelBlock returns the umbrella numbers assigned to the hotel at every reset, ascending.
func (l *Layout) HotelBlock() []int {
	out := make([]int, len(l.hotel))
	copy(out, l.hotel)
	return out
}

// DefaultDisabled returns the four corner positions of the first and last map rows:
// the first two columns of row 0 and of the last row.
func DefaultDisabled(columns, rows int) []int {
	var out []int
	for n := 1; n <= columns*rows; n++ {
		row, col := (n-1)/columns, (n-1)%columns
		if (row == 0 || row == rows-1) && (col == 0 || col == 1) {
			out = append(out, n)
		}
	}
	return out
}

// DefaultHotelBlock is umbrellas 3 through 40.
func DefaultHotelBlock() []int {
	out := make([]int, 0, 38)
	for n := 3; n <= 40; n++ {
		out = append(out, n)
	}
	return out
}
