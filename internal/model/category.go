package model

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

const CategoryCount = 4

var (
	ErrInvalidSymbol = errors.New("model: category must be a single symbol")
	ErrInvalidSlot   = errors.New("model: category slot out of range")
)

// DefaultCategories is the set used until the user edits one.
var DefaultCategories = Categories{"📝", "💼", "🏠", "🏃🏻"}

// Categories is the ordered, user-editable set of category symbols.
type Categories []string

// NormalizeCategories falls back to the defaults unless saved holds exactly
// CategoryCount valid symbols.
func NormalizeCategories(saved []string) Categories {
	if len(saved) != CategoryCount {
		return DefaultCategories.Clone()
	}
	for _, s := range saved {
		if ValidateSymbol(s) != nil {
			return DefaultCategories.Clone()
		}
	}
	return Categories(saved).Clone()
}

// ValidateSymbol accepts exactly one user-perceived character that is not
// whitespace or a control rune.
func ValidateSymbol(s string) error {
	if s == "" || uniseg.GraphemeClusterCount(s) != 1 {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
		}
	}
	return nil
}

func (c Categories) Clone() Categories {
	out := make(Categories, len(c))
	copy(out, c)
	return out
}

// Set returns a copy with slot replaced by symbol.
func (c Categories) Set(slot int, symbol string) (Categories, error) {
	if slot < 0 || slot >= len(c) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	symbol = strings.TrimSpace(symbol)
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	out := c.Clone()
	out[slot] = symbol
	return out, nil
}

func (c Categories) Index(symbol string) int {
	for i, s := range c {
		if s == symbol {
			return i
		}
	}
	return -1
}

func (c Categories) Contains(symbol string) bool {
	return c.Index(symbol) >= 0
}

// At returns the symbol in slot, or "" when the slot does not exist.
func (c Categories) At(slot int) string {
	if slot < 0 || slot >= len(c) {
		return ""
	}
	return c[slot]
}
