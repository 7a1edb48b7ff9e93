// Package names holds the user-assigned display names for device addresses.
//
// A Table always carries exactly three categories (inputs, coils, registers).
// Addresses without a custom name fall back to a generated label such as
// "Coil_3".
package names

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Category identifies one of the three address spaces shown by the dashboard
type Category string

const (
	// Inputs are read-only discrete inputs
	Inputs Category = "inputs"
	// Coils are writable single-bit outputs
	Coils Category = "coils"
	// Registers are writable 16-bit holding registers
	Registers Category = "registers"
)

// DefaultCount is the number of addresses per category the gateway polls
// when it is not configured otherwise
const DefaultCount = 16

// Categories lists every category in display order
var Categories = []Category{Inputs, Coils, Registers}

// ParseCategory converts user input into a Category.
// Singular forms and "holding_registers" are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inputs", "input", "discrete_inputs":
		return Inputs, nil
	case "coils", "coil":
		return Coils, nil
	case "registers", "register", "holding_registers":
		return Registers, nil
	default:
		return "", fmt.Errorf("invalid category %q (expected inputs, coils or registers)", s)
	}
}

// Valid reports whether c is one of the three known categories
func (c Category) Valid() bool {
	return c == Inputs || c == Coils || c == Registers
}

// Prefix returns the label prefix used for unnamed addresses
func (c Category) Prefix() string {
	switch c {
	case Inputs:
		return "Input"
	case Coils:
		return "Coil"
	case Registers:
		return "Register"
	default:
		return string(c)
	}
}

// Title returns the heading shown above the category's table
func (c Category) Title() string {
	switch c {
	case Inputs:
		return "Discrete Inputs"
	case Coils:
		return "Coils"
	case Registers:
		return "Holding Registers"
	default:
		return string(c)
	}
}

// Writable reports whether values in this category can be written
func (c Category) Writable() bool {
	return c == Coils || c == Registers
}

// DefaultLabel returns the fallback label for an address, e.g. "Register_4"
func DefaultLabel(c Category, address int) string {
	return fmt.Sprintf("%s_%d", c.Prefix(), address)
}

// Table maps category -> address -> display name.
// JSON encodes addresses as decimal strings, matching the gateway's wire format.
type Table map[Category]map[int]string

// New returns a table with three empty categories
func New() Table {
	t := make(Table, len(Categories))
	for _, c := range Categories {
		t[c] = make(map[int]string)
	}
	return t
}

// Defaults returns a table where every address in [0, count) carries its
// fallback label. This mirrors what the gateway produces on reset.
func Defaults(count int) Table {
	t := New()
	for _, c := range Categories {
		for addr := 0; addr < count; addr++ {
			t[c][addr] = DefaultLabel(c, addr)
		}
	}
	return t
}

// Normalize ensures the table has exactly the three known categories.
// Missing categories are created empty and unknown ones are dropped.
func (t Table) Normalize() Table {
	if t == nil {
		return New()
	}
	for c := range t {
		if !c.Valid() {
			delete(t, c)
		}
	}
	for _, c := range Categories {
		if t[c] == nil {
			t[c] = make(map[int]string)
		}
	}
	return t
}

// Label returns the custom name for an address or its fallback label.
// An empty custom name also falls back.
func (t Table) Label(c Category, address int) string {
	if name, ok := t[c][address]; ok && name != "" {
		return name
	}
	return DefaultLabel(c, address)
}

// Set assigns a name in place
func (t Table) Set(c Category, address int, name string) {
	if t[c] == nil {
		t[c] = make(map[int]string)
	}
	t[c][address] = name
}

// Clone returns a deep copy
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for c, m := range t {
		cp := make(map[int]string, len(m))
		for addr, name := range m {
			cp[addr] = name
		}
		out[c] = cp
	}
	return out
}

// Addresses returns the named addresses of a category in ascending order
func (t Table) Addresses(c Category) []int {
	addrs := make([]int, 0, len(t[c]))
	for addr := range t[c] {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	return addrs
}

// ReadFile reads a whole names file and checks it with Decode. The raw bytes
// are returned so callers can upload the file unchanged.
func ReadFile(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read names file: %w", err)
	}
	if _, err := Decode(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return data, nil
}

// Decode reads a names file (as produced by an export) and checks that all
// three categories are present.
func Decode(r io.Reader) (Table, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse names file: %w", err)
	}

	t := New()
	for _, c := range Categories {
		data, ok := raw[string(c)]
		if !ok {
			return nil, fmt.Errorf("names file is missing the %q category", c)
		}
		entries := make(map[int]string)
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("invalid %s entries: %w", c, err)
		}
		if entries != nil {
			t[c] = entries
		}
	}
	return t, nil
}

// Encode writes the table as indented JSON
func (t Table) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Clone().Normalize())
}
