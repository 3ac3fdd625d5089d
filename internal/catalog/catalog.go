// Package catalog holds the read-only upstream item and expansion tables the
// asset pipeline derives its files from.
package catalog

import "sort"

// Catalog is an immutable view over the upstream tables.
type Catalog struct {
	expansions []Expansion
	items      []Item
	setCodes   map[string]string // PTCGO short code -> expansion code
	byCode     map[string]int
}

// New builds a catalog. Items are ordered by ascending id.
func New(expansions []Expansion, items []Item, setCodes map[string]string) *Catalog {
	c := &Catalog{
		expansions: append([]Expansion(nil), expansions...),
		items:      append([]Item(nil), items...),
		setCodes:   make(map[string]string, len(setCodes)),
		byCode:     make(map[string]int, len(expansions)),
	}
	sort.SliceStable(c.items, func(i, j int) bool { return c.items[i].ID < c.items[j].ID })
	for i, exp := range c.expansions {
		c.byCode[exp.Code] = i
	}
	for k, v := range setCodes {
		c.setCodes[k] = v
	}
	return c
}

// Expansions returns the expansions in table order.
func (c *Catalog) Expansions() []Expansion {
	return append([]Expansion(nil), c.expansions...)
}

// Items returns the items ordered by id.
func (c *Catalog) Items() []Item {
	return append([]Item(nil), c.items...)
}

// Expansion looks up an expansion by code.
func (c *Catalog) Expansion(code string) (Expansion, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Expansion{}, false
	}
	return c.expansions[i], true
}

// SetCodes returns a copy of the PTCGO short code -> expansion code table.
func (c *Catalog) SetCodes() map[string]string {
	out := make(map[string]string, len(c.setCodes))
	for k, v := range c.setCodes {
		out[k] = v
	}
	return out
}
