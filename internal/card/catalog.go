package card

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNotFound = errors.New("card not found")

// Lookup resolves a card id. Battle and gacha engines depend on this rather
// than on *Catalog.
type Lookup interface {
	Lookup(id string) (Definition, error)
}

// Catalog is an immutable id -> Definition index.
type Catalog struct {
	cards map[string]Definition
}

// NewCatalog normalizes and indexes defs. Duplicate ids are an error.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{cards: make(map[string]Definition, len(defs))}
	var errs []error
	for _, d := range defs {
		nd, err := Normalize(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.cards[nd.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate card id %s", nd.ID))
			continue
		}
		c.cards[nd.ID] = nd
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}

func (c *Catalog) Lookup(id string) (Definition, error) {
	if c == nil {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	d, ok := c.cards[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return d, nil
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.cards)
}

// IDs returns all card ids sorted.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.cards))
	for id := range c.cards {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
