package card

import (
	"errors"
	"fmt"
)

// Deck composition.
const (
	DeckPrimaries = 3
	DeckSupports  = 20
	DeckSize      = DeckPrimaries + DeckSupports
)

var (
	ErrDeckFull         = errors.New("deck is full")
	ErrDuplicatePrimary = errors.New("primary card already in deck")
	ErrPrimaryCount     = errors.New("deck needs exactly 3 primary cards")
	ErrSupportCount     = errors.New("deck needs exactly 20 support/special cards")
)

// Deck is an ordered list of card ids owned by a profile.
type Deck struct {
	ID    string   `yaml:"id" json:"id"`
	Name  string   `yaml:"name" json:"name"`
	Cards []string `yaml:"cards" json:"cards"`
}

// Add appends a card, rejecting a second copy of a Primary or a card that
// would overflow its section.
func (d *Deck) Add(def Definition, cat Lookup) error {
	primaries, others, err := d.split(cat)
	if err != nil {
		return err
	}
	if def.IsPrimary() {
		for _, id := range primaries {
			if id == def.ID {
				return fmt.Errorf("%w: %s", ErrDuplicatePrimary, def.ID)
			}
		}
		if len(primaries) >= DeckPrimaries {
			return fmt.Errorf("%w: primary slots", ErrDeckFull)
		}
	} else if len(others) >= DeckSupports {
		return fmt.Errorf("%w: support/special slots", ErrDeckFull)
	}
	d.Cards = append(d.Cards, def.ID)
	return nil
}

// Validate checks the 3 distinct Primary + 20 Support/Special rule and
// returns every violation joined.
func (d Deck) Validate(cat Lookup) error {
	primaries, others, err := d.split(cat)
	if err != nil {
		return err
	}
	var errs []error
	if len(primaries) != DeckPrimaries {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrPrimaryCount, len(primaries)))
	}
	seen := make(map[string]bool, len(primaries))
	for _, id := range primaries {
		if seen[id] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicatePrimary, id))
		}
		seen[id] = true
	}
	if len(others) != DeckSupports {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrSupportCount, len(others)))
	}
	return errors.Join(errs...)
}

func (d Deck) IsValid(cat Lookup) bool { return d.Validate(cat) == nil }

func (d Deck) split(cat Lookup) (primaries, others []string, err error) {
	var missing []error
	for _, id := range d.Cards {
		def, lerr := cat.Lookup(id)
		if lerr != nil {
			missing = append(missing, lerr)
			continue
		}
		if def.IsPrimary() {
			primaries = append(primaries, id)
		} else {
			others = append(others, id)
		}
	}
	if len(missing) > 0 {
		return nil, nil, errors.Join(missing...)
	}
	return primaries, others, nil
}
