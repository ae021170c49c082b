package card

import (
	"errors"
	"fmt"
)

var ErrUnclassifiable = errors.New("card id does not encode a type")

// Classify derives type and rarity from the legacy id convention:
//
//	5...        -> Primary, rarity 5
//	4...        -> Support, rarity 4
//	3A..3E...   -> Support, rarity 3
//	3...        -> Special, rarity 3
//
// It is only consulted while loading data, for records that omit the
// explicit fields.
func Classify(id string) (Type, int, error) {
	if id == "" {
		return TypeUnknown, 0, fmt.Errorf("%w: empty id", ErrUnclassifiable)
	}
	switch id[0] {
	case '5':
		return TypePrimary, 5, nil
	case '4':
		return TypeSupport, 4, nil
	case '3':
		if len(id) > 1 && id[1] >= 'A' && id[1] <= 'E' {
			return TypeSupport, 3, nil
		}
		return TypeSpecial, 3, nil
	}
	return TypeUnknown, 0, fmt.Errorf("%w: %q", ErrUnclassifiable, id)
}

// Normalize fills Type and Rarity from the id when they are missing and
// checks the result is usable.
func Normalize(d Definition) (Definition, error) {
	if d.ID == "" {
		return d, errors.New("card id is required")
	}
	if d.Type == TypeUnknown || d.Rarity == 0 {
		t, r, err := Classify(d.ID)
		if err != nil {
			return d, err
		}
		if d.Type == TypeUnknown {
			d.Type = t
		}
		if d.Rarity == 0 {
			d.Rarity = r
		}
	}
	if d.Rarity < MinRarity || d.Rarity > MaxRarity {
		return d, fmt.Errorf("card %s: rarity %d out of range", d.ID, d.Rarity)
	}
	if d.Cost < 0 {
		return d, fmt.Errorf("card %s: negative cost", d.ID)
	}
	if d.Type == TypePrimary && d.Health <= 0 {
		return d, fmt.Errorf("card %s: primary cards need health > 0", d.ID)
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	return d, nil
}
