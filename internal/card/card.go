// Package card holds immutable card definitions, the catalog they are looked
// up from, and deck composition rules.
package card

import (
	"fmt"
	"strings"
)

// Type classifies how a card enters play.
type Type int

const (
	TypeUnknown Type = iota
	TypePrimary      // occupies a field slot, has health
	TypeSupport      // played from hand onto a target
	TypeSpecial      // played from hand, untargeted
)

func (t Type) String() string {
	switch t {
	case TypePrimary:
		return "primary"
	case TypeSupport:
		return "support"
	case TypeSpecial:
		return "special"
	default:
		return "unknown"
	}
}

// ParseType maps a data-file name ("primary", "support", "special") to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary":
		return TypePrimary, nil
	case "support":
		return TypeSupport, nil
	case "special":
		return TypeSpecial, nil
	}
	return TypeUnknown, fmt.Errorf("unknown card type %q", s)
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MinRarity and MaxRarity bound Definition.Rarity.
const (
	MinRarity = 1
	MaxRarity = 5
)

// Definition is a card as loaded from data. It is never mutated after load;
// runtime state lives on battle units.
type Definition struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Type    Type   `yaml:"type" json:"type"`
	Rarity  int    `yaml:"rarity" json:"rarity"`
	Power   int    `yaml:"power" json:"power"`
	Cost    int    `yaml:"cost" json:"cost"`
	Health  int    `yaml:"health,omitempty" json:"health,omitempty"` // Primary only
	Heal    int    `yaml:"heal,omitempty" json:"heal,omitempty"`     // added by heal abilities that scale
	Defense int    `yaml:"defense,omitempty" json:"defense,omitempty"`
	Charge  int    `yaml:"charge,omitempty" json:"charge,omitempty"`
	Ability string `yaml:"ability,omitempty" json:"ability,omitempty"`
	Passive string `yaml:"passive,omitempty" json:"passive,omitempty"`
}

// IsPrimary reports whether the card is a field unit.
func (d Definition) IsPrimary() bool { return d.Type == TypePrimary }
