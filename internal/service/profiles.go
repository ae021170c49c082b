package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/profile"
)

// CreateProfile stores a new profile with the configured starting tickets.
// An empty id gets a generated one.
func (s *Service) CreateProfile(ctx context.Context, id, name string) (*profile.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" {
		name = id
	}
	p := profile.New(id, name, s.startingTickets, s.now().UTC())
	if err := s.store.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("profile created", "profile", id)
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (*profile.Profile, error) {
	return s.store.Get(ctx, id)
}

// PutDeck validates d against the current catalog and the profile's
// collection, then stores it. makeCurrent selects it for battles.
func (s *Service) PutDeck(ctx context.Context, profileID string, d card.Deck, makeCurrent bool) (*profile.Profile, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("%w: deck id is required", ErrInvalidInput)
	}
	if err := d.Validate(s.data.Current().Catalog); err != nil {
		return nil, err
	}

	_, unlock := s.lockUser(profileID)
	defer unlock()

	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := checkOwned(p, d); err != nil {
		return nil, err
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	p.PutDeck(d)
	if makeCurrent || p.CurrentDeck == "" {
		p.CurrentDeck = d.ID
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("deck saved", "profile", profileID, "deck", d.ID, "current", p.CurrentDeck == d.ID)
	return p, nil
}

// checkOwned requires at least one owned copy of every distinct card.
func checkOwned(p *profile.Profile, d card.Deck) error {
	var errs []error
	seen := map[string]bool{}
	for _, id := range d.Cards {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p.Owned[id] < 1 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrCardNotOwned, id))
		}
	}
	return errors.Join(errs...)
}
