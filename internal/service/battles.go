package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/random"
)

// BotName is the bot opponent's player name in every battle.
const BotName = "bot"

// StartRequest starts a battle of a profile's deck against a bot.
// Qualification values decide who moves first; lower goes first and a tie
// is a coin flip.
type StartRequest struct {
	ProfileID        string `json:"profile_id"`
	DeckID           string `json:"deck_id,omitempty"`
	Qualification    int    `json:"qualification,omitempty"`
	BotQualification int    `json:"bot_qualification,omitempty"`
}

func (s *Service) StartBattle(ctx context.Context, req StartRequest) (battle.View, error) {
	ctx, span := s.tracer.Start(ctx, "service.StartBattle", trace.WithAttributes(
		attribute.String("profile", req.ProfileID),
	))
	defer span.End()

	p, err := s.store.Get(ctx, req.ProfileID)
	if err != nil {
		return battle.View{}, err
	}
	deck, ok := p.Deck(req.DeckID)
	if !ok {
		return battle.View{}, fmt.Errorf("%w: %q", ErrNoDeck, req.DeckID)
	}
	data := s.data.Current()
	if err := deck.Validate(data.Catalog); err != nil {
		return battle.View{}, err
	}
	botDeck, err := BotDeck(data.Catalog, s.rng)
	if err != nil {
		return battle.View{}, err
	}

	human := battle.NewPlayer(p.ID, data.Rules.StartingHP, deck)
	human.Qualification = req.Qualification
	bot := battle.NewPlayer(BotName, data.Rules.StartingHP, botDeck)
	bot.Bot = true
	bot.Qualification = req.BotQualification

	e := battle.New(battle.Config{
		Cards:     data.Catalog,
		Abilities: data.Abilities,
		Rules:     data.Rules,
		RNG:       s.rng,
		Logger:    s.log,
	})
	span.SetAttributes(attribute.String("battle", e.ID()))
	return s.arena.Start(ctx, e, human, bot)
}

func (s *Service) Battle(id string) (battle.View, error) {
	return s.arena.View(id)
}

func (s *Service) BattleEvents(id string, sinceTurn int) ([]battle.Event, error) {
	return s.arena.Events(id, sinceTurn)
}

// Play plays the hand card cardID for playerID, optionally at targetID.
// Bot replies are applied before it returns.
func (s *Service) Play(ctx context.Context, battleID, playerID, cardID, targetID string) (battle.View, error) {
	ctx, span := s.tracer.Start(ctx, "service.Play", trace.WithAttributes(
		attribute.String("battle", battleID),
		attribute.String("card", cardID),
	))
	defer span.End()

	return s.arena.Do(ctx, battleID, func(e *battle.Engine) error {
		if err := ownsTurn(e, playerID); err != nil {
			return err
		}
		u, ok := e.FindUnit(cardID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownUnit, cardID)
		}
		var target *battle.Unit
		if targetID != "" {
			if target, ok = e.FindUnit(targetID); !ok {
				return fmt.Errorf("%w: %s", ErrUnknownUnit, targetID)
			}
		}
		return e.PlayCard(u, target)
	})
}

// Skip passes playerID's turn and reports how much HP it restored.
func (s *Service) Skip(ctx context.Context, battleID, playerID string) (battle.View, int, error) {
	ctx, span := s.tracer.Start(ctx, "service.Skip", trace.WithAttributes(
		attribute.String("battle", battleID),
	))
	defer span.End()

	healed := 0
	v, err := s.arena.Do(ctx, battleID, func(e *battle.Engine) error {
		if err := ownsTurn(e, playerID); err != nil {
			return err
		}
		var err error
		healed, err = e.SkipTurn()
		return err
	})
	return v, healed, err
}

func ownsTurn(e *battle.Engine, playerID string) error {
	if e.State() != battle.StatePlayerTurn {
		return battle.ErrNotPlayerTurn
	}
	cur := e.Current()
	if cur == nil || cur.Bot || cur.Name != playerID {
		return ErrNotYourTurn
	}
	return nil
}

// BotDeck builds a legal deck from the catalog: three distinct random
// primaries and twenty random support or special cards.
func BotDeck(cat *card.Catalog, rng random.Source) (card.Deck, error) {
	var primaries, others []card.Definition
	for _, id := range cat.IDs() {
		def, _ := cat.Lookup(id)
		if def.IsPrimary() {
			primaries = append(primaries, def)
		} else {
			others = append(others, def)
		}
	}
	if len(primaries) < card.DeckPrimaries || len(others) == 0 {
		return card.Deck{}, errors.New("catalog cannot build a bot deck")
	}
	random.Shuffle(rng, primaries)
	d := card.Deck{ID: BotName, Name: BotName}
	for _, def := range primaries[:card.DeckPrimaries] {
		if err := d.Add(def, cat); err != nil {
			return card.Deck{}, err
		}
	}
	for {
		err := d.Add(others[random.IntN(rng, len(others))], cat)
		if errors.Is(err, card.ErrDeckFull) {
			return d, nil
		}
		if err != nil {
			return card.Deck{}, err
		}
	}
}
