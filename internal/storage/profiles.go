package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/profile"
)

// ProfileStore is a profile.Store backed by SQLite. Owned cards and decks
// are rewritten wholesale on Save inside one transaction.
type ProfileStore struct {
	db *DB
}

func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

var _ profile.Store = (*ProfileStore)(nil)

func (s *ProfileStore) Get(ctx context.Context, id string) (*profile.Profile, error) {
	p := &profile.Profile{Owned: map[string]int{}}
	var firstGacha int
	var created, updated string
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT id, display_name, tickets, first_gacha, spook_streak, pull_count, current_deck, created_at, updated_at
		FROM profiles WHERE id = ?`, id).
		Scan(&p.ID, &p.DisplayName, &p.Tickets, &firstGacha, &p.SpookStreak, &p.PullCount, &p.CurrentDeck, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", profile.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", id, err)
	}
	p.FirstGacha = firstGacha != 0
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("profile %s: created_at: %w", id, err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("profile %s: updated_at: %w", id, err)
	}

	if err := s.loadOwned(ctx, p); err != nil {
		return nil, err
	}
	if err := s.loadDecks(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) loadOwned(ctx context.Context, p *profile.Profile) error {
	rows, err := s.db.conn.QueryContext(ctx, `SELECT card_id, count FROM owned_cards WHERE profile_id = ?`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load owned cards: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return fmt.Errorf("failed to scan owned card: %w", err)
		}
		p.Owned[id] = n
	}
	return rows.Err()
}

func (s *ProfileStore) loadDecks(ctx context.Context, p *profile.Profile) error {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT deck_id, name, cards FROM decks WHERE profile_id = ? ORDER BY position`, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load decks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d card.Deck
		var cards string
		if err := rows.Scan(&d.ID, &d.Name, &cards); err != nil {
			return fmt.Errorf("failed to scan deck: %w", err)
		}
		if err := json.Unmarshal([]byte(cards), &d.Cards); err != nil {
			return fmt.Errorf("deck %s: %w", d.ID, err)
		}
		p.Decks = append(p.Decks, d)
	}
	return rows.Err()
}

func (s *ProfileStore) Create(ctx context.Context, p *profile.Profile) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM profiles WHERE id = ?`, p.ID).Scan(&exists)
		if err == nil {
			return fmt.Errorf("%w: %s", profile.ErrExists, p.ID)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check profile %s: %w", p.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO profiles (id, display_name, tickets, first_gacha, spook_streak, pull_count, current_deck, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.DisplayName, p.Tickets, boolInt(p.FirstGacha), p.SpookStreak, p.PullCount, p.CurrentDeck,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert profile %s: %w", p.ID, err)
		}
		return writeChildren(ctx, tx, p)
	})
}

func (s *ProfileStore) Save(ctx context.Context, p *profile.Profile) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE profiles SET display_name = ?, tickets = ?, first_gacha = ?, spook_streak = ?, pull_count = ?,
				current_deck = ?, updated_at = ?
			WHERE id = ?`,
			p.DisplayName, p.Tickets, boolInt(p.FirstGacha), p.SpookStreak, p.PullCount, p.CurrentDeck,
			formatTime(p.UpdatedAt), p.ID)
		if err != nil {
			return fmt.Errorf("failed to update profile %s: %w", p.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", profile.ErrNotFound, p.ID)
		}
		for _, table := range []string{"owned_cards", "decks"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE profile_id = ?`, p.ID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return writeChildren(ctx, tx, p)
	})
}

func writeChildren(ctx context.Context, tx *sql.Tx, p *profile.Profile) error {
	ids := make([]string, 0, len(p.Owned))
	for id, n := range p.Owned {
		if n > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO owned_cards (profile_id, card_id, count) VALUES (?, ?, ?)`, p.ID, id, p.Owned[id]); err != nil {
			return fmt.Errorf("failed to insert owned card %s: %w", id, err)
		}
	}
	for i, d := range p.Decks {
		cards, err := json.Marshal(d.Cards)
		if err != nil {
			return fmt.Errorf("deck %s: %w", d.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO decks (profile_id, deck_id, name, position, cards) VALUES (?, ?, ?, ?, ?)`,
			p.ID, d.ID, d.Name, i, string(cards)); err != nil {
			return fmt.Errorf("failed to insert deck %s: %w", d.ID, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
