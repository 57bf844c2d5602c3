// Package testutil provides shared fixtures for store and service tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/pegboard-io/pegboard/internal/store"
	"github.com/pegboard-io/pegboard/internal/tenant"
	"github.com/pegboard-io/pegboard/internal/util"
)

// TempStore creates a fresh store in a temp directory. The store is closed
// and removed when the test ends.
func TempStore(t *testing.T) *store.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Create(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TempRegistry creates a registry rooted in a temp directory with the
// default store already created.
func TempRegistry(t *testing.T) *tenant.Registry {
	t.Helper()

	reg, err := tenant.NewRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}
	if err := reg.EnsureDefault(); err != nil {
		t.Fatalf("failed to create default store: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

// SeedList inserts a list at the given position and returns its id.
func SeedList(t *testing.T, st *store.Store, title string, position int) int64 {
	t.Helper()

	l := &store.List{
		Title:           title,
		Position:        position,
		CreatedAtMillis: util.NowMillis(),
		UpdatedAtMillis: util.NowMillis(),
	}
	err := st.Update(context.Background(), func(tx *sql.Tx) error {
		return store.InsertList(tx, l)
	})
	if err != nil {
		t.Fatalf("failed to seed list %q: %v", title, err)
	}
	return l.ID
}

// SeedCard inserts a card at the given position in a list and returns its id.
func SeedCard(t *testing.T, st *store.Store, listID int64, title string, position int) int64 {
	t.Helper()

	c := &store.Card{
		ListID:          listID,
		Title:           title,
		Position:        position,
		CreatedAtMillis: util.NowMillis(),
		UpdatedAtMillis: util.NowMillis(),
	}
	err := st.Update(context.Background(), func(tx *sql.Tx) error {
		return store.InsertCard(tx, c)
	})
	if err != nil {
		t.Fatalf("failed to seed card %q: %v", title, err)
	}
	return c.ID
}

// ListTitlesInOrder returns list titles sorted by position.
func ListTitlesInOrder(t *testing.T, st *store.Store) []string {
	t.Helper()

	var titles []string
	err := st.View(context.Background(), func(tx *sql.Tx) error {
		lists, err := store.ListsByPosition(tx)
		if err != nil {
			return err
		}
		for _, l := range lists {
			titles = append(titles, l.Title)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read lists: %v", err)
	}
	return titles
}

// CardPositions returns a map of card id to position for a list.
func CardPositions(t *testing.T, st *store.Store, listID int64) map[int64]int {
	t.Helper()

	positions := make(map[int64]int)
	err := st.View(context.Background(), func(tx *sql.Tx) error {
		cards, err := store.CardsInList(tx, listID)
		if err != nil {
			return err
		}
		for _, c := range cards {
			positions[c.ID] = c.Position
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read cards: %v", err)
	}
	return positions
}

// CardTitlesInOrder returns card titles in a list sorted by position.
func CardTitlesInOrder(t *testing.T, st *store.Store, listID int64) []string {
	t.Helper()

	var titles []string
	err := st.View(context.Background(), func(tx *sql.Tx) error {
		cards, err := store.CardsInList(tx, listID)
		if err != nil {
			return err
		}
		for _, c := range cards {
			titles = append(titles, c.Title)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read cards: %v", err)
	}
	return titles
}
