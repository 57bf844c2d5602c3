// Package service implements the board and card operations, including the
// position engine that keeps every list's card sequence and the board's list
// sequence dense, 1-based, and duplicate-free across every mutation. All
// shifting runs inside one store transaction with the row mutation it
// belongs to; a failure rolls back the whole operation.
package service

import (
	"context"
	"database/sql"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
	"github.com/pegboard-io/pegboard/internal/store"
	"github.com/pegboard-io/pegboard/internal/util"
)

// SentinelListID routes an operation to the list with the numerically lowest
// position at execution time.
const SentinelListID int64 = -1

// CardService handles card operations for one board store.
type CardService struct {
	st              *store.Store
	maxCardsPerList int
}

// NewCardService creates a card service over the given store handle.
// maxCardsPerList of 0 disables the capacity ceiling.
func NewCardService(st *store.Store, maxCardsPerList int) *CardService {
	return &CardService{st: st, maxCardsPerList: maxCardsPerList}
}

// resolveList resolves a target list id, routing the sentinel to the list
// with the lowest position.
func resolveList(tx *sql.Tx, listID int64) (*store.List, error) {
	if listID == SentinelListID {
		return store.LowestList(tx)
	}
	return store.GetList(tx, listID)
}

// AddCardInput contains the input for adding a card.
type AddCardInput struct {
	ListID      int64 // may be SentinelListID
	Title       string
	Description string
	Position    *int // nil = append
}

// Add creates a new card. With no position the card is appended to the end
// of the list and the assignment is retried under write contention; with an
// explicit position every card at or past it shifts up by one, and a
// conflict surfaces as an error.
func (s *CardService) Add(ctx context.Context, input AddCardInput) (*store.Card, error) {
	if input.Title == "" {
		return nil, pberr.InvalidField("title", "must not be empty")
	}
	if input.Position != nil && *input.Position < 1 {
		return nil, pberr.InvalidField("position", "must be at least 1")
	}

	now := util.NowMillis()
	card := &store.Card{
		Title:           input.Title,
		Description:     input.Description,
		CreatedAtMillis: now,
		UpdatedAtMillis: now,
	}

	fn := func(tx *sql.Tx) error {
		list, err := resolveList(tx, input.ListID)
		if err != nil {
			return err
		}
		card.ListID = list.ID

		count, err := store.CountCards(tx, list.ID)
		if err != nil {
			return err
		}
		if s.maxCardsPerList > 0 && count >= s.maxCardsPerList {
			return pberr.CardLimitExceeded(list.ID, s.maxCardsPerList)
		}

		if input.Position == nil {
			card.Position = count + 1
		} else {
			p := *input.Position
			if p > count+1 {
				return pberr.InvalidField("position", "beyond end of list")
			}
			if err := store.ShiftCardsUp(tx, list.ID, p); err != nil {
				return err
			}
			card.Position = p
		}

		return store.InsertCard(tx, card)
	}

	var err error
	if input.Position == nil {
		err = s.st.UpdateAuto(ctx, fn)
	} else {
		err = s.st.Update(ctx, fn)
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Get retrieves a card by id.
func (s *CardService) Get(ctx context.Context, id int64) (*store.Card, error) {
	var card *store.Card
	err := s.st.View(ctx, func(tx *sql.Tx) error {
		var err error
		card, err = store.GetCard(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// List returns the cards of one list in position order.
func (s *CardService) List(ctx context.Context, listID int64) ([]*store.Card, error) {
	var cards []*store.Card
	err := s.st.View(ctx, func(tx *sql.Tx) error {
		list, err := resolveList(tx, listID)
		if err != nil {
			return err
		}
		cards, err = store.CardsInList(tx, list.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// EditCardInput contains the mutable card fields. Pointer fields indicate
// "set this field"; nil means "don't change". Placement is not edited here;
// use Move.
type EditCardInput struct {
	CardID      int64
	Title       *string
	Description *string
}

// Edit applies the changes specified in the input to an existing card.
func (s *CardService) Edit(ctx context.Context, input EditCardInput) (*store.Card, error) {
	if input.Title != nil && *input.Title == "" {
		return nil, pberr.InvalidField("title", "must not be empty")
	}

	var card *store.Card
	err := s.st.Update(ctx, func(tx *sql.Tx) error {
		var err error
		card, err = store.GetCard(tx, input.CardID)
		if err != nil {
			return err
		}

		if input.Title == nil && input.Description == nil {
			return nil
		}

		if input.Title != nil {
			card.Title = *input.Title
		}
		if input.Description != nil {
			card.Description = *input.Description
		}
		card.UpdatedAtMillis = util.NowMillis()
		return store.UpdateCardFields(tx, card.ID, card.Title, card.Description, card.UpdatedAtMillis)
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Move moves a card to a target list (possibly its own, possibly the
// sentinel) at an optional position. Nil position appends; that path is
// retried under write contention, explicit positions are not.
func (s *CardService) Move(ctx context.Context, cardID, targetListID int64, position *int) (*store.Card, error) {
	if position != nil && *position < 1 {
		return nil, pberr.InvalidField("position", "must be at least 1")
	}

	var card *store.Card
	fn := func(tx *sql.Tx) error {
		var err error
		card, err = store.GetCard(tx, cardID)
		if err != nil {
			return err
		}
		target, err := resolveList(tx, targetListID)
		if err != nil {
			return err
		}

		if target.ID == card.ListID {
			return s.moveWithin(tx, card, position)
		}
		return s.moveAcross(tx, card, target.ID, position)
	}

	var err error
	if position == nil {
		err = s.st.UpdateAuto(ctx, fn)
	} else {
		err = s.st.Update(ctx, fn)
	}
	if err != nil {
		return nil, err
	}
	return card, nil
}

// moveWithin repositions a card inside its own list. Moving backward shifts
// the passed-over cards down; moving forward shifts them up.
func (s *CardService) moveWithin(tx *sql.Tx, card *store.Card, position *int) error {
	count, err := store.CountCards(tx, card.ListID)
	if err != nil {
		return err
	}

	q := count // nil position means "to the end"
	if position != nil {
		q = *position
		if q > count {
			return pberr.InvalidField("position", "beyond end of list")
		}
	}
	p := card.Position
	if p == q {
		return nil
	}

	if q > p {
		if err := store.ShiftCardsDownRange(tx, card.ListID, p, q); err != nil {
			return err
		}
	} else {
		if err := store.ShiftCardsUpRange(tx, card.ListID, q, p); err != nil {
			return err
		}
	}

	card.Position = q
	card.UpdatedAtMillis = util.NowMillis()
	return store.PlaceCard(tx, card.ID, card.ListID, q, card.UpdatedAtMillis)
}

// moveAcross removes a card from its list (compacting the gap) and places
// it in the target list, shifting when an explicit position is given.
func (s *CardService) moveAcross(tx *sql.Tx, card *store.Card, targetID int64, position *int) error {
	count, err := store.CountCards(tx, targetID)
	if err != nil {
		return err
	}
	if s.maxCardsPerList > 0 && count >= s.maxCardsPerList {
		return pberr.CardLimitExceeded(targetID, s.maxCardsPerList)
	}

	if err := store.ShiftCardsDown(tx, card.ListID, card.Position); err != nil {
		return err
	}

	t := count + 1
	if position != nil {
		t = *position
		if t > count+1 {
			return pberr.InvalidField("position", "beyond end of list")
		}
		if err := store.ShiftCardsUp(tx, targetID, t); err != nil {
			return err
		}
	}

	card.ListID = targetID
	card.Position = t
	card.UpdatedAtMillis = util.NowMillis()
	return store.PlaceCard(tx, card.ID, targetID, t, card.UpdatedAtMillis)
}

// BulkMove appends the given cards, in the order supplied, onto the end of
// the target list. Ids that do not resolve to an existing card are silently
// skipped. Returns the ids actually moved. Positions are auto-assigned, so
// the whole batch is retried under write contention.
func (s *CardService) BulkMove(ctx context.Context, cardIDs []int64, targetListID int64) ([]int64, error) {
	var moved []int64
	err := s.st.UpdateAuto(ctx, func(tx *sql.Tx) error {
		moved = moved[:0]

		target, err := resolveList(tx, targetListID)
		if err != nil {
			return err
		}

		for _, id := range cardIDs {
			card, err := store.GetCard(tx, id)
			if pberr.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}

			count, err := store.CountCards(tx, target.ID)
			if err != nil {
				return err
			}
			if s.maxCardsPerList > 0 && card.ListID != target.ID && count >= s.maxCardsPerList {
				return pberr.CardLimitExceeded(target.ID, s.maxCardsPerList)
			}

			// Compact the source (or current slot when already in the
			// target), then append.
			if err := store.ShiftCardsDown(tx, card.ListID, card.Position); err != nil {
				return err
			}
			end, err := store.MaxCardPosition(tx, target.ID)
			if err != nil {
				return err
			}
			now := util.NowMillis()
			if err := store.PlaceCard(tx, card.ID, target.ID, end+1, now); err != nil {
				return err
			}
			moved = append(moved, card.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

// Delete removes a card and compacts the positions behind it.
func (s *CardService) Delete(ctx context.Context, cardID int64) error {
	return s.st.Update(ctx, func(tx *sql.Tx) error {
		card, err := store.GetCard(tx, cardID)
		if err != nil {
			return err
		}
		if err := store.DeleteCard(tx, card.ID); err != nil {
			return err
		}
		return store.ShiftCardsDown(tx, card.ListID, card.Position)
	})
}
