package service

import (
	"context"
	"database/sql"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
	"github.com/pegboard-io/pegboard/internal/store"
	"github.com/pegboard-io/pegboard/internal/util"
)

// BoardService handles list-level operations for one board store: list
// lifecycle and the ordering of lists within the board.
type BoardService struct {
	st       *store.Store
	maxLists int
}

// NewBoardService creates a board service over the given store handle.
// maxLists of 0 disables the capacity ceiling.
func NewBoardService(st *store.Store, maxLists int) *BoardService {
	return &BoardService{st: st, maxLists: maxLists}
}

// ListWithCards is one list plus its cards in position order.
type ListWithCards struct {
	store.List
	Cards []*store.Card `json:"cards"`
}

// Snapshot returns every list with its cards, both in position order.
func (s *BoardService) Snapshot(ctx context.Context) ([]*ListWithCards, error) {
	var out []*ListWithCards
	err := s.st.View(ctx, func(tx *sql.Tx) error {
		lists, err := store.ListsByPosition(tx)
		if err != nil {
			return err
		}
		out = make([]*ListWithCards, 0, len(lists))
		for _, l := range lists {
			cards, err := store.CardsInList(tx, l.ID)
			if err != nil {
				return err
			}
			out = append(out, &ListWithCards{List: *l, Cards: cards})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lists returns all lists in position order.
func (s *BoardService) Lists(ctx context.Context) ([]*store.List, error) {
	var lists []*store.List
	err := s.st.View(ctx, func(tx *sql.Tx) error {
		var err error
		lists, err = store.ListsByPosition(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return lists, nil
}

// Get returns one list by id.
func (s *BoardService) Get(ctx context.Context, id int64) (*store.List, error) {
	var list *store.List
	err := s.st.View(ctx, func(tx *sql.Tx) error {
		var err error
		list, err = store.GetList(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// AddListInput contains the input for adding a list.
type AddListInput struct {
	Title    string
	Position *int // nil = append
}

// Add creates a new list. A requested position that collides with an
// existing list shifts that list and everything behind it up by one —
// insertion semantics, the request is never rejected for a collision.
func (s *BoardService) Add(ctx context.Context, input AddListInput) (*store.List, error) {
	if input.Title == "" {
		return nil, pberr.InvalidField("title", "must not be empty")
	}
	if input.Position != nil && *input.Position < 1 {
		return nil, pberr.InvalidField("position", "must be at least 1")
	}

	now := util.NowMillis()
	list := &store.List{
		Title:           input.Title,
		CreatedAtMillis: now,
		UpdatedAtMillis: now,
	}

	fn := func(tx *sql.Tx) error {
		count, err := store.CountLists(tx)
		if err != nil {
			return err
		}
		if s.maxLists > 0 && count >= s.maxLists {
			return pberr.ListLimitExceeded(s.maxLists)
		}

		if input.Position == nil || *input.Position > count {
			list.Position = count + 1
		} else {
			p := *input.Position
			if err := store.ShiftListsUp(tx, p); err != nil {
				return err
			}
			list.Position = p
		}

		return store.InsertList(tx, list)
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
	return list, nil
}

// EditListInput contains the mutable list fields. Nil means "don't change".
type EditListInput struct {
	ListID int64
	Title  *string
}

// Edit applies the changes specified in the input to an existing list.
func (s *BoardService) Edit(ctx context.Context, input EditListInput) (*store.List, error) {
	if input.Title != nil && *input.Title == "" {
		return nil, pberr.InvalidField("title", "must not be empty")
	}

	var list *store.List
	err := s.st.Update(ctx, func(tx *sql.Tx) error {
		var err error
		list, err = store.GetList(tx, input.ListID)
		if err != nil {
			return err
		}
		if input.Title == nil {
			return nil
		}
		list.Title = *input.Title
		list.UpdatedAtMillis = util.NowMillis()
		return store.UpdateListTitle(tx, list.ID, list.Title, list.UpdatedAtMillis)
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// Reorder applies a complete {listID: position} assignment. Every list on
// the board must appear, every position must be at least 1, and positions
// must be pairwise unique. The assignment is applied as given — a replace,
// not an insert, so the caller carries the burden of consistency.
func (s *BoardService) Reorder(ctx context.Context, order map[int64]int) error {
	if len(order) == 0 {
		return pberr.InvalidField("order", "must not be empty")
	}

	seen := make(map[int]int64, len(order))
	for id, pos := range order {
		if pos < 1 {
			return pberr.InvalidField("order", "positions must be at least 1")
		}
		if _, dup := seen[pos]; dup {
			return pberr.InvalidField("order", "positions must be unique")
		}
		seen[pos] = id
	}

	return s.st.Update(ctx, func(tx *sql.Tx) error {
		lists, err := store.ListsByPosition(tx)
		if err != nil {
			return err
		}
		if len(order) != len(lists) {
			return pberr.InvalidField("order", "must assign a position to every list")
		}
		for _, l := range lists {
			if _, ok := order[l.ID]; !ok {
				return pberr.ListNotFound(l.ID)
			}
		}

		now := util.NowMillis()
		for id, pos := range order {
			if err := store.SetListPosition(tx, id, pos, now); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a list, appending its cards onto a distinct target list in
// their current order and compacting the board's position sequence. The
// last remaining list cannot be deleted.
func (s *BoardService) Delete(ctx context.Context, listID, targetListID int64) error {
	if listID == targetListID {
		return pberr.InvalidField("target", "cannot move cards to the list being deleted")
	}

	return s.st.Update(ctx, func(tx *sql.Tx) error {
		list, err := store.GetList(tx, listID)
		if err != nil {
			return err
		}
		target, err := store.GetList(tx, targetListID)
		if err != nil {
			return err
		}

		count, err := store.CountLists(tx)
		if err != nil {
			return err
		}
		if count <= 1 {
			return pberr.InvalidField("list_id", "at least one list must remain")
		}

		if err := store.ReassignCards(tx, list.ID, target.ID, util.NowMillis()); err != nil {
			return err
		}
		if err := store.DeleteList(tx, list.ID); err != nil {
			return err
		}
		return store.ShiftListsDown(tx, list.Position)
	})
}
