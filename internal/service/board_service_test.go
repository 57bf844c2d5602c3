package service

import (
	"context"
	"testing"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
	"github.com/pegboard-io/pegboard/testutil"
)

func TestBoardService_Add_Append(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)

	a, err := svc.Add(context.Background(), AddListInput{Title: "Backlog"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if a.Position != 1 {
		t.Errorf("first list position = %d, want 1", a.Position)
	}

	b, err := svc.Add(context.Background(), AddListInput{Title: "Doing"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if b.Position != 2 {
		t.Errorf("second list position = %d, want 2", b.Position)
	}
}

func TestBoardService_Add_CollisionShiftsExisting(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	testutil.SeedList(t, st, "A", 1)
	testutil.SeedList(t, st, "B", 2)

	inserted, err := svc.Add(context.Background(), AddListInput{Title: "X", Position: intPtr(1)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if inserted.Position != 1 {
		t.Errorf("inserted position = %d, want 1", inserted.Position)
	}

	titles := testutil.ListTitlesInOrder(t, st)
	want := []string{"X", "A", "B"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("order = %v, want %v", titles, want)
			break
		}
	}
}

func TestBoardService_Add_PositionPastEndAppends(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	testutil.SeedList(t, st, "A", 1)

	list, err := svc.Add(context.Background(), AddListInput{Title: "B", Position: intPtr(10)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if list.Position != 2 {
		t.Errorf("position = %d, want clamp to 2", list.Position)
	}
}

func TestBoardService_Add_CapacityCeiling(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 2)
	testutil.SeedList(t, st, "A", 1)
	testutil.SeedList(t, st, "B", 2)

	if _, err := svc.Add(context.Background(), AddListInput{Title: "C"}); !pberr.IsValidationError(err) {
		t.Errorf("expected validation error at capacity, got %v", err)
	}
}

func TestBoardService_Add_EmptyTitle(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)

	if _, err := svc.Add(context.Background(), AddListInput{Title: ""}); !pberr.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBoardService_Reorder_Basic(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)
	b := testutil.SeedList(t, st, "B", 2)
	c := testutil.SeedList(t, st, "C", 3)

	err := svc.Reorder(context.Background(), map[int64]int{a: 3, b: 1, c: 2})
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	titles := testutil.ListTitlesInOrder(t, st)
	want := []string{"B", "C", "A"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("order = %v, want %v", titles, want)
			break
		}
	}
}

func TestBoardService_Reorder_RejectsIncompleteMap(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)
	testutil.SeedList(t, st, "B", 2)

	err := svc.Reorder(context.Background(), map[int64]int{a: 1})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error for incomplete map, got %v", err)
	}
}

func TestBoardService_Reorder_RejectsUnknownList(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)
	testutil.SeedList(t, st, "B", 2)

	err := svc.Reorder(context.Background(), map[int64]int{a: 1, 9999: 2})
	if !pberr.IsNotFound(err) {
		t.Errorf("expected NotFound for unknown list, got %v", err)
	}
}

func TestBoardService_Reorder_RejectsDuplicatePositions(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)
	b := testutil.SeedList(t, st, "B", 2)

	err := svc.Reorder(context.Background(), map[int64]int{a: 1, b: 1})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error for duplicate positions, got %v", err)
	}
}

func TestBoardService_Reorder_RejectsPositionBelowOne(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)

	err := svc.Reorder(context.Background(), map[int64]int{a: 0})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error for position 0, got %v", err)
	}
}

func TestBoardService_Reorder_RejectsEmpty(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)

	err := svc.Reorder(context.Background(), map[int64]int{})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error for empty order, got %v", err)
	}
}

func TestBoardService_Delete_ReassignsCardsAndCompacts(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	testutil.SeedList(t, st, "A", 1)
	b := testutil.SeedList(t, st, "B", 2)
	c := testutil.SeedList(t, st, "C", 3)

	testutil.SeedCard(t, st, b, "b1", 1)
	testutil.SeedCard(t, st, b, "b2", 2)
	testutil.SeedCard(t, st, c, "c1", 1)

	if err := svc.Delete(context.Background(), b, c); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// B's cards land behind C's existing card, in their old order
	titles := testutil.CardTitlesInOrder(t, st, c)
	wantCards := []string{"c1", "b1", "b2"}
	for i := range wantCards {
		if titles[i] != wantCards[i] {
			t.Errorf("target cards = %v, want %v", titles, wantCards)
			break
		}
	}

	lists := testutil.ListTitlesInOrder(t, st)
	wantLists := []string{"A", "C"}
	if len(lists) != 2 {
		t.Fatalf("list count = %d, want 2", len(lists))
	}
	for i := range wantLists {
		if lists[i] != wantLists[i] {
			t.Errorf("lists = %v, want %v", lists, wantLists)
			break
		}
	}
}

func TestBoardService_Delete_RefusesSelfTarget(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)

	if err := svc.Delete(context.Background(), a, a); !pberr.IsValidationError(err) {
		t.Errorf("expected validation error for self target, got %v", err)
	}
}

func TestBoardService_Delete_RefusesLastList(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)

	err := svc.Delete(context.Background(), a, 9999)
	if err == nil {
		t.Fatal("expected error deleting the last list")
	}
}

func TestBoardService_Snapshot(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewBoardService(st, 0)
	a := testutil.SeedList(t, st, "A", 1)
	b := testutil.SeedList(t, st, "B", 2)
	testutil.SeedCard(t, st, a, "a1", 1)
	testutil.SeedCard(t, st, a, "a2", 2)

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("snapshot lists = %d, want 2", len(snap))
	}
	if snap[0].ID != a || snap[1].ID != b {
		t.Errorf("snapshot order = [%d %d], want [%d %d]", snap[0].ID, snap[1].ID, a, b)
	}
	if len(snap[0].Cards) != 2 {
		t.Errorf("cards in first list = %d, want 2", len(snap[0].Cards))
	}
	if len(snap[1].Cards) != 0 {
		t.Errorf("cards in second list = %d, want 0", len(snap[1].Cards))
	}
}
