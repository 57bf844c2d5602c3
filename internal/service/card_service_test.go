package service

import (
	"context"
	"testing"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
	"github.com/pegboard-io/pegboard/testutil"
)

func intPtr(v int) *int { return &v }

func TestCardService_Add_Append(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	a, err := svc.Add(context.Background(), AddCardInput{ListID: listID, Title: "a"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if a.Position != 1 {
		t.Errorf("first card position = %d, want 1", a.Position)
	}

	b, err := svc.Add(context.Background(), AddCardInput{ListID: listID, Title: "b"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if b.Position != 2 {
		t.Errorf("second card position = %d, want 2", b.Position)
	}
}

func TestCardService_Add_InsertShiftsUp(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	ids := make([]int64, 3)
	ids[0] = testutil.SeedCard(t, st, listID, "a", 1)
	ids[1] = testutil.SeedCard(t, st, listID, "b", 2)
	ids[2] = testutil.SeedCard(t, st, listID, "c", 3)

	inserted, err := svc.Add(context.Background(), AddCardInput{
		ListID: listID, Title: "x", Position: intPtr(2),
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if inserted.Position != 2 {
		t.Errorf("inserted position = %d, want 2", inserted.Position)
	}

	got := testutil.CardPositions(t, st, listID)
	want := map[int64]int{ids[0]: 1, inserted.ID: 2, ids[1]: 3, ids[2]: 4}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("card %d at %d, want %d", id, got[id], pos)
		}
	}
}

func TestCardService_Add_PositionBeyondEnd(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)
	testutil.SeedCard(t, st, listID, "a", 1)

	_, err := svc.Add(context.Background(), AddCardInput{
		ListID: listID, Title: "x", Position: intPtr(3),
	})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCardService_Add_Sentinel(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)

	// B has the lowest position regardless of creation order
	testutil.SeedList(t, st, "A", 2)
	bID := testutil.SeedList(t, st, "B", 1)
	testutil.SeedList(t, st, "C", 3)

	card, err := svc.Add(context.Background(), AddCardInput{
		ListID: SentinelListID, Title: "routed",
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if card.ListID != bID {
		t.Errorf("card routed to list %d, want %d", card.ListID, bID)
	}
}

func TestCardService_Add_SentinelEmptyBoard(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)

	_, err := svc.Add(context.Background(), AddCardInput{
		ListID: SentinelListID, Title: "nowhere",
	})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error on empty board, got %v", err)
	}
}

func TestCardService_Add_CapacityCeiling(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 2)
	listID := testutil.SeedList(t, st, "Work", 1)
	testutil.SeedCard(t, st, listID, "a", 1)
	testutil.SeedCard(t, st, listID, "b", 2)

	_, err := svc.Add(context.Background(), AddCardInput{ListID: listID, Title: "c"})
	if !pberr.IsValidationError(err) {
		t.Errorf("expected validation error at capacity, got %v", err)
	}
}

func TestCardService_Edit_PartialUpdate(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)
	cardID := testutil.SeedCard(t, st, listID, "original", 1)

	title := "renamed"
	card, err := svc.Edit(context.Background(), EditCardInput{CardID: cardID, Title: &title})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if card.Title != "renamed" {
		t.Errorf("title = %q, want %q", card.Title, "renamed")
	}
	if card.Position != 1 {
		t.Errorf("position changed by edit: %d", card.Position)
	}
}

func TestCardService_Delete_CompactsPositions(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	ids := make([]int64, 4)
	for i := range ids {
		ids[i] = testutil.SeedCard(t, st, listID, string(rune('a'+i)), i+1)
	}

	if err := svc.Delete(context.Background(), ids[1]); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got := testutil.CardPositions(t, st, listID)
	want := map[int64]int{ids[0]: 1, ids[2]: 2, ids[3]: 3}
	if len(got) != len(want) {
		t.Fatalf("card count = %d, want %d", len(got), len(want))
	}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("card %d at %d, want %d", id, got[id], pos)
		}
	}
}

func TestCardService_Delete_NotFound(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)

	if err := svc.Delete(context.Background(), 999); !pberr.IsNotFound(err) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestCardService_MoveWithin_Forward(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	ids := make([]int64, 4)
	for i := range ids {
		ids[i] = testutil.SeedCard(t, st, listID, string(rune('a'+i)), i+1)
	}

	// a moves from 1 to 3; b and c drop back by one
	if _, err := svc.Move(context.Background(), ids[0], listID, intPtr(3)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	got := testutil.CardPositions(t, st, listID)
	want := map[int64]int{ids[1]: 1, ids[2]: 2, ids[0]: 3, ids[3]: 4}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("card %d at %d, want %d", id, got[id], pos)
		}
	}
}

func TestCardService_MoveWithin_Backward(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	ids := make([]int64, 4)
	for i := range ids {
		ids[i] = testutil.SeedCard(t, st, listID, string(rune('a'+i)), i+1)
	}

	// d moves from 4 to 2; b and c shift up by one
	if _, err := svc.Move(context.Background(), ids[3], listID, intPtr(2)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	got := testutil.CardPositions(t, st, listID)
	want := map[int64]int{ids[0]: 1, ids[3]: 2, ids[1]: 3, ids[2]: 4}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("card %d at %d, want %d", id, got[id], pos)
		}
	}
}

func TestCardService_MoveWithin_NilPositionAppends(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	ids := make([]int64, 3)
	for i := range ids {
		ids[i] = testutil.SeedCard(t, st, listID, string(rune('a'+i)), i+1)
	}

	if _, err := svc.Move(context.Background(), ids[0], listID, nil); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	got := testutil.CardPositions(t, st, listID)
	want := map[int64]int{ids[1]: 1, ids[2]: 2, ids[0]: 3}
	for id, pos := range want {
		if got[id] != pos {
			t.Errorf("card %d at %d, want %d", id, got[id], pos)
		}
	}
}

func TestCardService_MoveAcross_CompactsSourceAndTarget(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	srcID := testutil.SeedList(t, st, "Src", 1)
	dstID := testutil.SeedList(t, st, "Dst", 2)

	a := testutil.SeedCard(t, st, srcID, "a", 1)
	b := testutil.SeedCard(t, st, srcID, "b", 2)
	c := testutil.SeedCard(t, st, dstID, "c", 1)

	moved, err := svc.Move(context.Background(), a, dstID, nil)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if moved.ListID != dstID || moved.Position != 2 {
		t.Errorf("moved to (%d, %d), want (%d, 2)", moved.ListID, moved.Position, dstID)
	}

	src := testutil.CardPositions(t, st, srcID)
	if len(src) != 1 || src[b] != 1 {
		t.Errorf("source positions = %v, want {%d: 1}", src, b)
	}
	dst := testutil.CardPositions(t, st, dstID)
	if dst[c] != 1 || dst[a] != 2 {
		t.Errorf("target positions = %v, want {%d: 1, %d: 2}", dst, c, a)
	}
}

func TestCardService_MoveAcross_ExplicitPosition(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	srcID := testutil.SeedList(t, st, "Src", 1)
	dstID := testutil.SeedList(t, st, "Dst", 2)

	a := testutil.SeedCard(t, st, srcID, "a", 1)
	c := testutil.SeedCard(t, st, dstID, "c", 1)
	d := testutil.SeedCard(t, st, dstID, "d", 2)

	if _, err := svc.Move(context.Background(), a, dstID, intPtr(1)); err != nil {
		t.Fatalf("Move failed: %v", err)
	}

	dst := testutil.CardPositions(t, st, dstID)
	want := map[int64]int{a: 1, c: 2, d: 3}
	for id, pos := range want {
		if dst[id] != pos {
			t.Errorf("card %d at %d, want %d", id, dst[id], pos)
		}
	}
}

func TestCardService_MoveAcross_CapacityCeiling(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 1)
	srcID := testutil.SeedList(t, st, "Src", 1)
	dstID := testutil.SeedList(t, st, "Dst", 2)

	a := testutil.SeedCard(t, st, srcID, "a", 1)
	testutil.SeedCard(t, st, dstID, "c", 1)

	if _, err := svc.Move(context.Background(), a, dstID, nil); !pberr.IsValidationError(err) {
		t.Errorf("expected validation error at capacity, got %v", err)
	}
}

func TestCardService_BulkMove_SkipsUnknownIDs(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	srcID := testutil.SeedList(t, st, "Src", 1)
	dstID := testutil.SeedList(t, st, "Dst", 2)

	a := testutil.SeedCard(t, st, srcID, "a", 1)
	b := testutil.SeedCard(t, st, srcID, "b", 2)
	testutil.SeedCard(t, st, dstID, "x", 1)
	testutil.SeedCard(t, st, dstID, "y", 2)
	testutil.SeedCard(t, st, dstID, "z", 3)

	const ghost = int64(9999)
	moved, err := svc.BulkMove(context.Background(), []int64{a, ghost, b}, dstID)
	if err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}

	if len(moved) != 2 || moved[0] != a || moved[1] != b {
		t.Errorf("moved = %v, want [%d %d]", moved, a, b)
	}

	dst := testutil.CardPositions(t, st, dstID)
	if dst[a] != 4 || dst[b] != 5 {
		t.Errorf("appended at (%d, %d), want (4, 5)", dst[a], dst[b])
	}

	if src := testutil.CardPositions(t, st, srcID); len(src) != 0 {
		t.Errorf("source list still holds %v", src)
	}
}

func TestCardService_BulkMove_PreservesSuppliedOrder(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	srcID := testutil.SeedList(t, st, "Src", 1)
	dstID := testutil.SeedList(t, st, "Dst", 2)

	a := testutil.SeedCard(t, st, srcID, "a", 1)
	b := testutil.SeedCard(t, st, srcID, "b", 2)
	c := testutil.SeedCard(t, st, srcID, "c", 3)

	// Supplied order, not source order
	if _, err := svc.BulkMove(context.Background(), []int64{c, a, b}, dstID); err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}

	titles := testutil.CardTitlesInOrder(t, st, dstID)
	want := []string{"c", "a", "b"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("target order = %v, want %v", titles, want)
			break
		}
	}
}

func TestCardService_BulkMove_WithinSameList(t *testing.T) {
	st := testutil.TempStore(t)
	svc := NewCardService(st, 0)
	listID := testutil.SeedList(t, st, "Work", 1)

	a := testutil.SeedCard(t, st, listID, "a", 1)
	testutil.SeedCard(t, st, listID, "b", 2)
	testutil.SeedCard(t, st, listID, "c", 3)

	// Moving a onto the end of its own list keeps the sequence dense
	if _, err := svc.BulkMove(context.Background(), []int64{a}, listID); err != nil {
		t.Fatalf("BulkMove failed: %v", err)
	}

	titles := testutil.CardTitlesInOrder(t, st, listID)
	want := []string{"b", "c", "a"}
	for i := range want {
		if titles[i] != want[i] {
			t.Errorf("order = %v, want %v", titles, want)
			break
		}
	}
}
