package store

import (
	"database/sql"
	"fmt"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
)

// List is a row in the lists table. Position is 1-based and dense within
// the board.
type List struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	CreatedAtMillis int64  `json:"created_at_millis"`
	UpdatedAtMillis int64  `json:"updated_at_millis"`
}

const listColumns = `id, title, position, created_at_millis, updated_at_millis`

func scanList(row interface{ Scan(...any) error }) (*List, error) {
	var l List
	err := row.Scan(&l.ID, &l.Title, &l.Position, &l.CreatedAtMillis, &l.UpdatedAtMillis)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListsByPosition returns all lists ordered by position.
func ListsByPosition(tx *sql.Tx) ([]*List, error) {
	rows, err := tx.Query(`SELECT ` + listColumns + ` FROM lists ORDER BY position`)
	if err != nil {
		return nil, pberr.Storage("query", err)
	}
	defer rows.Close()

	lists := []*List{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, pberr.Storage("scan", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, pberr.Storage("query", err)
	}
	return lists, nil
}

// GetList returns the list with the given id.
func GetList(tx *sql.Tx, id int64) (*List, error) {
	row := tx.QueryRow(`SELECT `+listColumns+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, pberr.ListNotFound(id)
	}
	if err != nil {
		return nil, pberr.Storage("query", err)
	}
	return l, nil
}

// LowestList returns the list with the numerically lowest position, or a
// ValidationError if the board has no lists. This backs sentinel routing.
func LowestList(tx *sql.Tx) (*List, error) {
	row := tx.QueryRow(`SELECT ` + listColumns + ` FROM lists ORDER BY position LIMIT 1`)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, pberr.InvalidField("list_id", "no valid list available")
	}
	if err != nil {
		return nil, pberr.Storage("query", err)
	}
	return l, nil
}

// CountLists returns the number of lists on the board.
func CountLists(tx *sql.Tx) (int, error) {
	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM lists`).Scan(&n); err != nil {
		return 0, pberr.Storage("query", err)
	}
	return n, nil
}

// MaxListPosition returns the highest list position, or 0 for an empty board.
func MaxListPosition(tx *sql.Tx) (int, error) {
	var max int
	err := tx.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM lists`).Scan(&max)
	if err != nil {
		return 0, pberr.Storage("query", err)
	}
	return max, nil
}

// ShiftListsUp shifts every list at or above from up by one, opening a slot.
func ShiftListsUp(tx *sql.Tx, from int) error {
	_, err := tx.Exec(`UPDATE lists SET position = position + 1 WHERE position >= ?`, from)
	if err != nil {
		return pberr.Storage("shift", err)
	}
	return nil
}

// ShiftListsDown compacts the slot left behind at position above: every list
// past it shifts down by one.
func ShiftListsDown(tx *sql.Tx, above int) error {
	_, err := tx.Exec(`UPDATE lists SET position = position - 1 WHERE position > ?`, above)
	if err != nil {
		return pberr.Storage("shift", err)
	}
	return nil
}

// InsertList inserts a new list row and fills in its generated id.
func InsertList(tx *sql.Tx, l *List) error {
	res, err := tx.Exec(
		`INSERT INTO lists (title, position, created_at_millis, updated_at_millis)
		 VALUES (?, ?, ?, ?)`,
		l.Title, l.Position, l.CreatedAtMillis, l.UpdatedAtMillis)
	if err != nil {
		return pberr.Storage("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pberr.Storage("insert", err)
	}
	l.ID = id
	return nil
}

// UpdateListTitle renames a list.
func UpdateListTitle(tx *sql.Tx, id int64, title string, nowMillis int64) error {
	res, err := tx.Exec(
		`UPDATE lists SET title = ?, updated_at_millis = ? WHERE id = ?`,
		title, nowMillis, id)
	if err != nil {
		return pberr.Storage("update", err)
	}
	return requireRow(res, pberr.ListNotFound(id))
}

// SetListPosition assigns a position directly. Used by the reorder operation,
// which replaces the whole assignment rather than shifting.
func SetListPosition(tx *sql.Tx, id int64, position int, nowMillis int64) error {
	res, err := tx.Exec(
		`UPDATE lists SET position = ?, updated_at_millis = ? WHERE id = ?`,
		position, nowMillis, id)
	if err != nil {
		return pberr.Storage("update", err)
	}
	return requireRow(res, pberr.ListNotFound(id))
}

// DeleteList removes a list row. Cards must have been reassigned first.
func DeleteList(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return pberr.Storage("delete", err)
	}
	return requireRow(res, pberr.ListNotFound(id))
}

// requireRow converts a zero-row result into the given not-found error.
func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return pberr.Storage("update", err)
	}
	if n == 0 {
		return notFound
	}
	if n > 1 {
		return pberr.Storage("update", fmt.Errorf("%d rows affected, want 1", n))
	}
	return nil
}
