package store

import (
	"database/sql"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
)

// Card is a row in the cards table. Position is 1-based and dense within
// the card's list.
type Card struct {
	ID              int64  `json:"id"`
	ListID          int64  `json:"list_id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Position        int    `json:"position"`
	CreatedAtMillis int64  `json:"created_at_millis"`
	UpdatedAtMillis int64  `json:"updated_at_millis"`
}

const cardColumns = `id, list_id, title, description, position, created_at_millis, updated_at_millis`

func scanCard(row interface{ Scan(...any) error }) (*Card, error) {
	var c Card
	err := row.Scan(&c.ID, &c.ListID, &c.Title, &c.Description, &c.Position,
		&c.CreatedAtMillis, &c.UpdatedAtMillis)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CardsInList returns all cards in a list ordered by position.
func CardsInList(tx *sql.Tx, listID int64) ([]*Card, error) {
	rows, err := tx.Query(
		`SELECT `+cardColumns+` FROM cards WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, pberr.Storage("query", err)
	}
	defer rows.Close()

	cards := []*Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, pberr.Storage("scan", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, pberr.Storage("query", err)
	}
	return cards, nil
}

// GetCard returns the card with the given id.
func GetCard(tx *sql.Tx, id int64) (*Card, error) {
	row := tx.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, pberr.CardNotFound(id)
	}
	if err != nil {
		return nil, pberr.Storage("query", err)
	}
	return c, nil
}

// CountCards returns the number of cards in a list.
func CountCards(tx *sql.Tx, listID int64) (int, error) {
	var n int
	err := tx.QueryRow(`SELECT COUNT(*) FROM cards WHERE list_id = ?`, listID).Scan(&n)
	if err != nil {
		return 0, pberr.Storage("query", err)
	}
	return n, nil
}

// MaxCardPosition returns the highest card position in a list, or 0 when
// the list is empty.
func MaxCardPosition(tx *sql.Tx, listID int64) (int, error) {
	var max int
	err := tx.QueryRow(
		`SELECT COALESCE(MAX(position), 0) FROM cards WHERE list_id = ?`, listID).Scan(&max)
	if err != nil {
		return 0, pberr.Storage("query", err)
	}
	return max, nil
}

// ShiftCardsUp shifts every card in the list at or above from up by one.
func ShiftCardsUp(tx *sql.Tx, listID int64, from int) error {
	_, err := tx.Exec(
		`UPDATE cards SET position = position + 1 WHERE list_id = ? AND position >= ?`,
		listID, from)
	if err != nil {
		return pberr.Storage("shift", err)
	}
	return nil
}

// ShiftCardsDown compacts the slot at position above: every card in the list
// past it shifts down by one.
func ShiftCardsDown(tx *sql.Tx, listID int64, above int) error {
	_, err := tx.Exec(
		`UPDATE cards SET position = position - 1 WHERE list_id = ? AND position > ?`,
		listID, above)
	if err != nil {
		return pberr.Storage("shift", err)
	}
	return nil
}

// ShiftCardsDownRange shifts cards with from < position <= to down by one.
// Used when a card moves toward the back of its own list.
func ShiftCardsDownRange(tx *sql.Tx, listID int64, from, to int) error {
	_, err := tx.Exec(
		`UPDATE cards SET position = position - 1 WHERE list_id = ? AND position > ? AND position <= ?`,
		listID, from, to)
	if err != nil {
		return pberr.Storage("shift", err)
	}
	return nil
}

// ShiftCardsUpRange shifts cards with from <= position < to up by one.
// Used when a card moves toward the front of its own list.
func ShiftCardsUpRange(tx *sql.Tx, listID int64, from, to int) error {
	_, err := tx.Exec(
		`UPDATE cards SET position = position + 1 WHERE list_id = ? AND position >= ? AND position < ?`,
		listID, from, to)
	if err != nil {
		return pberr.Storage("shift", err)
	}
	return nil
}

// InsertCard inserts a new card row and fills in its generated id.
func InsertCard(tx *sql.Tx, c *Card) error {
	res, err := tx.Exec(
		`INSERT INTO cards (list_id, title, description, position, created_at_millis, updated_at_millis)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ListID, c.Title, c.Description, c.Position, c.CreatedAtMillis, c.UpdatedAtMillis)
	if err != nil {
		return pberr.Storage("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pberr.Storage("insert", err)
	}
	c.ID = id
	return nil
}

// UpdateCardFields writes title and description for an existing card.
func UpdateCardFields(tx *sql.Tx, id int64, title, description string, nowMillis int64) error {
	res, err := tx.Exec(
		`UPDATE cards SET title = ?, description = ?, updated_at_millis = ? WHERE id = ?`,
		title, description, nowMillis, id)
	if err != nil {
		return pberr.Storage("update", err)
	}
	return requireRow(res, pberr.CardNotFound(id))
}

// PlaceCard assigns a card's list and position in one step.
func PlaceCard(tx *sql.Tx, id, listID int64, position int, nowMillis int64) error {
	res, err := tx.Exec(
		`UPDATE cards SET list_id = ?, position = ?, updated_at_millis = ? WHERE id = ?`,
		listID, position, nowMillis, id)
	if err != nil {
		return pberr.Storage("update", err)
	}
	return requireRow(res, pberr.CardNotFound(id))
}

// DeleteCard removes a card row.
func DeleteCard(tx *sql.Tx, id int64) error {
	res, err := tx.Exec(`DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return pberr.Storage("delete", err)
	}
	return requireRow(res, pberr.CardNotFound(id))
}

// ReassignCards moves every card from one list onto the end of another,
// preserving their relative order. Source positions are dense starting at 1,
// so offsetting by the target's max keeps the target dense too.
func ReassignCards(tx *sql.Tx, fromListID, toListID int64, nowMillis int64) error {
	base, err := MaxCardPosition(tx, toListID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`UPDATE cards SET list_id = ?, position = position + ?, updated_at_millis = ?
		 WHERE list_id = ?`,
		toListID, base, nowMillis, fromListID)
	if err != nil {
		return pberr.Storage("update", err)
	}
	return nil
}
