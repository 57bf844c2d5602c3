package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pegboard-io/pegboard/internal/config"
	"github.com/pegboard-io/pegboard/internal/service"
	"github.com/pegboard-io/pegboard/internal/store"
	"github.com/pegboard-io/pegboard/internal/tenant"
)

// Handler contains the board-scoped HTTP handlers. Every request resolves
// its store handle through the registry using the tenant id on the request
// context; no tenant means the default store.
type Handler struct {
	registry *tenant.Registry
	limits   config.Limits
	hub      *WebSocketHub // nil when live updates are disabled
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(registry *tenant.Registry, limits config.Limits) *Handler {
	return &Handler{registry: registry, limits: limits}
}

// SetHub attaches the WebSocket hub that receives change events.
func (h *Handler) SetHub(hub *WebSocketHub) {
	h.hub = hub
}

// RegisterRoutes sets up all board-scoped API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Board snapshot
	mux.HandleFunc("GET /api/v1/board", h.GetBoard)

	// List routes
	mux.HandleFunc("GET /api/v1/lists", h.ListLists)
	mux.HandleFunc("POST /api/v1/lists", h.CreateList)
	mux.HandleFunc("GET /api/v1/lists/{id}", h.GetList)
	mux.HandleFunc("PATCH /api/v1/lists/{id}", h.UpdateList)
	mux.HandleFunc("DELETE /api/v1/lists/{id}", h.DeleteList)
	mux.HandleFunc("PUT /api/v1/lists/order", h.ReorderLists)
	mux.HandleFunc("GET /api/v1/lists/{id}/cards", h.ListCards)

	// Card routes
	mux.HandleFunc("POST /api/v1/cards", h.CreateCard)
	mux.HandleFunc("GET /api/v1/cards/{id}", h.GetCard)
	mux.HandleFunc("PATCH /api/v1/cards/{id}", h.UpdateCard)
	mux.HandleFunc("DELETE /api/v1/cards/{id}", h.DeleteCard)
	mux.HandleFunc("PATCH /api/v1/cards/{id}/move", h.MoveCard)
	mux.HandleFunc("POST /api/v1/cards/bulk-move", h.BulkMoveCards)
}

// boardID returns the tenant id for a request, or the reserved default id.
func boardID(r *http.Request) string {
	if id, ok := tenant.IDFromContext(r.Context()); ok {
		return id
	}
	return tenant.DefaultID
}

// services resolves the request's store handle and builds the service pair
// over it. Handles are cached by the registry; construction here is cheap.
func (h *Handler) services(r *http.Request) (*service.BoardService, *service.CardService, error) {
	var st *store.Store
	var err error
	if id, ok := tenant.IDFromContext(r.Context()); ok {
		st, err = h.registry.Handle(id)
	} else {
		st, err = h.registry.Default()
	}
	if err != nil {
		return nil, nil, err
	}
	return service.NewBoardService(st, h.limits.MaxLists),
		service.NewCardService(st, h.limits.MaxCardsPerList), nil
}

// publish sends a change event to connected WebSocket clients.
func (h *Handler) publish(r *http.Request, kind, action string, id int64) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(ChangeEvent{
		Board:  boardID(r),
		Kind:   kind,
		Action: action,
		ID:     id,
	})
}

// pathID parses the {id} path segment as an int64.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// --- Board handlers ---

// GetBoard returns every list with its cards, in position order.
func (h *Handler) GetBoard(w http.ResponseWriter, r *http.Request) {
	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	snapshot, err := boards.Snapshot(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"board": boardID(r),
		"lists": snapshot,
	})
}

// --- List handlers ---

// ListLists returns all lists in position order.
func (h *Handler) ListLists(w http.ResponseWriter, r *http.Request) {
	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	lists, err := boards.Lists(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// GetList returns one list.
func (h *Handler) GetList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid list id")
		return
	}
	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	list, err := boards.Get(r.Context(), id)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, list)
}

// CreateListRequest is the JSON body for creating a list.
type CreateListRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position,omitempty"`
}

// CreateList creates a new list. A colliding position inserts, shifting the
// rest of the board up.
func (h *Handler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	list, err := boards.Add(r.Context(), service.AddListInput{
		Title:    req.Title,
		Position: req.Position,
	})
	if err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "list", "created", list.ID)
	JSON(w, http.StatusCreated, list)
}

// UpdateListRequest is the JSON body for updating a list. Absent fields are
// left unchanged.
type UpdateListRequest struct {
	Title *string `json:"title,omitempty"`
}

// UpdateList renames a list.
func (h *Handler) UpdateList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid list id")
		return
	}
	var req UpdateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	list, err := boards.Edit(r.Context(), service.EditListInput{
		ListID: id,
		Title:  req.Title,
	})
	if err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "list", "updated", list.ID)
	JSON(w, http.StatusOK, list)
}

// DeleteList deletes a list, moving its cards to the list named by the
// required ?target query parameter.
func (h *Handler) DeleteList(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid list id")
		return
	}
	target, err := strconv.ParseInt(r.URL.Query().Get("target"), 10, 64)
	if err != nil {
		BadRequest(w, "target query parameter is required")
		return
	}

	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	if err := boards.Delete(r.Context(), id, target); err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "list", "deleted", id)
	JSON(w, http.StatusOK, map[string]any{"deleted": id, "target": target})
}

// ReorderListsRequest is the JSON body for reordering lists: a complete
// list-id → position map, keyed by decimal list id.
type ReorderListsRequest struct {
	Order map[string]int `json:"order"`
}

// ReorderLists applies a full position assignment to the board's lists.
func (h *Handler) ReorderLists(w http.ResponseWriter, r *http.Request) {
	var req ReorderListsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	order := make(map[int64]int, len(req.Order))
	for raw, pos := range req.Order {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			BadRequest(w, "invalid list id: "+raw)
			return
		}
		order[id] = pos
	}

	boards, _, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	if err := boards.Reorder(r.Context(), order); err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "board", "reordered", 0)
	lists, err := boards.Lists(r.Context())
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"lists": lists})
}

// --- Card handlers ---

// ListCards returns the cards of one list in position order.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid list id")
		return
	}
	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	result, err := cards.List(r.Context(), id)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"cards": result})
}

// CreateCardRequest is the JSON body for creating a card. list_id may be -1
// to route to the frontmost list.
type CreateCardRequest struct {
	ListID      int64  `json:"list_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Position    *int   `json:"position,omitempty"`
}

// CreateCard creates a new card.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.ListID == 0 {
		BadRequest(w, "list_id is required")
		return
	}

	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	card, err := cards.Add(r.Context(), service.AddCardInput{
		ListID:      req.ListID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
	})
	if err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "card", "created", card.ID)
	JSON(w, http.StatusCreated, card)
}

// GetCard returns one card.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid card id")
		return
	}
	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	card, err := cards.Get(r.Context(), id)
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, card)
}

// UpdateCardRequest is the JSON body for updating a card. Absent fields are
// left unchanged; placement is changed via the move endpoint only.
type UpdateCardRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UpdateCard edits a card's text fields.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid card id")
		return
	}
	var req UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	card, err := cards.Edit(r.Context(), service.EditCardInput{
		CardID:      id,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "card", "updated", card.ID)
	JSON(w, http.StatusOK, card)
}

// MoveCardRequest is the JSON body for moving a card. list_id may be -1 to
// route to the frontmost list; a nil position appends.
type MoveCardRequest struct {
	ListID   int64 `json:"list_id"`
	Position *int  `json:"position,omitempty"`
}

// MoveCard moves a card within or across lists.
func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid card id")
		return
	}
	var req MoveCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.ListID == 0 {
		BadRequest(w, "list_id is required")
		return
	}

	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	card, err := cards.Move(r.Context(), id, req.ListID, req.Position)
	if err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "card", "moved", card.ID)
	JSON(w, http.StatusOK, card)
}

// BulkMoveRequest is the JSON body for bulk-moving cards onto one target
// list. Ids that don't resolve are skipped, not errors.
type BulkMoveRequest struct {
	CardIDs []int64 `json:"card_ids"`
	ListID  int64   `json:"list_id"`
}

// BulkMoveCards appends the given cards onto the target list in the order
// supplied.
func (h *Handler) BulkMoveCards(w http.ResponseWriter, r *http.Request) {
	var req BulkMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.ListID == 0 {
		BadRequest(w, "list_id is required")
		return
	}
	if len(req.CardIDs) == 0 {
		BadRequest(w, "card_ids is required")
		return
	}

	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	moved, err := cards.BulkMove(r.Context(), req.CardIDs, req.ListID)
	if err != nil {
		Error(w, err)
		return
	}

	for _, cid := range moved {
		h.publish(r, "card", "moved", cid)
	}
	JSON(w, http.StatusOK, map[string]any{"moved": moved})
}

// DeleteCard deletes a card.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		BadRequest(w, "invalid card id")
		return
	}
	_, cards, err := h.services(r)
	if err != nil {
		Error(w, err)
		return
	}
	if err := cards.Delete(r.Context(), id); err != nil {
		Error(w, err)
		return
	}

	h.publish(r, "card", "deleted", id)
	JSON(w, http.StatusOK, map[string]any{"deleted": id})
}
