package api

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
	"github.com/pegboard-io/pegboard/internal/tenant"
	"github.com/pegboard-io/pegboard/internal/util"
)

// AdminHandler serves the board lifecycle API: creating, listing, and
// archiving tenant stores. All routes are bearer-token protected; the whole
// surface is disabled when no token is configured.
type AdminHandler struct {
	registry *tenant.Registry
	token    string
}

// NewAdminHandler creates an admin handler. An empty token disables the
// admin API entirely.
func NewAdminHandler(registry *tenant.Registry, token string) *AdminHandler {
	return &AdminHandler{registry: registry, token: token}
}

// Enabled reports whether the admin API is active.
func (a *AdminHandler) Enabled() bool {
	return a.token != ""
}

// RegisterRoutes sets up the admin routes. No routes are registered when
// the admin API is disabled.
func (a *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	if !a.Enabled() {
		return
	}
	mux.HandleFunc("POST /admin/boards", a.auth(a.CreateBoard))
	mux.HandleFunc("GET /admin/boards", a.auth(a.ListBoards))
	mux.HandleFunc("GET /admin/boards/{uid}", a.GetBoard) // existence probe, no auth
	mux.HandleFunc("DELETE /admin/boards/{uid}", a.auth(a.ArchiveBoard))
}

// auth wraps a handler with a constant-time bearer token check.
func (a *AdminHandler) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
			Unauthorized(w, "invalid admin token")
			return
		}
		next(w, r)
	}
}

// accessURL is the board-scoped path prefix clients use for a tenant.
func accessURL(uid string) string {
	return tenant.BoardPathPrefix + uid + "/"
}

// CreateBoardRequest is the JSON body for creating a board. When board_uid
// is omitted, a uid is derived from name.
type CreateBoardRequest struct {
	BoardUID   string `json:"board_uid"`
	Name       string `json:"name,omitempty"`
	AdminEmail string `json:"admin_email,omitempty"`
}

// BoardInfo describes a tenant store in admin responses.
type BoardInfo struct {
	BoardUID     string `json:"board_uid"`
	DatabasePath string `json:"database_path"`
	AccessURL    string `json:"access_url,omitempty"`
}

// CreateBoard creates a new tenant store with a fully-applied schema.
func (a *AdminHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	uid := req.BoardUID
	if uid == "" && req.Name != "" {
		uid = util.Slug(req.Name, 50)
	}
	if err := tenant.ValidateID(uid); err != nil {
		Error(w, err)
		return
	}

	st, err := a.registry.Create(uid)
	if err != nil {
		Error(w, err)
		return
	}

	if req.AdminEmail != "" {
		if err := st.SetMeta("admin_email", req.AdminEmail); err != nil {
			Error(w, err)
			return
		}
	}

	JSON(w, http.StatusCreated, BoardInfo{
		BoardUID:     uid,
		DatabasePath: st.Path(),
		AccessURL:    accessURL(uid),
	})
}

// ListBoards returns every tenant store, excluding the default one.
func (a *AdminHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	ids, err := a.registry.List()
	if err != nil {
		Error(w, err)
		return
	}

	boards := make([]BoardInfo, 0, len(ids))
	for _, id := range ids {
		boards = append(boards, BoardInfo{
			BoardUID:     id,
			DatabasePath: a.registry.StorePath(id),
			AccessURL:    accessURL(id),
		})
	}
	JSON(w, http.StatusOK, map[string]any{"boards": boards})
}

// GetBoard reports existence and path for one board uid.
func (a *AdminHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := tenant.ValidateID(uid); err != nil {
		Error(w, err)
		return
	}
	if !a.registry.Exists(uid) {
		JSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("board not found: %s", uid),
		})
		return
	}
	JSON(w, http.StatusOK, BoardInfo{
		BoardUID:     uid,
		DatabasePath: a.registry.StorePath(uid),
		AccessURL:    accessURL(uid),
	})
}

// ArchiveBoard moves a board's store file into the archive area. The
// default board is refused with 403; an unknown board is 404.
func (a *AdminHandler) ArchiveBoard(w http.ResponseWriter, r *http.Request) {
	uid := r.PathValue("uid")
	if err := tenant.ValidateID(uid); err != nil {
		Error(w, err)
		return
	}
	if uid == tenant.DefaultID {
		Forbidden(w, "the default board cannot be archived")
		return
	}
	if !a.registry.Exists(uid) {
		JSON(w, http.StatusNotFound, map[string]string{
			"error": fmt.Sprintf("board not found: %s", uid),
		})
		return
	}

	archived, err := a.registry.Archive(uid)
	if err != nil {
		if pberr.IsNotFound(err) {
			JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		Error(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"board_uid":     uid,
		"archived_path": archived,
	})
}
