// Package tenant implements board routing: tenant id validation, request
// context propagation, and the process-wide registry of per-board store
// handles.
package tenant

import (
	"regexp"
	"strings"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
)

// DefaultID is the reserved tenant id for the pre-existing single-board
// store. Requests without a /board/ prefix route here. It cannot be archived.
const DefaultID = "default"

// BoardPathPrefix is the path prefix that selects a tenant store.
const BoardPathPrefix = "/board/"

// idPattern is the full set of legal tenant ids. Case-sensitive.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,50}$`)

// ValidateID checks a candidate tenant id against the id pattern.
func ValidateID(id string) error {
	if id == "" {
		return pberr.InvalidField("board_uid", "must not be empty")
	}
	if len(id) > 50 {
		return pberr.InvalidField("board_uid", "must be at most 50 characters")
	}
	if !idPattern.MatchString(id) {
		return pberr.InvalidField("board_uid", "must match [A-Za-z0-9-]{1,50}")
	}
	return nil
}

// IDFromPath extracts the tenant id from a request path of the form
// /board/{id}/rest. The second return value is the remainder of the path
// (always beginning with "/"), the third reports whether a valid id was
// found. A malformed id yields ok=false — the caller falls back to the
// default store rather than failing.
func IDFromPath(path string) (id, rest string, ok bool) {
	if !strings.HasPrefix(path, BoardPathPrefix) {
		return "", path, false
	}

	tail := path[len(BoardPathPrefix):]
	id, rest, _ = strings.Cut(tail, "/")
	rest = "/" + rest

	if ValidateID(id) != nil {
		return "", rest, false
	}
	return id, rest, true
}
