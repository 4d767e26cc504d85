package interfaces

import (
	"context"
	"errors"
)

var (
	// ErrPageNotFound reports that a page id no longer resolves on the remote wiki.
	ErrPageNotFound = errors.New("wiki: page not found")
	// ErrVersionConflict reports an update sent against a stale version number.
	ErrVersionConflict = errors.New("wiki: page version conflict")
)

// PermissionTier selects one of the fixed access levels a document page can carry.
type PermissionTier string

const (
	TierNone       PermissionTier = ""
	TierPublic     PermissionTier = "public"
	TierInternal   PermissionTier = "internal"
	TierRestricted PermissionTier = "restricted"
)

// String renders the tier label used in logs; the empty tier prints as "none".
func (t PermissionTier) String() string {
	if t == TierNone {
		return "none"
	}
	return string(t)
}

// Page is the slice of remote page state the sync workflow reads back.
type Page struct {
	ID       string
	Title    string
	ParentID string
	SpaceID  string
	Version  int
	Body     string
}

// PageCreateRequest describes a page to create under an optional parent.
type PageCreateRequest struct {
	Title    string
	ParentID string
	Body     string
}

// PageUpdateRequest replaces the title and body of an existing page. Version
// is the number read from the page; implementations send Version+1.
type PageUpdateRequest struct {
	ID      string
	Title   string
	Body    string
	Version int
}

// PageDirectory is the remote key-value view of the wiki the synchronizer
// depends on. Pages are keyed by (title, parent) inside the directory's space.
type PageDirectory interface {
	// Find returns the id of the page titled title directly under parentID,
	// or "" when no such page exists.
	Find(ctx context.Context, title, parentID string) (string, error)
	// Create looks the page up first and returns the existing id when present.
	Create(ctx context.Context, req PageCreateRequest) (string, error)
	// Get returns ErrPageNotFound when the id no longer exists.
	Get(ctx context.Context, id string) (*Page, error)
	// Update fails with ErrVersionConflict when req.Version is stale.
	Update(ctx context.Context, req PageUpdateRequest) (string, error)
	// Attach uploads the file at path as an attachment of the page.
	Attach(ctx context.Context, pageID, path string) error
	// SetPermission applies the tier to the page. Tiers that resolve to the
	// space default are no-ops.
	SetPermission(ctx context.Context, pageID string, tier PermissionTier, group string) error
}
