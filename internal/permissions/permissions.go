// Package permissions turns a document permission tier into the concrete
// page restriction plan applied on the wiki.
package permissions

import (
	"errors"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// Action is a page operation a restriction can cover.
type Action string

const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
)

var (
	// ErrAccountRequired is returned when a restricted plan has no grantee.
	ErrAccountRequired = errors.New("permissions: authenticated account id is required")
	// ErrUnknownTier is returned for tiers outside the fixed set.
	ErrUnknownTier = errors.New("permissions: unknown tier")
)

// Plan lists the principals granted each operation. Anyone not listed loses
// access, so a plan always replaces the page's existing restrictions.
type Plan struct {
	Tier       interfaces.PermissionTier
	Operations []Action
	AccountIDs []string
	Groups     []string
}

// Empty reports whether the plan grants nothing (no restriction to apply).
func (p Plan) Empty() bool {
	return len(p.Operations) == 0 || (len(p.AccountIDs) == 0 && len(p.Groups) == 0)
}

// Grantee carries the identities a plan may reference.
type Grantee struct {
	// AccountID is the authenticated account, used by the restricted tier.
	AccountID string
	// Group is the tier group, used by the internal tier.
	Group string
}

// NeedsAccount reports whether resolving tier requires the authenticated
// account id, letting callers skip the lookup otherwise.
func NeedsAccount(tier interfaces.PermissionTier) bool {
	return tier == interfaces.TierRestricted
}

// Applies reports whether tier changes anything beyond the space default.
func Applies(tier interfaces.PermissionTier, group string) bool {
	switch tier {
	case interfaces.TierRestricted:
		return true
	case interfaces.TierInternal:
		return strings.TrimSpace(group) != ""
	default:
		return false
	}
}

// Resolve builds the plan for tier. Public and none resolve to an empty plan
// (space default); internal without a group does too.
func Resolve(tier interfaces.PermissionTier, grantee Grantee) (Plan, error) {
	plan := Plan{Tier: tier}
	switch tier {
	case interfaces.TierNone, interfaces.TierPublic:
		return plan, nil
	case interfaces.TierInternal:
		group := strings.TrimSpace(grantee.Group)
		if group == "" {
			return plan, nil
		}
		plan.Operations = []Action{ActionRead, ActionUpdate}
		plan.Groups = []string{group}
		return plan, nil
	case interfaces.TierRestricted:
		account := strings.TrimSpace(grantee.AccountID)
		if account == "" {
			return plan, ErrAccountRequired
		}
		plan.Operations = []Action{ActionRead, ActionUpdate}
		plan.AccountIDs = []string{account}
		return plan, nil
	default:
		return plan, Error{Tier: tier}
	}
}

// Error reports an unsupported tier.
type Error struct {
	Tier interfaces.PermissionTier
}

func (e Error) Error() string {
	if strings.TrimSpace(string(e.Tier)) == "" {
		return ErrUnknownTier.Error()
	}
	return ErrUnknownTier.Error() + ": " + string(e.Tier)
}

func (e Error) Unwrap() error {
	return ErrUnknownTier
}
