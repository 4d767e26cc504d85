package confluence

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/internal/permissions"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// RestrictionStrategy describes one way of writing page restrictions: a name
// for the logs and a builder turning a plan into the requests to send.
// A strategy succeeds only when every request it builds succeeds.
type RestrictionStrategy struct {
	Name  string
	Build func(pageID string, plan permissions.Plan) []Request
}

type restrictionUser struct {
	Type      string `json:"type"`
	AccountID string `json:"accountId"`
}

type restrictionGroup struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type restrictionSet struct {
	User  []restrictionUser  `json:"user"`
	Group []restrictionGroup `json:"group"`
}

type restrictionEntry struct {
	Operation    string         `json:"operation"`
	Restrictions restrictionSet `json:"restrictions"`
}

type experimentalRestrictions struct {
	Restrictions []restrictionEntry `json:"restrictions"`
}

// DefaultRestrictionStrategies returns the content restriction endpoint, the
// legacy per-operation endpoints and the experimental endpoint, in that order.
func DefaultRestrictionStrategies() []RestrictionStrategy {
	return []RestrictionStrategy{
		{Name: "content-restriction", Build: buildContentRestriction},
		{Name: "legacy-by-operation", Build: buildLegacyRestriction},
		{Name: "experimental-restriction", Build: buildExperimentalRestriction},
	}
}

func restrictionEntries(plan permissions.Plan) []restrictionEntry {
	entries := make([]restrictionEntry, 0, len(plan.Operations))
	for _, op := range plan.Operations {
		set := restrictionSet{
			User:  make([]restrictionUser, 0, len(plan.AccountIDs)),
			Group: make([]restrictionGroup, 0, len(plan.Groups)),
		}
		for _, account := range plan.AccountIDs {
			set.User = append(set.User, restrictionUser{Type: "known", AccountID: account})
		}
		for _, group := range plan.Groups {
			set.Group = append(set.Group, restrictionGroup{Type: "group", Name: group})
		}
		entries = append(entries, restrictionEntry{Operation: string(op), Restrictions: set})
	}
	return entries
}

func buildContentRestriction(pageID string, plan permissions.Plan) []Request {
	return []Request{{
		Operation: "restriction.content",
		Method:    "PUT",
		Path:      "wiki/rest/api/content/" + url.PathEscape(pageID) + "/restriction",
		Body:      restrictionEntries(plan),
	}}
}

func buildLegacyRestriction(pageID string, plan permissions.Plan) []Request {
	base := "wiki/rest/api/content/" + url.PathEscape(pageID) + "/restriction/byOperation/"
	var reqs []Request
	for _, op := range plan.Operations {
		for _, account := range plan.AccountIDs {
			reqs = append(reqs, Request{
				Operation: "restriction.legacy",
				Method:    "PUT",
				Path:      base + string(op) + "/user",
				Query:     url.Values{"accountId": []string{account}},
			})
		}
		for _, group := range plan.Groups {
			reqs = append(reqs, Request{
				Operation: "restriction.legacy",
				Method:    "PUT",
				Path:      base + string(op) + "/group/" + url.PathEscape(group),
			})
		}
	}
	return reqs
}

func buildExperimentalRestriction(pageID string, plan permissions.Plan) []Request {
	return []Request{{
		Operation: "restriction.experimental",
		Method:    "POST",
		Path:      "wiki/rest/experimental/content/" + url.PathEscape(pageID) + "/restriction",
		Body:      experimentalRestrictions{Restrictions: restrictionEntries(plan)},
	}}
}

// SetPermission applies tier to the page. Tiers resolving to the space
// default return nil without a request.
func (s *Session) SetPermission(ctx context.Context, pageID string, tier interfaces.PermissionTier, group string) error {
	if !permissions.Applies(tier, group) {
		return nil
	}

	grantee := permissions.Grantee{Group: group}
	if permissions.NeedsAccount(tier) {
		account, err := s.CurrentAccountID(ctx)
		if err != nil {
			return err
		}
		grantee.AccountID = account
	}

	plan, err := permissions.Resolve(tier, grantee)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "permission plan invalid").
			WithTextCode(codeRestrictionFails)
	}
	if plan.Empty() {
		return nil
	}
	return s.applyPlan(ctx, pageID, plan)
}

func (s *Session) applyPlan(ctx context.Context, pageID string, plan permissions.Plan) error {
	logger := s.client.logger.WithContext(ctx)
	var failures []error
	for _, strategy := range s.client.strategies {
		if err := s.runStrategy(ctx, strategy, pageID, plan); err != nil {
			logger.Warn("confluence.restriction.strategy_failed",
				"strategy", strategy.Name,
				"page_id", pageID,
				"status", StatusCode(err),
				"error", err,
			)
			failures = append(failures, fmt.Errorf("%s: %w", strategy.Name, err))
			continue
		}
		logger.Info("confluence.restriction.applied",
			"strategy", strategy.Name,
			"page_id", pageID,
			"tier", plan.Tier.String(),
		)
		return nil
	}
	return restrictionError(errors.Join(append([]error{ErrRestrictionFailed}, failures...)...))
}

// restrictionError keeps every strategy failure in the chain. goerrors.Wrap
// would collapse the joined errors into a clone of the first API error.
func restrictionError(joined error) error {
	err := goerrors.New("page restriction failed", goerrors.CategoryExternal).
		WithTextCode(codeRestrictionFails)
	err.Source = joined
	return err
}

func (s *Session) runStrategy(ctx context.Context, strategy RestrictionStrategy, pageID string, plan permissions.Plan) error {
	if strategy.Build == nil {
		return errors.New("strategy has no request builder")
	}
	reqs := strategy.Build(pageID, plan)
	if len(reqs) == 0 {
		return errors.New("strategy built no requests")
	}
	for _, req := range reqs {
		if err := s.client.do(ctx, req, nil); err != nil {
			return err
		}
	}
	return nil
}
