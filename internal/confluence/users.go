package confluence

import (
	"context"
	"strings"
)

type currentUser struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// CurrentAccountID returns the account id of the authenticated user. The
// first successful lookup is kept for the rest of the session.
func (s *Session) CurrentAccountID(ctx context.Context) (string, error) {
	if s.accountID != "" {
		return s.accountID, nil
	}
	var user currentUser
	err := s.client.do(ctx, Request{
		Operation: "user.current",
		Method:    "GET",
		Path:      "wiki/rest/api/user/current",
	}, &user)
	if err != nil {
		return "", err
	}
	account := strings.TrimSpace(user.AccountID)
	if account == "" {
		return "", ErrAccountUnavailable
	}
	s.accountID = account
	s.client.logger.Debug("confluence.account.resolved", "account_id", account, "display_name", user.DisplayName)
	return account, nil
}
