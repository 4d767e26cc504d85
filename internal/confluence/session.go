package confluence

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// Session binds a Client to one resolved space. It carries every piece of
// state the page operations need, so nothing is kept at package level.
// A Session is not safe for concurrent use.
type Session struct {
	client    *Client
	spaceKey  string
	spaceID   string
	accountID string
	lookups   *lru.Cache[string, string]
}

var _ interfaces.PageDirectory = (*Session)(nil)

type spaceList struct {
	Results []struct {
		ID  string `json:"id"`
		Key string `json:"key"`
	} `json:"results"`
}

// OpenSpace resolves key to its numeric id and returns a session for it.
func (c *Client) OpenSpace(ctx context.Context, key string) (*Session, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSpaceNotFound
	}

	var spaces spaceList
	err := c.do(ctx, Request{
		Operation: "space.lookup",
		Method:    "GET",
		Path:      "wiki/api/v2/spaces",
		Query:     url.Values{"keys": []string{key}},
	}, &spaces)
	if err != nil {
		return nil, err
	}
	if len(spaces.Results) == 0 || spaces.Results[0].ID == "" {
		return nil, goerrors.Wrap(fmt.Errorf("%w: %s", ErrSpaceNotFound, key), goerrors.CategoryNotFound, "confluence space not found").
			WithTextCode(codeSpaceNotFound)
	}

	cache, err := lru.New[string, string](c.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("confluence: lookup cache: %w", err)
	}

	c.logger.Info("confluence.space.resolved", "space_key", key, "space_id", spaces.Results[0].ID)
	return &Session{
		client:   c,
		spaceKey: key,
		spaceID:  spaces.Results[0].ID,
		lookups:  cache,
	}, nil
}

// SpaceKey returns the key the session was opened with.
func (s *Session) SpaceKey() string { return s.spaceKey }

// SpaceID returns the resolved numeric space id.
func (s *Session) SpaceID() string { return s.spaceID }

func lookupKey(title, parentID string) string {
	return parentID + "\x00" + title
}
