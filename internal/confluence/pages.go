package confluence

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	representationStorage = "storage"
	statusCurrent         = "current"
	searchPageLimit       = 25
	maxSearchPages        = 20
)

type pageBody struct {
	Representation string `json:"representation"`
	Value          string `json:"value"`
}

type pageVersion struct {
	Number  int    `json:"number"`
	Message string `json:"message,omitempty"`
}

type createPagePayload struct {
	SpaceID  string   `json:"spaceId"`
	Status   string   `json:"status"`
	Title    string   `json:"title"`
	ParentID string   `json:"parentId,omitempty"`
	Body     pageBody `json:"body"`
}

type updatePagePayload struct {
	ID      string      `json:"id"`
	Status  string      `json:"status"`
	Title   string      `json:"title"`
	Body    pageBody    `json:"body"`
	Version pageVersion `json:"version"`
}

type pageResource struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	ParentID string      `json:"parentId"`
	SpaceID  string      `json:"spaceId"`
	Version  pageVersion `json:"version"`
	Body     struct {
		Storage pageBody `json:"storage"`
	} `json:"body"`
}

type pageList struct {
	Results []pageResource `json:"results"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

// Find searches the session space for a current page titled title. The
// search endpoint does not filter by parent, so results are filtered here;
// an empty parentID accepts the first match.
func (s *Session) Find(ctx context.Context, title, parentID string) (string, error) {
	key := lookupKey(title, parentID)
	if id, ok := s.lookups.Get(key); ok {
		return id, nil
	}

	req := Request{
		Operation: "page.find",
		Method:    "GET",
		Path:      "wiki/api/v2/pages",
		Query: url.Values{
			"title":    []string{title},
			"space-id": []string{s.spaceID},
			"status":   []string{statusCurrent},
			"limit":    []string{strconv.Itoa(searchPageLimit)},
		},
	}
	target := s.client.resolve(req.Path, req.Query)

	for range maxSearchPages {
		var list pageList
		if err := s.client.doURL(ctx, req, target, &list); err != nil {
			return "", err
		}
		for _, page := range list.Results {
			if page.Title != title {
				continue
			}
			if parentID != "" && page.ParentID != parentID {
				continue
			}
			s.lookups.Add(key, page.ID)
			return page.ID, nil
		}
		if list.Links.Next == "" {
			return "", nil
		}
		next, err := s.client.resolveLink(list.Links.Next)
		if err != nil {
			return "", err
		}
		target = next
	}
	return "", nil
}

// Create returns the id of the existing page titled req.Title under
// req.ParentID, or creates it. A failed lookup is returned without creating.
func (s *Session) Create(ctx context.Context, req interfaces.PageCreateRequest) (string, error) {
	existing, err := s.Find(ctx, req.Title, req.ParentID)
	if err != nil {
		return "", err
	}
	if existing != "" {
		s.client.logger.Debug("confluence.page.exists", "title", req.Title, "page_id", existing)
		return existing, nil
	}

	var created pageResource
	err = s.client.do(ctx, Request{
		Operation: "page.create",
		Method:    "POST",
		Path:      "wiki/api/v2/pages",
		Body: createPagePayload{
			SpaceID:  s.spaceID,
			Status:   statusCurrent,
			Title:    req.Title,
			ParentID: req.ParentID,
			Body:     pageBody{Representation: representationStorage, Value: req.Body},
		},
	}, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("confluence: create response carried no page id")
	}

	s.lookups.Add(lookupKey(req.Title, req.ParentID), created.ID)
	s.client.logger.Info("confluence.page.created", "title", req.Title, "page_id", created.ID, "parent_id", req.ParentID)
	return created.ID, nil
}

// Get reads a page with its storage body.
func (s *Session) Get(ctx context.Context, id string) (*interfaces.Page, error) {
	var page pageResource
	err := s.client.do(ctx, Request{
		Operation: "page.get",
		Method:    "GET",
		Path:      "wiki/api/v2/pages/" + url.PathEscape(id),
		Query:     url.Values{"body-format": []string{representationStorage}},
	}, &page)
	if err != nil {
		return nil, err
	}
	return &interfaces.Page{
		ID:       page.ID,
		Title:    page.Title,
		ParentID: page.ParentID,
		SpaceID:  page.SpaceID,
		Version:  page.Version.Number,
		Body:     page.Body.Storage.Value,
	}, nil
}

// Update replaces title and body, sending req.Version+1.
func (s *Session) Update(ctx context.Context, req interfaces.PageUpdateRequest) (string, error) {
	if strings.TrimSpace(req.ID) == "" {
		return "", interfaces.ErrPageNotFound
	}
	err := s.client.do(ctx, Request{
		Operation: "page.update",
		Method:    "PUT",
		Path:      "wiki/api/v2/pages/" + url.PathEscape(req.ID),
		Body: updatePagePayload{
			ID:      req.ID,
			Status:  statusCurrent,
			Title:   req.Title,
			Body:    pageBody{Representation: representationStorage, Value: req.Body},
			Version: pageVersion{Number: req.Version + 1},
		},
	}, nil)
	if err != nil {
		return "", err
	}
	s.client.logger.Debug("confluence.page.updated", "page_id", req.ID, "version", req.Version+1)
	return req.ID, nil
}
