package confluence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/goliatone/go-wikisync/internal/identity"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/permissions"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// MemoryOperation names a MemoryDirectory method for failure injection.
type MemoryOperation string

const (
	MemoryFind          MemoryOperation = "find"
	MemoryCreate        MemoryOperation = "create"
	MemoryGet           MemoryOperation = "get"
	MemoryUpdate        MemoryOperation = "update"
	MemoryAttach        MemoryOperation = "attach"
	MemorySetPermission MemoryOperation = "set_permission"
)

// PermissionRecord is the plan a MemoryDirectory applied to a page.
type PermissionRecord struct {
	Tier interfaces.PermissionTier
	Plan permissions.Plan
}

// MemoryDirectory is an in-process PageDirectory with deterministic ids.
// It backs dry runs and tests.
type MemoryDirectory struct {
	mu          sync.Mutex
	space       string
	accountID   string
	pages       map[string]*interfaces.Page
	index       map[string]string
	order       []string
	attachments map[string][]string
	permissions map[string]PermissionRecord
	failures    map[MemoryOperation]map[string]error
	logger      interfaces.Logger
}

var _ interfaces.PageDirectory = (*MemoryDirectory)(nil)

// MemoryOption customises a MemoryDirectory.
type MemoryOption func(*MemoryDirectory)

// WithMemoryLogger sets the logger for recorded mutations.
func WithMemoryLogger(logger interfaces.Logger) MemoryOption {
	return func(m *MemoryDirectory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMemoryAccount sets the account id granted by the restricted tier.
func WithMemoryAccount(accountID string) MemoryOption {
	return func(m *MemoryDirectory) {
		m.accountID = accountID
	}
}

func NewMemoryDirectory(space string, opts ...MemoryOption) *MemoryDirectory {
	m := &MemoryDirectory{
		space:       space,
		accountID:   "dry-run-account",
		pages:       make(map[string]*interfaces.Page),
		index:       make(map[string]string),
		attachments: make(map[string][]string),
		permissions: make(map[string]PermissionRecord),
		failures:    make(map[MemoryOperation]map[string]error),
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FailOn makes op fail with err for key: the title for find and create, the
// page id for get, update and set_permission, the file base name for attach.
func (m *MemoryDirectory) FailOn(op MemoryOperation, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures[op] == nil {
		m.failures[op] = make(map[string]error)
	}
	m.failures[op][key] = err
}

func (m *MemoryDirectory) injected(op MemoryOperation, key string) error {
	return m.failures[op][key]
}

// Seed stores a page as if it already existed remotely.
func (m *MemoryDirectory) Seed(title, parentID, body string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(title, parentID, body)
}

// Register stores page under its own id, e.g. a configured root page.
func (m *MemoryDirectory) Register(page interfaces.Page) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page.Version <= 0 {
		page.Version = 1
	}
	if page.SpaceID == "" {
		page.SpaceID = identity.SpaceID(m.space)
	}
	if _, exists := m.pages[page.ID]; !exists {
		m.order = append(m.order, page.ID)
	}
	m.pages[page.ID] = &page
	m.index[lookupKey(page.Title, page.ParentID)] = page.ID
}

func (m *MemoryDirectory) insert(title, parentID, body string) string {
	id := identity.PageID(m.space, parentID, title)
	m.pages[id] = &interfaces.Page{
		ID:       id,
		Title:    title,
		ParentID: parentID,
		SpaceID:  identity.SpaceID(m.space),
		Version:  1,
		Body:     body,
	}
	m.index[lookupKey(title, parentID)] = id
	m.order = append(m.order, id)
	return id
}

func (m *MemoryDirectory) Find(_ context.Context, title, parentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(MemoryFind, title); err != nil {
		return "", err
	}
	return m.find(title, parentID), nil
}

func (m *MemoryDirectory) find(title, parentID string) string {
	if parentID != "" {
		return m.index[lookupKey(title, parentID)]
	}
	for _, id := range m.order {
		if m.pages[id].Title == title {
			return id
		}
	}
	return ""
}

func (m *MemoryDirectory) Create(_ context.Context, req interfaces.PageCreateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(MemoryFind, req.Title); err != nil {
		return "", err
	}
	if id := m.find(req.Title, req.ParentID); id != "" {
		return id, nil
	}
	if err := m.injected(MemoryCreate, req.Title); err != nil {
		return "", err
	}
	if req.ParentID != "" {
		if _, ok := m.pages[req.ParentID]; !ok {
			return "", fmt.Errorf("memory: parent %s: %w", req.ParentID, interfaces.ErrPageNotFound)
		}
	}
	id := m.insert(req.Title, req.ParentID, req.Body)
	m.logger.Info("confluence.memory.page.created", "title", req.Title, "page_id", id, "parent_id", req.ParentID)
	return id, nil
}

func (m *MemoryDirectory) Get(_ context.Context, id string) (*interfaces.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(MemoryGet, id); err != nil {
		return nil, err
	}
	page, ok := m.pages[id]
	if !ok {
		return nil, interfaces.ErrPageNotFound
	}
	clone := *page
	return &clone, nil
}

func (m *MemoryDirectory) Update(_ context.Context, req interfaces.PageUpdateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(MemoryUpdate, req.ID); err != nil {
		return "", err
	}
	page, ok := m.pages[req.ID]
	if !ok {
		return "", interfaces.ErrPageNotFound
	}
	if req.Version != page.Version {
		return "", fmt.Errorf("memory: page %s at version %d, update based on %d: %w", req.ID, page.Version, req.Version, interfaces.ErrVersionConflict)
	}
	if req.Title != page.Title {
		delete(m.index, lookupKey(page.Title, page.ParentID))
		m.index[lookupKey(req.Title, page.ParentID)] = page.ID
	}
	page.Title = req.Title
	page.Body = req.Body
	page.Version++
	m.logger.Info("confluence.memory.page.updated", "title", page.Title, "page_id", page.ID, "version", page.Version)
	return page.ID, nil
}

func (m *MemoryDirectory) Attach(_ context.Context, pageID, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := filepath.Base(path)
	if err := m.injected(MemoryAttach, name); err != nil {
		return err
	}
	if _, ok := m.pages[pageID]; !ok {
		return interfaces.ErrPageNotFound
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("memory: attachment %s: %w", path, err)
	}
	if !slices.Contains(m.attachments[pageID], name) {
		m.attachments[pageID] = append(m.attachments[pageID], name)
	}
	m.logger.Info("confluence.memory.attachment.uploaded", "page_id", pageID, "file", name, "attachment_id", identity.AttachmentID(pageID, name))
	return nil
}

func (m *MemoryDirectory) SetPermission(_ context.Context, pageID string, tier interfaces.PermissionTier, group string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.injected(MemorySetPermission, pageID); err != nil {
		return err
	}
	if !permissions.Applies(tier, group) {
		return nil
	}
	if _, ok := m.pages[pageID]; !ok {
		return interfaces.ErrPageNotFound
	}
	plan, err := permissions.Resolve(tier, permissions.Grantee{AccountID: m.accountID, Group: group})
	if err != nil {
		return err
	}
	m.permissions[pageID] = PermissionRecord{Tier: tier, Plan: plan}
	m.logger.Info("confluence.memory.restriction.applied", "page_id", pageID, "tier", tier.String())
	return nil
}

// Pages returns copies of every page in creation order.
func (m *MemoryDirectory) Pages() []interfaces.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]interfaces.Page, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.pages[id])
	}
	return out
}

// Lookup returns the page titled title under parentID.
func (m *MemoryDirectory) Lookup(title, parentID string) (interfaces.Page, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.index[lookupKey(title, parentID)]
	if !ok {
		return interfaces.Page{}, false
	}
	return *m.pages[id], true
}

// Attachments lists the file names attached to a page.
func (m *MemoryDirectory) Attachments(pageID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.attachments[pageID]...)
}

// Permission returns the restriction applied to a page, if any.
func (m *MemoryDirectory) Permission(pageID string) (PermissionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.permissions[pageID]
	return record, ok
}
