package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// --- Mock implementations of driven ports ---

type mockCredentialStore struct {
	creds       map[int64]model.Credential
	nextID      int64
	created     []model.NewCredential
	touched     []int64
	listErr     error
	touchErr    error
	lastFilter  model.CredentialFilter
	deactivated []int64
}

func newMockCredentialStore(creds ...model.Credential) *mockCredentialStore {
	m := &mockCredentialStore{creds: make(map[int64]model.Credential), nextID: 100}
	for _, c := range creds {
		m.creds[c.ID] = c
	}
	return m
}

func (m *mockCredentialStore) Create(_ context.Context, in model.NewCredential) (model.Credential, error) {
	m.created = append(m.created, in)
	m.nextID++
	c := model.Credential{
		ID: m.nextID, ClientID: in.ClientID, PlatformID: in.PlatformID, AccountName: in.AccountName,
		Username: in.Username, Password: in.Password, CreatedBy: in.CreatedBy, IsActive: true, Fields: in.Fields,
	}
	m.creds[c.ID] = c
	return c, nil
}

func (m *mockCredentialStore) GetByID(_ context.Context, id int64) (model.Credential, error) {
	c, ok := m.creds[id]
	if !ok {
		return model.Credential{}, driven.ErrCredentialNotFound
	}
	return c, nil
}

func (m *mockCredentialStore) List(_ context.Context, filter model.CredentialFilter) ([]model.Credential, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]model.Credential, 0, len(m.creds))
	for _, c := range m.creds {
		if filter.ClientID != 0 && c.ClientID != filter.ClientID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCredentialStore) Update(_ context.Context, id int64, upd model.CredentialUpdate) (model.Credential, error) {
	c, ok := m.creds[id]
	if !ok {
		return model.Credential{}, driven.ErrCredentialNotFound
	}
	if upd.Password != nil {
		c.Password = *upd.Password
	}
	if len(upd.Fields) > 0 {
		c.Fields = upd.Fields
	}
	m.creds[id] = c
	return c, nil
}

func (m *mockCredentialStore) Deactivate(_ context.Context, id int64) error {
	c, ok := m.creds[id]
	if !ok {
		return driven.ErrCredentialNotFound
	}
	c.IsActive = false
	m.creds[id] = c
	m.deactivated = append(m.deactivated, id)
	return nil
}

func (m *mockCredentialStore) TouchLastUsed(_ context.Context, id int64, _ time.Time) error {
	m.touched = append(m.touched, id)
	return m.touchErr
}

type mockDirectoryStore struct {
	clients    map[int64]model.Client
	platforms  map[int64]model.Platform
	categories map[int64]model.PlatformCategory
	inUse      map[int64]bool
	lookups    int
}

func newMockDirectoryStore() *mockDirectoryStore {
	return &mockDirectoryStore{
		clients:    map[int64]model.Client{1: {ID: 1, Name: "Acme", IsActive: true}},
		platforms:  map[int64]model.Platform{2: {ID: 2, Name: "GitHub"}},
		categories: map[int64]model.PlatformCategory{3: {ID: 3, Name: "vcs"}},
		inUse:      make(map[int64]bool),
	}
}

func (m *mockDirectoryStore) AddClient(_ context.Context, c model.Client) (model.Client, error) {
	c.ID = int64(len(m.clients) + 10)
	c.IsActive = true
	m.clients[c.ID] = c
	return c, nil
}

func (m *mockDirectoryStore) GetClient(_ context.Context, id int64) (model.Client, error) {
	m.lookups++
	c, ok := m.clients[id]
	if !ok {
		return model.Client{}, driven.ErrClientNotFound
	}
	return c, nil
}

func (m *mockDirectoryStore) ListClients(_ context.Context) ([]model.Client, error) {
	return nil, nil
}

func (m *mockDirectoryStore) UpdateClient(_ context.Context, id int64, upd model.ClientUpdate) (model.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return model.Client{}, driven.ErrClientNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Email != nil {
		c.Email = *upd.Email
	}
	if upd.IsActive != nil {
		c.IsActive = *upd.IsActive
	}
	m.clients[id] = c
	return c, nil
}

func (m *mockDirectoryStore) AddCategory(_ context.Context, c model.PlatformCategory) (model.PlatformCategory, error) {
	c.ID = int64(len(m.categories) + 10)
	m.categories[c.ID] = c
	return c, nil
}

func (m *mockDirectoryStore) GetCategory(_ context.Context, id int64) (model.PlatformCategory, error) {
	c, ok := m.categories[id]
	if !ok {
		return model.PlatformCategory{}, driven.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockDirectoryStore) ListCategories(_ context.Context) ([]model.PlatformCategory, error) {
	return nil, nil
}

func (m *mockDirectoryStore) AddPlatform(_ context.Context, p model.Platform) (model.Platform, error) {
	p.ID = int64(len(m.platforms) + 10)
	m.platforms[p.ID] = p
	return p, nil
}

func (m *mockDirectoryStore) GetPlatform(_ context.Context, id int64) (model.Platform, error) {
	m.lookups++
	p, ok := m.platforms[id]
	if !ok {
		return model.Platform{}, driven.ErrPlatformNotFound
	}
	return p, nil
}

func (m *mockDirectoryStore) ListPlatforms(_ context.Context) ([]model.Platform, error) {
	return nil, nil
}

func (m *mockDirectoryStore) UpdatePlatform(_ context.Context, id int64, upd model.PlatformUpdate) (model.Platform, error) {
	p, ok := m.platforms[id]
	if !ok {
		return model.Platform{}, driven.ErrPlatformNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.CategoryID != nil {
		p.CategoryID = *upd.CategoryID
	} else if upd.ClearCategory {
		p.CategoryID = 0
	}
	m.platforms[id] = p
	return p, nil
}

func (m *mockDirectoryStore) DeletePlatform(_ context.Context, id int64) error {
	if _, ok := m.platforms[id]; !ok {
		return driven.ErrPlatformNotFound
	}
	if m.inUse[id] {
		return driven.ErrPlatformInUse
	}
	delete(m.platforms, id)
	return nil
}

type mockAuditStore struct {
	mu         sync.Mutex
	entries    []model.AuditEntry
	exportLogs []model.ExportLog
	lastFilter model.AuditFilter
	err        error
}

func (m *mockAuditStore) AppendEntry(_ context.Context, e model.AuditEntry) (model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.AuditEntry{}, m.err
	}
	e.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *mockAuditStore) AppendExportLog(_ context.Context, l model.ExportLog) (model.ExportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return model.ExportLog{}, m.err
	}
	l.ID = int64(len(m.exportLogs) + 1)
	m.exportLogs = append(m.exportLogs, l)
	return l, nil
}

func (m *mockAuditStore) ListEntries(_ context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	return m.entries, nil
}

func (m *mockAuditStore) GetExportLog(_ context.Context, fileName string) (model.ExportLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.exportLogs) - 1; i >= 0; i-- {
		if m.exportLogs[i].FileName == fileName {
			return m.exportLogs[i], nil
		}
	}
	return model.ExportLog{}, driven.ErrExportLogNotFound
}

func (m *mockAuditStore) ListExportLogs(_ context.Context, limit, offset int) ([]model.ExportLog, int, error) {
	if offset >= len(m.exportLogs) {
		return nil, len(m.exportLogs), nil
	}
	end := min(offset+limit, len(m.exportLogs))
	return m.exportLogs[offset:end], len(m.exportLogs), nil
}

type mockRenderer struct {
	workbooks []model.Workbook
	passwords []string
	err       error
}

func (m *mockRenderer) Render(wb model.Workbook, password string) (model.RenderedWorkbook, error) {
	if m.err != nil {
		return model.RenderedWorkbook{}, m.err
	}
	m.workbooks = append(m.workbooks, wb)
	m.passwords = append(m.passwords, password)
	names := make([]string, len(wb.Sheets))
	for i, s := range wb.Sheets {
		names[i] = s.Title
	}
	return model.RenderedWorkbook{Content: []byte("xlsx"), Sheets: names}, nil
}

type mockArtifactStore struct {
	staged map[string][]byte
	err    error
}

func newMockArtifactStore() *mockArtifactStore {
	return &mockArtifactStore{staged: make(map[string][]byte)}
}

func (m *mockArtifactStore) Stage(_ context.Context, filename string, content []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.staged[filename] = content
	return "/staging/" + filename, nil
}

func (m *mockArtifactStore) Open(filename string) (io.ReadSeekCloser, int64, error) {
	content, ok := m.staged[filename]
	if !ok {
		return nil, 0, driven.ErrArtifactNotFound
	}
	return nopSeekCloser{bytes.NewReader(content)}, int64(len(content)), nil
}

func (m *mockArtifactStore) Remove(filename string) error {
	delete(m.staged, filename)
	return nil
}

type nopSeekCloser struct{ io.ReadSeeker }

func (nopSeekCloser) Close() error { return nil }

type mockPurger struct {
	scheduled []string
}

func (m *mockPurger) SchedulePurge(filename string) {
	m.scheduled = append(m.scheduled, filename)
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveExport(_, outcome string, _ int) {
	r.outcomes = append(r.outcomes, outcome)
}

// --- Helper functions ---

var errStoreDown = errors.New("store unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testOrigin() model.Origin {
	return model.Origin{
		Actor:     model.Actor{ID: 7, DisplayName: "auditor"},
		IPAddress: "10.1.2.3",
		UserAgent: "test-agent",
	}
}

func strPtr(s string) *string { return &s }

func idPtr(v int64) *int64 { return &v }
