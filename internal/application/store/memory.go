package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"barangaylink/internal/application/models"
	id "barangaylink/pkg/domain"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

// Memory is the in-memory ApplicationStore used by unit tests and local
// development. Behavior mirrors the postgres store, including the version
// compare-and-swap and the (type, reference_number) uniqueness rule.
type Memory struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.Application
}

func NewMemory() *Memory {
	return &Memory{apps: make(map[id.ApplicationID]*models.Application)}
}

func clone(a *models.Application) *models.Application {
	cp := *a
	if a.Payload != nil {
		cp.Payload = make(models.Payload, len(a.Payload))
		for k, v := range a.Payload {
			cp.Payload[k] = v
		}
	}
	if a.Attachments != nil {
		cp.Attachments = make(map[string]string, len(a.Attachments))
		for k, v := range a.Attachments {
			cp.Attachments[k] = v
		}
	}
	cloneTime := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		v := *t
		return &v
	}
	cp.ApprovedAt = cloneTime(a.ApprovedAt)
	cp.RejectedAt = cloneTime(a.RejectedAt)
	cp.ReleasedAt = cloneTime(a.ReleasedAt)
	cp.DispatchedAt = cloneTime(a.DispatchedAt)
	cp.ArrivedAt = cloneTime(a.ArrivedAt)
	cp.CompletedAt = cloneTime(a.CompletedAt)
	cp.CancelledAt = cloneTime(a.CancelledAt)
	cp.ExpiresAt = cloneTime(a.ExpiresAt)
	return &cp
}

func (m *Memory) Create(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.apps {
		if existing.Type == app.Type && existing.ReferenceNumber == app.ReferenceNumber {
			return sentinel.ErrConflict
		}
	}
	now := requestcontext.Now(ctx)
	app.CreatedAt = now
	app.UpdatedAt = now
	app.Version = 1
	m.apps[app.ID] = clone(app)
	return nil
}

func (m *Memory) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

func (m *Memory) FindByReference(ctx context.Context, t models.DocumentType, reference string) (*models.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.apps {
		if a.Type == t && a.ReferenceNumber == reference {
			return clone(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func matchesSearch(a *models.Application, needle string, fields []string) bool {
	if strings.Contains(strings.ToLower(a.ReferenceNumber), needle) {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(a.Payload.Field(f)), needle) {
			return true
		}
	}
	return false
}

func (m *Memory) List(ctx context.Context, f ListFilter) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(f.Search))
	var matched []*models.Application
	for _, a := range m.apps {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if !f.OwnerID.IsNil() && a.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if needle != "" && !matchesSearch(a, needle, f.SearchFields) {
			continue
		}
		matched = append(matched, a)
	}

	// Newest submissions first, id as tie-breaker for stable paging.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	page, perPage := normalizePaging(f.Page, f.PerPage)
	total := len(matched)
	lastPage := (total + perPage - 1) / perPage
	if lastPage == 0 {
		lastPage = 1
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	items := make([]models.Application, 0, end-start)
	for _, a := range matched[start:end] {
		items = append(items, *clone(a))
	}
	return Page{Items: items, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}

func (m *Memory) Update(ctx context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.apps[app.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Version != app.Version {
		return sentinel.ErrConflict
	}
	app.Version++
	app.UpdatedAt = requestcontext.Now(ctx)
	app.CreatedAt = existing.CreatedAt
	m.apps[app.ID] = clone(app)
	return nil
}

func (m *Memory) Delete(ctx context.Context, appID id.ApplicationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.apps[appID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.apps, appID)
	return nil
}

func (m *Memory) LastIssuedNumber(ctx context.Context, t models.DocumentType, pattern string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := strings.TrimSuffix(pattern, "%")
	var last string
	for _, a := range m.apps {
		if a.Type != t || a.IssuedNumber == "" {
			continue
		}
		if !strings.HasPrefix(a.IssuedNumber, prefix) {
			continue
		}
		if a.IssuedNumber > last {
			last = a.IssuedNumber
		}
	}
	return last, nil
}

func (m *Memory) CountByStatus(ctx context.Context, t models.DocumentType) (map[models.Status]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, a := range m.apps {
		if a.Type == t {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func normalizePaging(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
	return page, perPage
}
