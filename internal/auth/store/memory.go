package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"barangaylink/internal/auth/models"
	id "barangaylink/pkg/domain"
	"barangaylink/pkg/platform/sentinel"
	"barangaylink/pkg/requestcontext"
)

// Memory is the in-memory UserStore for unit tests and local development.
type Memory struct {
	mu    sync.RWMutex
	users map[id.UserID]*models.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[id.UserID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	return &cp
}

func (m *Memory) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email {
			return sentinel.ErrConflict
		}
	}
	now := requestcontext.Now(ctx)
	user.CreatedAt = now
	user.UpdatedAt = now
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *Memory) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = requestcontext.Now(ctx)
	m.users[user.ID] = cloneUser(user)
	return nil
}

func (m *Memory) List(ctx context.Context, search string, page, perPage int) (UserPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	var matched []*models.User
	for _, u := range m.users {
		if needle != "" &&
			!strings.Contains(strings.ToLower(u.Name), needle) &&
			!strings.Contains(u.Email, needle) {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 15
	}
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

	items := make([]models.User, 0, end-start)
	for _, u := range matched[start:end] {
		items = append(items, *cloneUser(u))
	}
	return UserPage{Items: items, Total: total, Page: page, PerPage: perPage, LastPage: lastPage}, nil
}
