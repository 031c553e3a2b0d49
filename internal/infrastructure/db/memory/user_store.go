package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

var _ ports.UserStore = (*UserStore)(nil)

// UserStore keeps users in process memory. It backs local runs and tests.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string // email -> id
	now     func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (s *UserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(s.byID[id]), nil
}

func (s *UserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return nil, domain.ErrDuplicateEmail
	}

	now := s.now()
	created := clone(user)
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now

	s.byID[created.ID] = created
	s.byEmail[created.Email] = created.ID
	return clone(created), nil
}

func (s *UserStore) Update(_ context.Context, id string, upd domain.UserUpdate) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if upd.Email != nil && *upd.Email != u.Email {
		if _, taken := s.byEmail[*upd.Email]; taken {
			return nil, domain.ErrDuplicateEmail
		}
		delete(s.byEmail, u.Email)
		s.byEmail[*upd.Email] = id
	}

	upd.Apply(u, s.now())
	return clone(u), nil
}

func (s *UserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.byID, id)
	return nil
}

// List orders by creation time, then id, like the database stores.
func (s *UserStore) List(_ context.Context, limit, offset int) ([]*domain.User, error) {
	s.mu.RLock()
	all := make([]*domain.User, 0, len(s.byID))
	for _, u := range s.byID {
		all = append(all, clone(u))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []*domain.User{}, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *UserStore) Ping(context.Context) error { return nil }
