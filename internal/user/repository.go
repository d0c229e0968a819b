package user

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Repository is the storage collaborator behind Service. Mutations report
// how many records they touched (0 or 1).
type Repository interface {
	SelectAll(ctx context.Context) ([]User, error)
	SelectByID(ctx context.Context, id uuid.UUID) (User, bool, error)
	Insert(ctx context.Context, id uuid.UUID, user User) (int, error)
	Update(ctx context.Context, user User) (int, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (int, error)
}

type InMemoryRepository struct {
	mu    sync.RWMutex
	users []User
}

var _ Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users: make([]User, 0, len(seed)),
	}
	for _, user := range seed {
		if repo.indexOf(user.UID) >= 0 {
			continue
		}
		repo.users = append(repo.users, user)
	}
	return repo
}

func (r *InMemoryRepository) SelectAll(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, len(r.users))
	copy(users, r.users)
	return users, nil
}

func (r *InMemoryRepository) SelectByID(ctx context.Context, id uuid.UUID) (User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.users[i], true, nil
	}
	return User{}, false, nil
}

func (r *InMemoryRepository) Insert(ctx context.Context, id uuid.UUID, user User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(id) >= 0 {
		return 0, nil
	}
	r.users = append(r.users, WithUID(id, user))
	return 1, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, user User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(user.UID)
	if i < 0 {
		return 0, nil
	}
	r.users[i] = user
	return 1, nil
}

func (r *InMemoryRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return 0, nil
	}
	r.users = append(r.users[:i], r.users[i+1:]...)
	return 1, nil
}

// indexOf expects r.mu to be held.
func (r *InMemoryRepository) indexOf(id uuid.UUID) int {
	for i, user := range r.users {
		if user.UID == id {
			return i
		}
	}
	return -1
}
