package user

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Service struct {
	repo     Repository
	validate *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, validate: NewValidator()}
}

// List returns every stored user, or only those of the given gender when
// gender is non-empty. Unknown genders fail with ErrInvalidArgument.
func (s *Service) List(ctx context.Context, gender string) ([]User, error) {
	users, err := s.repo.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	if gender == "" {
		return users, nil
	}

	want, err := ParseGender(gender)
	if err != nil {
		return nil, err
	}

	filtered := make([]User, 0, len(users))
	for _, user := range users {
		if user.Gender == want {
			filtered = append(filtered, user)
		}
	}
	return filtered, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	user, ok, err := s.repo.SelectByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !ok {
		return User{}, notFound(id)
	}
	return user, nil
}

// Insert stores user under its own identifier, minting one when it has
// none. It returns the identifier used and the number of stored records.
func (s *Service) Insert(ctx context.Context, user User) (uuid.UUID, int, error) {
	if err := s.validate.Struct(user); err != nil {
		return uuid.Nil, 0, validationError(err)
	}

	id := user.UID
	if id == uuid.Nil {
		id = uuid.New()
	}

	n, err := s.repo.Insert(ctx, id, WithUID(id, user))
	if err != nil {
		return uuid.Nil, 0, err
	}
	return id, n, nil
}

// Update replaces every field of an existing user.
func (s *Service) Update(ctx context.Context, user User) (int, error) {
	if err := s.validate.Struct(user); err != nil {
		return 0, validationError(err)
	}
	if _, err := s.Get(ctx, user.UID); err != nil {
		return 0, err
	}
	return s.repo.Update(ctx, user)
}

func (s *Service) Remove(ctx context.Context, id uuid.UUID) (int, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return 0, err
	}
	return s.repo.DeleteByID(ctx, id)
}

func notFound(id uuid.UUID) error {
	return &NotFoundError{UID: id}
}
