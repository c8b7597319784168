package user

import (
	"context"
	"errors"
	"fmt"
)

type Service struct {
	repo Repository
}

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]User, error)
	List(ctx context.Context) ([]User, error)
	Upsert(ctx context.Context, u *User) error
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

func (s *Service) GetByIDs(ctx context.Context, ids []int64) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) Save(ctx context.Context, u *User) error {
	if !u.Position.Valid() {
		return fmt.Errorf("invalid position %q for user %s", u.Position, u.Username)
	}
	if err := s.repo.Upsert(ctx, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// SupervisorOf returns the direct supervisor id of userID, or nil at the top
// of the chain. Unknown users have no supervisor.
func (s *Service) SupervisorOf(ctx context.Context, userID int64) (*int64, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return u.SupervisorID(), nil
}
