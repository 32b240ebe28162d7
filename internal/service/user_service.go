package service

import (
	"context"
	"errors"

	"beachrent/internal/domain"
	"beachrent/internal/models"

	"github.com/rs/zerolog"
)

// UserService maintains the staff directory and resolves authenticated callers to actors.
type UserService struct {
	repo   domain.UserRepository
	staff  []models.User
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserRepository, staff []models.User, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		staff:  staff,
		logger: logger,
	}
}

// SyncStaff writes the configured staff members into the directory.
func (s *UserService) SyncStaff(ctx context.Context) error {
	return s.repo.SyncUsers(ctx, s.staff)
}

// ResolveActor loads the directory entry for userID. Unknown users and users whose directory
// role is not admin or staff are rejected with ErrForbidden.
func (s *UserService) ResolveActor(ctx context.Context, userID int64) (models.Actor, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn().Int64("user_id", userID).Msg("Token for unknown user")
		return models.Actor{}, domain.ErrForbidden.WithMessage("unknown user")
	}
	if err != nil {
		return models.Actor{}, err
	}
	if !user.Role.Valid() {
		return models.Actor{}, domain.ErrForbidden
	}
	return models.Actor{ID: user.ID, Username: user.Username, Role: user.Role}, nil
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.GetAllUsers(ctx)
}
