package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

type UserService struct {
	repo ports.UserRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewUserService(repo ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, log: log, now: time.Now}
}

func (s *UserService) FindAll(ctx context.Context) ([]domain.UserView, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out, nil
}

func (s *UserService) FindOne(ctx context.Context, id string) (domain.UserView, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.UserView{}, err
	}
	return u.View(), nil
}

func (s *UserService) Update(ctx context.Context, id string, upd domain.UserUpdate) (domain.UserView, error) {
	u, err := s.repo.Update(ctx, id, upd, s.now().UTC())
	if err != nil {
		return domain.UserView{}, err
	}
	s.log.Info().Str("user_id", id).Msg("user updated")
	return u.View(), nil
}

func (s *UserService) Delete(ctx context.Context, id string) (domain.UserView, error) {
	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.UserView{}, err
	}
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return u.View(), nil
}
