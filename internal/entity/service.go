package entity

import (
	"context"
	"errors"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id int64) (Entity, error) {
	if id <= 0 {
		return Entity{}, errors.New("invalid entity ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Entity, int, error) {
	return s.repo.List(ctx, filters)
}
