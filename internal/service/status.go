package service

import (
	"context"
	"strings"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

type StatusService struct {
	repo StatusRepositoryInterface
}

func NewStatusService(repo StatusRepositoryInterface) *StatusService {
	return &StatusService{repo: repo}
}

func (s *StatusService) Create(ctx context.Context, clientName string) (*domain.StatusCheck, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, domain.ErrValidationFailed.WithError(errClientNameRequired)
	}

	check := &domain.StatusCheck{ClientName: clientName}
	if err := s.repo.Create(ctx, check); err != nil {
		return nil, domain.ErrStatusFailed.WithError(err)
	}
	return check, nil
}

func (s *StatusService) List(ctx context.Context) ([]domain.StatusCheck, error) {
	checks, err := s.repo.List(ctx, 1000)
	if err != nil {
		return nil, domain.ErrStatusFailed.WithError(err)
	}
	return checks, nil
}
