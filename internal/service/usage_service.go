package service

import (
	"context"
	"fmt"
	"net/http"

	"lifeline/internal/models"
)

// UsageService wraps /medication-usage
type UsageService struct {
	backend Backend
}

// NewUsageService creates a new usage service
func NewUsageService(b Backend) *UsageService {
	return &UsageService{backend: b}
}

// List returns all usage logs
func (s *UsageService) List(ctx context.Context) ([]models.UsageLog, error) {
	var logs []models.UsageLog
	if err := s.backend.Do(ctx, http.MethodGet, "/medication-usage", nil, nil, &logs); err != nil {
		return nil, fmt.Errorf("failed to list usage logs: %w", err)
	}
	return logs, nil
}

// Create records medication usage. The backend decrements the stock.
func (s *UsageService) Create(ctx context.Context, in models.UsageLogInput) (*models.UsageLog, error) {
	var log models.UsageLog
	if err := s.backend.Do(ctx, http.MethodPost, "/medication-usage", nil, in, &log); err != nil {
		return nil, fmt.Errorf("failed to log usage: %w", err)
	}
	return &log, nil
}
