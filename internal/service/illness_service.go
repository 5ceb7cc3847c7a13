package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"lifeline/internal/models"
)

// IllnessLogService wraps /illness-logs
type IllnessLogService struct {
	backend Backend
}

// NewIllnessLogService creates a new illness log service
func NewIllnessLogService(b Backend) *IllnessLogService {
	return &IllnessLogService{backend: b}
}

// List returns illness logs, optionally only those of one family member
func (s *IllnessLogService) List(ctx context.Context, memberID *int64) ([]models.IllnessLog, error) {
	var query url.Values
	if memberID != nil {
		query = url.Values{"family_member_id": {strconv.FormatInt(*memberID, 10)}}
	}
	var logs []models.IllnessLog
	if err := s.backend.Do(ctx, http.MethodGet, "/illness-logs", query, nil, &logs); err != nil {
		return nil, fmt.Errorf("failed to list illness logs: %w", err)
	}
	return logs, nil
}

// Get returns one illness log
func (s *IllnessLogService) Get(ctx context.Context, id int64) (*models.IllnessLog, error) {
	var log models.IllnessLog
	if err := s.backend.Do(ctx, http.MethodGet, itemPath("/illness-logs", id), nil, nil, &log); err != nil {
		return nil, fmt.Errorf("failed to get illness log %d: %w", id, err)
	}
	return &log, nil
}

// Create records an illness
func (s *IllnessLogService) Create(ctx context.Context, in models.IllnessLogInput) (*models.IllnessLog, error) {
	var log models.IllnessLog
	if err := s.backend.Do(ctx, http.MethodPost, "/illness-logs", nil, in, &log); err != nil {
		return nil, fmt.Errorf("failed to create illness log: %w", err)
	}
	return &log, nil
}

// Update replaces an illness log
func (s *IllnessLogService) Update(ctx context.Context, id int64, in models.IllnessLogInput) (*models.IllnessLog, error) {
	var log models.IllnessLog
	if err := s.backend.Do(ctx, http.MethodPut, itemPath("/illness-logs", id), nil, in, &log); err != nil {
		return nil, fmt.Errorf("failed to update illness log %d: %w", id, err)
	}
	return &log, nil
}

// Delete removes an illness log
func (s *IllnessLogService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.Do(ctx, http.MethodDelete, itemPath("/illness-logs", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete illness log %d: %w", id, err)
	}
	return nil
}
