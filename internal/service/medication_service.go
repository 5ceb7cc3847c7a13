package service

import (
	"context"
	"fmt"
	"net/http"

	"lifeline/internal/models"
)

// MedicationService wraps /medications
type MedicationService struct {
	backend Backend
}

// NewMedicationService creates a new medication service
func NewMedicationService(b Backend) *MedicationService {
	return &MedicationService{backend: b}
}

// List returns the medication inventory
func (s *MedicationService) List(ctx context.Context) ([]models.Medication, error) {
	var meds []models.Medication
	if err := s.backend.Do(ctx, http.MethodGet, "/medications", nil, nil, &meds); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return meds, nil
}

// Create adds a medication to the inventory
func (s *MedicationService) Create(ctx context.Context, in models.MedicationInput) (*models.Medication, error) {
	var med models.Medication
	if err := s.backend.Do(ctx, http.MethodPost, "/medications", nil, in, &med); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	return &med, nil
}

// Update replaces a medication
func (s *MedicationService) Update(ctx context.Context, id int64, in models.MedicationInput) (*models.Medication, error) {
	var med models.Medication
	if err := s.backend.Do(ctx, http.MethodPut, itemPath("/medications", id), nil, in, &med); err != nil {
		return nil, fmt.Errorf("failed to update medication %d: %w", id, err)
	}
	return &med, nil
}

// Delete removes a medication
func (s *MedicationService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.Do(ctx, http.MethodDelete, itemPath("/medications", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete medication %d: %w", id, err)
	}
	return nil
}
