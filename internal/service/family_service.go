package service

import (
	"context"
	"fmt"
	"net/http"

	"lifeline/internal/models"
)

// FamilyMemberService wraps /family-members
type FamilyMemberService struct {
	backend Backend
}

// NewFamilyMemberService creates a new family member service
func NewFamilyMemberService(b Backend) *FamilyMemberService {
	return &FamilyMemberService{backend: b}
}

// List returns all family members
func (s *FamilyMemberService) List(ctx context.Context) ([]models.FamilyMember, error) {
	var members []models.FamilyMember
	if err := s.backend.Do(ctx, http.MethodGet, "/family-members", nil, nil, &members); err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	return members, nil
}

// Create adds a family member
func (s *FamilyMemberService) Create(ctx context.Context, in models.FamilyMemberInput) (*models.FamilyMember, error) {
	var member models.FamilyMember
	if err := s.backend.Do(ctx, http.MethodPost, "/family-members", nil, in, &member); err != nil {
		return nil, fmt.Errorf("failed to create family member: %w", err)
	}
	return &member, nil
}

// Update replaces the editable fields of a family member
func (s *FamilyMemberService) Update(ctx context.Context, id int64, in models.FamilyMemberInput) (*models.FamilyMember, error) {
	var member models.FamilyMember
	if err := s.backend.Do(ctx, http.MethodPut, itemPath("/family-members", id), nil, in, &member); err != nil {
		return nil, fmt.Errorf("failed to update family member %d: %w", id, err)
	}
	return &member, nil
}

// Delete removes a family member
func (s *FamilyMemberService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.Do(ctx, http.MethodDelete, itemPath("/family-members", id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete family member %d: %w", id, err)
	}
	return nil
}
