package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/status"
)

// MedicationLister lists a session's medications
type MedicationLister interface {
	List(ctx context.Context) ([]models.Medication, error)
}

// InventoryDigest is the set of medications that need attention at GeneratedAt
type InventoryDigest struct {
	GeneratedAt time.Time
	Expired     []models.Medication
	LowStock    []models.Medication
}

// Empty reports whether nothing needs attention
func (d *InventoryDigest) Empty() bool {
	return len(d.Expired) == 0 && len(d.LowStock) == 0
}

// BuildInventoryDigest classifies every medication of one session at now
func BuildInventoryDigest(ctx context.Context, meds MedicationLister, now time.Time) (*InventoryDigest, error) {
	list, err := meds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory digest: %w", err)
	}

	digest := &InventoryDigest{GeneratedAt: now}
	for _, m := range list {
		switch status.MedicationStock(m, now) {
		case status.Expired:
			digest.Expired = append(digest.Expired, m)
		case status.LowStock:
			digest.LowStock = append(digest.LowStock, m)
		}
	}

	sort.Slice(digest.Expired, func(i, j int) bool {
		return digest.Expired[i].ExpirationDate.Before(digest.Expired[j].ExpirationDate.Time)
	})
	sort.Slice(digest.LowStock, func(i, j int) bool {
		return digest.LowStock[i].Quantity < digest.LowStock[j].Quantity
	})
	return digest, nil
}

// DigestService builds the inventory digest of one session's backend view
type DigestService struct{}

// Build classifies the medications visible through b at now
func (DigestService) Build(ctx context.Context, b Backend, now time.Time) (*InventoryDigest, error) {
	return BuildInventoryDigest(ctx, NewMedicationService(b), now)
}
