package service

import (
	"context"
	"io"
	"net/url"
	"strconv"
)

// Backend is the subset of *apiclient.Client the services use
type Backend interface {
	Do(ctx context.Context, method, path string, query url.Values, in, out any) error
	Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error
}

// Services groups the resource services of one authenticated session
type Services struct {
	FamilyMembers *FamilyMemberService
	Medications   *MedicationService
	IllnessLogs   *IllnessLogService
	Usage         *UsageService
	Calendar      *CalendarService
	Drive         *DriveService
	Features      *FeatureService
}

// NewServices binds every resource service to b
func NewServices(b Backend) *Services {
	return &Services{
		FamilyMembers: NewFamilyMemberService(b),
		Medications:   NewMedicationService(b),
		IllnessLogs:   NewIllnessLogService(b),
		Usage:         NewUsageService(b),
		Calendar:      NewCalendarService(b),
		Drive:         NewDriveService(b),
		Features:      NewFeatureService(b),
	}
}

func itemPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}
