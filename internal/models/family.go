package models

// FamilyMember is a person whose health is tracked
type FamilyMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DateOfBirth *Date  `json:"date_of_birth"`
	Gender      string `json:"gender"`
	Profession  string `json:"profession"`
	HealthNotes string `json:"health_notes"`
}

// Medication is one inventory item
type Medication struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	ExpirationDate *Date  `json:"expiration_date"`
}

// IllnessLog records one illness episode. A nil EndDate means the illness is ongoing.
type IllnessLog struct {
	ID               int64  `json:"id"`
	FamilyMemberID   int64  `json:"family_member_id"`
	FamilyMemberName string `json:"family_member_name"`
	IllnessName      string `json:"illness_name"`
	StartDate        Date   `json:"start_date"`
	EndDate          *Date  `json:"end_date"`
	Notes            string `json:"notes"`
	AISuggestion     string `json:"ai_suggestion"`
}

// UsageLog records medication taken by a family member
type UsageLog struct {
	ID               int64  `json:"id"`
	FamilyMemberID   int64  `json:"family_member_id"`
	FamilyMemberName string `json:"family_member_name"`
	MedicationID     int64  `json:"medication_id"`
	MedicationName   string `json:"medication_name"`
	QuantityUsed     int    `json:"quantity_used"`
	UsedAt           Date   `json:"used_at"`
}

// FamilyMemberInput is the create/update payload for a family member.
// Nil pointers are sent as null.
type FamilyMemberInput struct {
	Name        string  `json:"name"`
	DateOfBirth *string `json:"date_of_birth"`
	Gender      *string `json:"gender"`
	Profession  *string `json:"profession"`
	HealthNotes *string `json:"health_notes"`
}

// MedicationInput is the create/update payload for a medication
type MedicationInput struct {
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	ExpirationDate *string `json:"expiration_date"`
}

// IllnessLogInput is the create/update payload for an illness log
type IllnessLogInput struct {
	FamilyMemberID int64   `json:"family_member_id"`
	IllnessName    string  `json:"illness_name"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	Notes          *string `json:"notes"`
}

// UsageLogInput is the create payload for a usage log
type UsageLogInput struct {
	FamilyMemberID int64 `json:"family_member_id"`
	MedicationID   int64 `json:"medication_id"`
	QuantityUsed   int   `json:"quantity_used"`
}

// OptionalString returns nil for an empty string
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
