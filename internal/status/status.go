// Package status derives display values from canonical records. Nothing here
// is stored: every function takes the record fields and the current time.
package status

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"lifeline/internal/models"
)

// LowStockThreshold is the quantity below which a medication is low on stock
const LowStockThreshold = 10

// Stock is the derived inventory status of a medication
type Stock int

const (
	InStock Stock = iota
	LowStock
	Expired
)

// String returns the CSS-friendly name of the status
func (s Stock) String() string {
	switch s {
	case Expired:
		return "expired"
	case LowStock:
		return "low-stock"
	default:
		return "in-stock"
	}
}

// Label returns the user-facing label of the status
func (s Stock) Label() string {
	switch s {
	case Expired:
		return "Expired"
	case LowStock:
		return "Low Stock"
	default:
		return "In Stock"
	}
}

// Expiration classifies a medication. Expiry dominates quantity.
func Expiration(quantity int, expiration *time.Time, now time.Time) Stock {
	if expiration != nil && expiration.Before(now) {
		return Expired
	}
	if quantity < LowStockThreshold {
		return LowStock
	}
	return InStock
}

// MedicationStock classifies m at now
func MedicationStock(m models.Medication, now time.Time) Stock {
	return Expiration(m.Quantity, m.ExpirationDate.Ptr(), now)
}

const day = 24 * time.Hour

// IllnessDays returns the ceiling of whole days between start and end, or
// between start and now for an ongoing illness.
func IllnessDays(start time.Time, end *time.Time, now time.Time) int {
	until := now
	if end != nil {
		until = *end
	}
	diff := until.Sub(start)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// IllnessDuration formats the illness length for display
func IllnessDuration(start time.Time, end *time.Time, now time.Time) string {
	switch days := IllnessDays(start, end, now); days {
	case 0:
		return "< 1 day"
	case 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// IsOngoing reports whether an illness has no end date
func IsOngoing(end *time.Time) bool {
	return end == nil
}

// EndLabel returns "Ongoing" for an open illness, otherwise the formatted end date
func EndLabel(end *time.Time) string {
	if end == nil {
		return "Ongoing"
	}
	return FormatDate(*end)
}

// Age returns whole years between dob and today. ok is false when dob is nil.
func Age(dob *time.Time, today time.Time) (years int, ok bool) {
	if dob == nil {
		return 0, false
	}
	years = today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		years--
	}
	return years, true
}

// AgeLabel formats Age, using "-" when the date of birth is unknown
func AgeLabel(dob *time.Time, today time.Time) string {
	years, ok := Age(dob, today)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d", years)
}

// DisplayGender capitalises the first letter, using "-" when empty
func DisplayGender(gender string) string {
	gender = strings.TrimSpace(gender)
	if gender == "" {
		return "-"
	}
	r, size := utf8.DecodeRuneInString(gender)
	return string(unicode.ToUpper(r)) + gender[size:]
}

// FormatDate formats a date the way the tables show it
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
