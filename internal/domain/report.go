package domain

import (
	"math"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/KunalPandey-675/oceanResQ/pkg/e"
	"github.com/KunalPandey-675/oceanResQ/pkg/geo"
)

type HazardType string

const (
	HazardRipCurrent     HazardType = "Rip Current"
	HazardStormSurge     HazardType = "Storm Surge"
	HazardHighWaves      HazardType = "High Waves"
	HazardMarineDebris   HazardType = "Marine Debris"
	HazardWeatherEvents  HazardType = "Weather Events"
	HazardTsunami        HazardType = "Tsunami"
	HazardCoastalErosion HazardType = "Coastal Erosion"
	HazardOther          HazardType = "Other"
)

func (h HazardType) Valid() bool {
	switch h {
	case HazardRipCurrent, HazardStormSurge, HazardHighWaves, HazardMarineDebris,
		HazardWeatherEvents, HazardTsunami, HazardCoastalErosion, HazardOther:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "Low Risk"
	SeverityModerate Severity = "Moderate Risk"
	SeverityHigh     Severity = "High Risk"
	SeverityCritical Severity = "Critical Emergency"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type ReportStatus string

const (
	StatusActive      ReportStatus = "Active"
	StatusUnderReview ReportStatus = "Under Review"
	StatusResolved    ReportStatus = "Resolved"
	StatusClosed      ReportStatus = "Closed"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusActive, StatusUnderReview, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// OpenStatuses are the statuses counted as "active right now".
func OpenStatuses() []ReportStatus {
	return []ReportStatus{StatusActive, StatusUnderReview}
}

type ReportSource string

const (
	SourceWebForm     ReportSource = "Web Form"
	SourceSocialMedia ReportSource = "Social Media"
	SourceAPI         ReportSource = "API"
	SourceMobileApp   ReportSource = "Mobile App"
)

func (s ReportSource) Valid() bool {
	switch s {
	case SourceWebForm, SourceSocialMedia, SourceAPI, SourceMobileApp:
		return true
	}
	return false
}

const (
	MaxDescriptionLen = 1000
	MaxEvidence       = 5
	MinPriority       = 1
	MaxPriority       = 5
)

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Details string  `json:"details"`
}

type Attachment struct {
	Filename     string `json:"filename" validate:"required,max=255"`
	OriginalName string `json:"originalName" validate:"max=255"`
	MimeType     string `json:"mimetype" validate:"max=100"`
	Size         int64  `json:"size" validate:"gte=0"`
	URL          string `json:"url" validate:"required,max=2048"`
}

type Contact struct {
	Name  string `json:"name,omitempty" validate:"omitempty,max=100"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=20"`
	Email string `json:"email,omitempty" validate:"omitempty,max=100"`
}

type HazardReport struct {
	ID           uuid.UUID    `json:"_id"`
	Location     Location     `json:"location"`
	HazardType   HazardType   `json:"hazardType"`
	Severity     Severity     `json:"severity"`
	Description  string       `json:"description"`
	Evidence     []Attachment `json:"evidence"`
	Contact      Contact      `json:"contact"`
	Status       ReportStatus `json:"status"`
	Priority     int          `json:"priority"`
	AssignedTo   *string      `json:"assignedTo"`
	ResolvedAt   *time.Time   `json:"resolvedAt"`
	ResponseTime *int         `json:"responseTime"`
	Source       ReportSource `json:"source"`
	Verified     bool         `json:"verified"`
	VerifiedBy   *string      `json:"verifiedBy"`
	VerifiedAt   *time.Time   `json:"verifiedAt"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// SeverityToPriority maps a severity to its triage priority.
// Unknown severities fall back to the Moderate priority.
func SeverityToPriority(s Severity) int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityModerate:
		return 2
	case SeverityHigh:
		return 4
	case SeverityCritical:
		return 5
	default:
		return 2
	}
}

// ResponseMinutes is the elapsed time between creation and resolution,
// rounded to the nearest minute.
func ResponseMinutes(createdAt, resolvedAt time.Time) int {
	return int(math.Round(resolvedAt.Sub(createdAt).Seconds() / 60))
}

// MarkResolved sets ResolvedAt and ResponseTime unless the report was
// already resolved once. It reports whether anything changed.
func (r *HazardReport) MarkResolved(at time.Time) bool {
	if r.ResolvedAt != nil {
		return false
	}
	resolvedAt := at
	minutes := ResponseMinutes(r.CreatedAt, resolvedAt)
	r.ResolvedAt = &resolvedAt
	r.ResponseTime = &minutes
	return true
}

// Apply folds p into r. The resolve side effect only fires when the new
// status is Resolved.
func (r *HazardReport) Apply(p ReportPatch) (resolved bool) {
	if p.Status != nil {
		r.Status = *p.Status
		if *p.Status == StatusResolved && p.ResolveAt != nil {
			resolved = r.MarkResolved(*p.ResolveAt)
		}
	}
	if p.AssignedTo != nil {
		v := *p.AssignedTo
		r.AssignedTo = &v
	}
	if p.Verified != nil {
		r.Verified = *p.Verified
	}
	if p.VerifiedBy != nil {
		v := *p.VerifiedBy
		r.VerifiedBy = &v
	}
	if p.VerifiedAt != nil {
		v := *p.VerifiedAt
		r.VerifiedAt = &v
	}
	return resolved
}

// Validate checks the entity invariants the store refuses to persist.
func (r *HazardReport) Validate() error {
	v := e.NewValidationError()

	if !geo.ValidCoordinates(r.Location.Lat, 0) {
		v.Add("location.lat", "lat")
	}
	if !geo.ValidCoordinates(0, r.Location.Lng) {
		v.Add("location.lng", "lng")
	}
	if r.Location.Details == "" {
		v.Add("location.details", "required")
	}
	if !r.HazardType.Valid() {
		v.Add("hazardType", "enum")
	}
	if !r.Severity.Valid() {
		v.Add("severity", "enum")
	}
	if r.Description == "" {
		v.Add("description", "required")
	} else if utf8.RuneCountInString(r.Description) > MaxDescriptionLen {
		v.Add("description", "max")
	}
	if len(r.Evidence) > MaxEvidence {
		v.Add("evidence", "max")
	}
	if !r.Status.Valid() {
		v.Add("status", "enum")
	}
	if !r.Source.Valid() {
		v.Add("source", "enum")
	}
	if r.Priority < MinPriority || r.Priority > MaxPriority {
		v.Add("priority", "range")
	}
	if (r.ResolvedAt == nil) != (r.ResponseTime == nil) {
		v.Add("responseTime", "resolvedAt")
	}

	return v.Err()
}

func (r *HazardReport) Clone() *HazardReport {
	c := *r
	c.Evidence = slices.Clone(r.Evidence)
	c.AssignedTo = clonePtr(r.AssignedTo)
	c.ResolvedAt = clonePtr(r.ResolvedAt)
	c.ResponseTime = clonePtr(r.ResponseTime)
	c.VerifiedBy = clonePtr(r.VerifiedBy)
	c.VerifiedAt = clonePtr(r.VerifiedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
