package domain

import (
	"time"

	"github.com/google/uuid"
)

// CriticalReportNotification is pushed to the alert webhook when a
// Critical Emergency report is submitted.
type CriticalReportNotification struct {
	ReportID    uuid.UUID  `json:"reportId"`
	HazardType  HazardType `json:"hazardType"`
	Severity    Severity   `json:"severity"`
	Priority    int        `json:"priority"`
	Location    Location   `json:"location"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewCriticalReportNotification(r *HazardReport) CriticalReportNotification {
	return CriticalReportNotification{
		ReportID:    r.ID,
		HazardType:  r.HazardType,
		Severity:    r.Severity,
		Priority:    r.Priority,
		Location:    r.Location,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
}
