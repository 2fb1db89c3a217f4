package domain

import (
	"time"
)

type LocationInput struct {
	Lat     *float64 `json:"lat" validate:"required,lat"`
	Lng     *float64 `json:"lng" validate:"required,lng"`
	Details string   `json:"details" validate:"required,max=500"`
}

type SubmitReportRequest struct {
	Location    LocationInput `json:"location"`
	HazardType  HazardType    `json:"hazardType" validate:"required,enum"`
	Severity    Severity      `json:"severity" validate:"required,enum"`
	Description string        `json:"description" validate:"required,max=1000"`
	Evidence    []Attachment  `json:"evidence" validate:"max=5,dive"`
	Contact     Contact       `json:"contact"`
	Source      ReportSource  `json:"source" validate:"omitempty,enum"`
	Priority    *int          `json:"priority" validate:"omitempty,min=1,max=5"`
}

// UpdateReportRequest is the only shape PUT accepts.
type UpdateReportRequest struct {
	Status     *ReportStatus `json:"status" validate:"omitempty,enum"`
	AssignedTo *string       `json:"assignedTo" validate:"omitempty,max=100"`
	Verified   *bool         `json:"verified"`
	VerifiedBy *string       `json:"verifiedBy" validate:"omitempty,max=100"`
}

// ReportPatch is what the store writes on update. ResolveAt is a candidate
// timestamp applied only if the report has never been resolved.
type ReportPatch struct {
	Status     *ReportStatus
	AssignedTo *string
	Verified   *bool
	VerifiedBy *string
	VerifiedAt *time.Time
	ResolveAt  *time.Time
}

func (p ReportPatch) IsEmpty() bool {
	return p.Status == nil && p.AssignedTo == nil && p.Verified == nil &&
		p.VerifiedBy == nil && p.VerifiedAt == nil && p.ResolveAt == nil
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	SortByCreatedAt  = "createdAt"
	SortByUpdatedAt  = "updatedAt"
	SortByPriority   = "priority"
	SortBySeverity   = "severity"
	SortByStatus     = "status"
	SortByHazardType = "hazardType"
)

type ListReportsRequest struct {
	Page       int          `query:"page" validate:"min=1"`
	Limit      int          `query:"limit" validate:"min=1,max=100"`
	Status     ReportStatus `query:"status" validate:"omitempty,enum"`
	Severity   Severity     `query:"severity" validate:"omitempty,enum"`
	HazardType HazardType   `query:"hazardType" validate:"omitempty,enum"`
	SortBy     string       `query:"sortBy" validate:"omitempty,oneof=createdAt updatedAt priority severity status hazardType"`
	SortOrder  SortOrder    `query:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

type ListReportsResponse struct {
	Reports     []*HazardReport `json:"reports"`
	TotalPages  int64           `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Total       int64           `json:"total"`
}

// ReportQuery is the store-level form of ListReportsRequest.
type ReportQuery struct {
	Status     ReportStatus
	Severity   Severity
	HazardType HazardType
	SortBy     string
	SortOrder  SortOrder
	Page       int
	PageSize   int
}

func (q ReportQuery) Normalize() ReportQuery {
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder != SortAsc {
		q.SortOrder = SortDesc
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 10
	}
	return q
}

func (q ReportQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// CountFilter drives store-native counts for current-state figures.
type CountFilter struct {
	Statuses       []ReportStatus
	CreatedAfter   *time.Time
	ResolvedAfter  *time.Time
	ResolvedBefore *time.Time
}

type NearbyRequest struct {
	Lat      float64 `query:"lat" validate:"lat"`
	Lng      float64 `query:"lng" validate:"lng"`
	RadiusKM float64 `query:"radius"`
	Limit    int     `query:"limit" validate:"min=0,max=100"`
}

type NearbyReport struct {
	Report         *HazardReport `json:"report"`
	DistanceMeters float64       `json:"distanceMeters"`
}
