package domain

import "time"

type Timeframe string

const (
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe90d Timeframe = "90d"
	Timeframe1y  Timeframe = "1y"
)

// ParseTimeframe falls back to 30d for anything it does not recognise.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(s) {
	case Timeframe7d, Timeframe30d, Timeframe90d, Timeframe1y:
		return Timeframe(s)
	default:
		return Timeframe30d
	}
}

func (t Timeframe) Duration() time.Duration {
	const day = 24 * time.Hour
	switch t {
	case Timeframe7d:
		return 7 * day
	case Timeframe90d:
		return 90 * day
	case Timeframe1y:
		return 365 * day
	default:
		return 30 * day
	}
}

type AnalyticsSummary struct {
	TotalReports    int64 `json:"totalReports"`
	ActiveIncidents int64 `json:"activeIncidents"`
	ResolvedToday   int64 `json:"resolvedToday"`
	AvgResponseTime int64 `json:"avgResponseTime"`
}

type HazardTypeCount struct {
	HazardType    HazardType `json:"_id"`
	Count         int64      `json:"count"`
	CriticalCount int64      `json:"criticalCount"`
}

type SeverityCount struct {
	Severity Severity `json:"_id"`
	Count    int64    `json:"count"`
}

type StatusCount struct {
	Status ReportStatus `json:"_id"`
	Count  int64        `json:"count"`
}

type LocationCount struct {
	Details           string     `json:"_id"`
	Count             int64      `json:"count"`
	SeverityBreakdown []Severity `json:"severityBreakdown"`
}

type DayKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d DayKey) Before(o DayKey) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

type DailyCount struct {
	Day   DayKey `json:"_id"`
	Count int64  `json:"count"`
}

type AnalyticsBreakdown struct {
	HazardTypes []HazardTypeCount `json:"hazardTypes"`
	Severity    []SeverityCount   `json:"severity"`
	Status      []StatusCount     `json:"status"`
	Geographic  []LocationCount   `json:"geographic"`
}

type AnalyticsTrends struct {
	Daily []DailyCount `json:"daily"`
}

type AnalyticsReport struct {
	Timeframe Timeframe          `json:"timeframe"`
	Summary   AnalyticsSummary   `json:"summary"`
	Breakdown AnalyticsBreakdown `json:"breakdown"`
	Trends    AnalyticsTrends    `json:"trends"`
}

type AnalyticsExport struct {
	Timeframe Timeframe          `json:"timeframe"`
	Generated time.Time          `json:"generated"`
	Summary   AnalyticsSummary   `json:"summary"`
	Breakdown AnalyticsBreakdown `json:"breakdown"`
	Trends    AnalyticsTrends    `json:"trends"`
}

type DashboardCard struct {
	Value  int64  `json:"value"`
	Change string `json:"change"`
}

type DashboardSummary struct {
	TotalReports    DashboardCard `json:"totalReports"`
	ActiveIncidents DashboardCard `json:"activeIncidents"`
	ResolvedToday   DashboardCard `json:"resolvedToday"`
	AvgResponseTime DashboardCard `json:"avgResponseTime"`
}

type HazardTrend struct {
	HazardType HazardType `json:"_id"`
	Count      int64      `json:"count"`
	Change     string     `json:"change"`
}

type Dashboard struct {
	Summary         DashboardSummary `json:"summary"`
	HazardAnalytics []HazardTrend    `json:"hazardAnalytics"`
}
