package service

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
)

// groups keeps one value per key in first-seen order.
type groups[K comparable, V any] struct {
	pos   map[K]int
	items []V
}

func newGroups[K comparable, V any]() *groups[K, V] {
	return &groups[K, V]{pos: make(map[K]int), items: []V{}}
}

func (g *groups[K, V]) at(k K, init func() V) *V {
	i, ok := g.pos[k]
	if !ok {
		i = len(g.items)
		g.pos[k] = i
		g.items = append(g.items, init())
	}
	return &g.items[i]
}

func (g *groups[K, V]) get(k K) (V, bool) {
	i, ok := g.pos[k]
	if !ok {
		var zero V
		return zero, false
	}
	return g.items[i], true
}

// windowStats is the single-pass reduction behind analytics and dashboard
// figures. Feed it reports in creation order; ties then keep that order
// through the stable sorts in finish.
type windowStats struct {
	total       int64
	responseSum int64
	responseN   int64

	hazards  *groups[domain.HazardType, domain.HazardTypeCount]
	severity *groups[domain.Severity, domain.SeverityCount]
	status   *groups[domain.ReportStatus, domain.StatusCount]
	places   *groups[string, domain.LocationCount]
}

func newWindowStats() *windowStats {
	return &windowStats{
		hazards:  newGroups[domain.HazardType, domain.HazardTypeCount](),
		severity: newGroups[domain.Severity, domain.SeverityCount](),
		status:   newGroups[domain.ReportStatus, domain.StatusCount](),
		places:   newGroups[string, domain.LocationCount](),
	}
}

func (w *windowStats) add(r *domain.HazardReport) {
	w.total++

	if r.Status == domain.StatusResolved && r.ResponseTime != nil {
		w.responseSum += int64(*r.ResponseTime)
		w.responseN++
	}

	h := w.hazards.at(r.HazardType, func() domain.HazardTypeCount {
		return domain.HazardTypeCount{HazardType: r.HazardType}
	})
	h.Count++
	if r.Severity == domain.SeverityCritical {
		h.CriticalCount++
	}

	w.severity.at(r.Severity, func() domain.SeverityCount {
		return domain.SeverityCount{Severity: r.Severity}
	}).Count++

	w.status.at(r.Status, func() domain.StatusCount {
		return domain.StatusCount{Status: r.Status}
	}).Count++

	p := w.places.at(r.Location.Details, func() domain.LocationCount {
		return domain.LocationCount{Details: r.Location.Details, SeverityBreakdown: []domain.Severity{}}
	})
	p.Count++
	p.SeverityBreakdown = append(p.SeverityBreakdown, r.Severity)
}

// avgResponse is the mean response time rounded to the nearest minute, 0
// when nothing was resolved.
func (w *windowStats) avgResponse() int64 {
	if w.responseN == 0 {
		return 0
	}
	return int64(math.Round(float64(w.responseSum) / float64(w.responseN)))
}

const topLocations = 10

func (w *windowStats) breakdown() domain.AnalyticsBreakdown {
	hazards := slices.Clone(w.hazards.items)
	slices.SortStableFunc(hazards, func(a, b domain.HazardTypeCount) int {
		return cmp.Compare(b.Count, a.Count)
	})

	places := slices.Clone(w.places.items)
	slices.SortStableFunc(places, func(a, b domain.LocationCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(places) > topLocations {
		places = places[:topLocations]
	}

	return domain.AnalyticsBreakdown{
		HazardTypes: hazards,
		Severity:    slices.Clone(w.severity.items),
		Status:      slices.Clone(w.status.items),
		Geographic:  places,
	}
}

// dailyCounts buckets reports by UTC calendar day.
type dailyCounts struct {
	days *groups[domain.DayKey, domain.DailyCount]
}

func newDailyCounts() *dailyCounts {
	return &dailyCounts{days: newGroups[domain.DayKey, domain.DailyCount]()}
}

func (d *dailyCounts) add(t time.Time) {
	u := t.UTC()
	k := domain.DayKey{Year: u.Year(), Month: int(u.Month()), Day: u.Day()}
	d.days.at(k, func() domain.DailyCount { return domain.DailyCount{Day: k} }).Count++
}

func (d *dailyCounts) chronological() []domain.DailyCount {
	out := slices.Clone(d.days.items)
	slices.SortStableFunc(out, func(a, b domain.DailyCount) int {
		switch {
		case a.Day.Before(b.Day):
			return -1
		case b.Day.Before(a.Day):
			return 1
		}
		return 0
	})
	return out
}

// collect reduces reports created in [from, until). A nil until means no
// upper bound; the scan is abandoned as soon as it passes until.
func collect(ctx context.Context, repo ReportRepository, from time.Time, until *time.Time) (*windowStats, error) {
	w := newWindowStats()
	for r, err := range repo.Scan(ctx, &from) {
		if err != nil {
			return nil, err
		}
		if until != nil && !r.CreatedAt.Before(*until) {
			break
		}
		w.add(r)
	}
	return w, nil
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
}
