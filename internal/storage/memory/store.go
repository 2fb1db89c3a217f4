// Package memory is an in-process report store used by tests and by local
// runs with STORE_DRIVER=memory. Documents and every index live under one
// RWMutex, so readers never observe a document without its index entries.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"iter"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"
	"github.com/KunalPandey-675/oceanResQ/pkg/geo"
)

type set map[uuid.UUID]struct{}

type cell struct {
	lat, lng int
}

type typeSeverity struct {
	hazardType domain.HazardType
	severity   domain.Severity
}

type Store struct {
	mu    sync.RWMutex
	clock clockwork.Clock

	docs map[uuid.UUID]*domain.HazardReport
	// ordered by (CreatedAt, ID)
	order []uuid.UUID

	grid           map[cell]set
	byStatus       map[domain.ReportStatus]set
	byTypeSeverity map[typeSeverity]set
}

func New(clock clockwork.Clock) *Store {
	return &Store{
		clock:          clock,
		docs:           make(map[uuid.UUID]*domain.HazardReport),
		grid:           make(map[cell]set),
		byStatus:       make(map[domain.ReportStatus]set),
		byTypeSeverity: make(map[typeSeverity]set),
	}
}

func cellOf(lat, lng float64) cell {
	return cell{lat: clampLatCell(int(math.Floor(lat))), lng: wrapLngCell(int(math.Floor(lng)))}
}

func clampLatCell(c int) int {
	return max(-90, min(89, c))
}

func wrapLngCell(c int) int {
	return ((c+180)%360+360)%360 - 180
}

func add[K comparable](idx map[K]set, k K, id uuid.UUID) {
	s, ok := idx[k]
	if !ok {
		s = make(set)
		idx[k] = s
	}
	s[id] = struct{}{}
}

func remove[K comparable](idx map[K]set, k K, id uuid.UUID) {
	s, ok := idx[k]
	if !ok {
		return
	}
	delete(s, id)
	if len(s) == 0 {
		delete(idx, k)
	}
}

func createdOrder(docs map[uuid.UUID]*domain.HazardReport) func(a, b uuid.UUID) int {
	return func(a, b uuid.UUID) int {
		if c := docs[a].CreatedAt.Compare(docs[b].CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a[:], b[:])
	}
}

func (s *Store) index(r *domain.HazardReport) {
	add(s.grid, cellOf(r.Location.Lat, r.Location.Lng), r.ID)
	add(s.byStatus, r.Status, r.ID)
	add(s.byTypeSeverity, typeSeverity{r.HazardType, r.Severity}, r.ID)
}

func (s *Store) unindex(r *domain.HazardReport) {
	remove(s.grid, cellOf(r.Location.Lat, r.Location.Lng), r.ID)
	remove(s.byStatus, r.Status, r.ID)
	remove(s.byTypeSeverity, typeSeverity{r.HazardType, r.Severity}, r.ID)
}

func (s *Store) Insert(ctx context.Context, r *domain.HazardReport) error {
	const op = "memory.Report.Insert"

	if err := ctx.Err(); err != nil {
		return e.WrapError(ctx, op, err)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := s.docs[r.ID]; exists {
		return fmt.Errorf("%s: %w", op, e.ErrUniqueViolation)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Microsecond)
	r.UpdatedAt = r.CreatedAt
	if r.Evidence == nil {
		r.Evidence = []domain.Attachment{}
	}

	doc := r.Clone()
	s.docs[doc.ID] = doc
	pos, _ := slices.BinarySearchFunc(s.order, doc.ID, createdOrder(s.docs))
	s.order = slices.Insert(s.order, pos, doc.ID)
	s.index(doc)

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.HazardReport, error) {
	const op = "memory.Report.Get"

	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}
	return doc.Clone(), nil
}

// Update applies p under the write lock. The resolve candidate only lands
// when the report has never been resolved.
func (s *Store) Update(ctx context.Context, id uuid.UUID, p domain.ReportPatch) (*domain.HazardReport, error) {
	const op = "memory.Report.Update"

	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	next := doc.Clone()
	if p.ResolveAt != nil {
		at := p.ResolveAt.UTC().Truncate(time.Microsecond)
		p.ResolveAt = &at
	}
	if p.VerifiedAt != nil {
		at := p.VerifiedAt.UTC().Truncate(time.Microsecond)
		p.VerifiedAt = &at
	}
	next.Apply(p)
	next.UpdatedAt = s.clock.Now().UTC().Truncate(time.Microsecond)

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.unindex(doc)
	s.docs[id] = next
	s.index(next)

	return next.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "memory.Report.Delete"

	if err := ctx.Err(); err != nil {
		return e.WrapError(ctx, op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	if pos, found := slices.BinarySearchFunc(s.order, id, createdOrder(s.docs)); found {
		s.order = slices.Delete(s.order, pos, pos+1)
	}
	s.unindex(doc)
	delete(s.docs, id)

	return nil
}

// candidates picks the narrowest index for q. Callers still check every
// predicate on the returned documents.
func (s *Store) candidates(q domain.ReportQuery) []uuid.UUID {
	var idx set
	switch {
	case q.HazardType != "" && q.Severity != "":
		idx = s.byTypeSeverity[typeSeverity{q.HazardType, q.Severity}]
	case q.Status != "":
		idx = s.byStatus[q.Status]
	default:
		return s.order
	}

	ids := make([]uuid.UUID, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, createdOrder(s.docs))
	return ids
}

func matches(r *domain.HazardReport, q domain.ReportQuery) bool {
	return (q.Status == "" || r.Status == q.Status) &&
		(q.Severity == "" || r.Severity == q.Severity) &&
		(q.HazardType == "" || r.HazardType == q.HazardType)
}

func sortKey(r *domain.HazardReport, by string) func(o *domain.HazardReport) int {
	switch by {
	case domain.SortByUpdatedAt:
		return func(o *domain.HazardReport) int { return r.UpdatedAt.Compare(o.UpdatedAt) }
	case domain.SortByPriority:
		return func(o *domain.HazardReport) int { return cmp.Compare(r.Priority, o.Priority) }
	case domain.SortBySeverity:
		return func(o *domain.HazardReport) int { return cmp.Compare(r.Severity, o.Severity) }
	case domain.SortByStatus:
		return func(o *domain.HazardReport) int { return cmp.Compare(r.Status, o.Status) }
	case domain.SortByHazardType:
		return func(o *domain.HazardReport) int { return cmp.Compare(r.HazardType, o.HazardType) }
	default:
		return func(*domain.HazardReport) int { return 0 }
	}
}

func (s *Store) Query(ctx context.Context, q domain.ReportQuery) ([]*domain.HazardReport, int64, error) {
	const op = "memory.Report.Query"

	if err := ctx.Err(); err != nil {
		return nil, 0, e.WrapError(ctx, op, err)
	}

	q = q.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []*domain.HazardReport
	for _, id := range s.candidates(q) {
		if r := s.docs[id]; matches(r, q) {
			hits = append(hits, r)
		}
	}

	// hits are already in (createdAt, id) order, so the stable sort
	// only has to apply the primary key.
	slices.SortStableFunc(hits, func(a, b *domain.HazardReport) int {
		c := sortKey(a, q.SortBy)(b)
		if q.SortOrder == domain.SortDesc {
			return -c
		}
		return c
	})
	if q.SortOrder == domain.SortDesc {
		reverseTies(hits, q.SortBy)
	}

	total := int64(len(hits))
	start := min(q.Offset(), len(hits))
	end := min(start+q.PageSize, len(hits))

	out := make([]*domain.HazardReport, 0, end-start)
	for _, r := range hits[start:end] {
		out = append(out, r.Clone())
	}
	return out, total, nil
}

// reverseTies flips runs of equal primary keys so ties follow the sort
// direction too (newest first under desc).
func reverseTies(hits []*domain.HazardReport, by string) {
	for i := 0; i < len(hits); {
		j := i + 1
		for j < len(hits) && sortKey(hits[i], by)(hits[j]) == 0 {
			j++
		}
		slices.Reverse(hits[i:j])
		i = j
	}
}

// FindNear walks the grid cells covering the radius, then filters by exact
// haversine distance. Results are ordered by distance, then creation.
func (s *Store) FindNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.NearbyReport, error) {
	const op = "memory.Report.FindNear"

	if err := ctx.Err(); err != nil {
		return nil, e.WrapError(ctx, op, err)
	}
	if math.IsNaN(radiusMeters) || radiusMeters <= 0 {
		return []domain.NearbyReport{}, nil
	}

	// A radius spanning the whole latitude range would overflow the int
	// cell bounds; walk every cell instead.
	dLat := radiusMeters / geo.MetersPerDegreeLat
	minLat, maxLat := clampLatCell(-90), clampLatCell(90)
	allLng := true
	var dLng float64
	if dLat < 180 {
		minLat = clampLatCell(int(math.Floor(lat - dLat)))
		maxLat = clampLatCell(int(math.Floor(lat + dLat)))

		if edge := math.Abs(lat) + dLat; edge < 89 {
			dLng = dLat / math.Cos(edge*math.Pi/180)
			allLng = dLng >= 180
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.NearbyReport, 0, 8)
	visit := func(c cell) {
		for id := range s.grid[c] {
			r := s.docs[id]
			d := geo.Haversine(lat, lng, r.Location.Lat, r.Location.Lng)
			if d <= radiusMeters {
				out = append(out, domain.NearbyReport{Report: r, DistanceMeters: d})
			}
		}
	}

	for la := minLat; la <= maxLat; la++ {
		if allLng {
			for lo := -180; lo < 180; lo++ {
				visit(cell{la, lo})
			}
			continue
		}
		seen := make(map[int]struct{})
		for lo := int(math.Floor(lng - dLng)); lo <= int(math.Floor(lng+dLng)); lo++ {
			w := wrapLngCell(lo)
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			visit(cell{la, w})
		}
	}

	byCreated := createdOrder(s.docs)
	slices.SortFunc(out, func(a, b domain.NearbyReport) int {
		if c := cmp.Compare(a.DistanceMeters, b.DistanceMeters); c != 0 {
			return c
		}
		return byCreated(a.Report.ID, b.Report.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Report = out[i].Report.Clone()
	}
	return out, nil
}

// Scan iterates over a snapshot of ids taken when iteration starts. Each
// document is cloned under the read lock as it is yielded; documents deleted
// in between are skipped.
func (s *Store) Scan(ctx context.Context, createdAfter *time.Time) iter.Seq2[*domain.HazardReport, error] {
	const op = "memory.Report.Scan"

	return func(yield func(*domain.HazardReport, error) bool) {
		s.mu.RLock()
		start := 0
		if createdAfter != nil {
			start, _ = slices.BinarySearchFunc(s.order, *createdAfter, func(id uuid.UUID, t time.Time) int {
				if s.docs[id].CreatedAt.Before(t) {
					return -1
				}
				return 1
			})
		}
		ids := slices.Clone(s.order[start:])
		s.mu.RUnlock()

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(nil, e.WrapError(ctx, op, err))
				return
			}
			s.mu.RLock()
			doc, ok := s.docs[id]
			var r *domain.HazardReport
			if ok {
				r = doc.Clone()
			}
			s.mu.RUnlock()
			if !ok {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (s *Store) Count(ctx context.Context, f domain.CountFilter) (int64, error) {
	const op = "memory.Report.Count"

	if err := ctx.Err(); err != nil {
		return 0, e.WrapError(ctx, op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	check := func(r *domain.HazardReport) {
		if f.CreatedAfter != nil && r.CreatedAt.Before(*f.CreatedAfter) {
			return
		}
		if f.ResolvedAfter != nil && (r.ResolvedAt == nil || r.ResolvedAt.Before(*f.ResolvedAfter)) {
			return
		}
		if f.ResolvedBefore != nil && (r.ResolvedAt == nil || !r.ResolvedAt.Before(*f.ResolvedBefore)) {
			return
		}
		n++
	}

	if len(f.Statuses) == 0 {
		for _, r := range s.docs {
			check(r)
		}
		return n, nil
	}
	for _, st := range slices.Compact(slices.Sorted(slices.Values(f.Statuses))) {
		for id := range s.byStatus[st] {
			check(s.docs[id])
		}
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len is the number of stored reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
