package postgres

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/KunalPandey-675/oceanResQ/internal/domain"
	"github.com/KunalPandey-675/oceanResQ/pkg/e"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
)

// ReportStore keeps hazard reports in the hazard_reports table.
type ReportStore struct {
	pool   *pgxpool.Pool
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewReportStore(pool *pgxpool.Pool, clock clockwork.Clock, logger *slog.Logger) *ReportStore {
	return &ReportStore{pool: pool, clock: clock, logger: logger}
}

const reportColumns = `
	id,
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lng,
	location_details,
	hazard_type,
	severity,
	description,
	evidence,
	contact_name,
	contact_phone,
	contact_email,
	status,
	priority,
	assigned_to,
	resolved_at,
	response_time,
	source,
	verified,
	verified_by,
	verified_at,
	created_at,
	updated_at`

var sortColumns = map[string]string{
	domain.SortByCreatedAt:  "created_at",
	domain.SortByUpdatedAt:  "updated_at",
	domain.SortByPriority:   "priority",
	domain.SortBySeverity:   "severity",
	domain.SortByStatus:     "status",
	domain.SortByHazardType: "hazard_type",
}

func scanReport(row pgx.Row) (*domain.HazardReport, error) {
	var r domain.HazardReport
	var priority int16
	err := row.Scan(
		&r.ID,
		&r.Location.Lat,
		&r.Location.Lng,
		&r.Location.Details,
		&r.HazardType,
		&r.Severity,
		&r.Description,
		&r.Evidence,
		&r.Contact.Name,
		&r.Contact.Phone,
		&r.Contact.Email,
		&r.Status,
		&priority,
		&r.AssignedTo,
		&r.ResolvedAt,
		&r.ResponseTime,
		&r.Source,
		&r.Verified,
		&r.VerifiedBy,
		&r.VerifiedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Priority = int(priority)
	if r.Evidence == nil {
		r.Evidence = []domain.Attachment{}
	}
	return &r, nil
}

func (s *ReportStore) Insert(ctx context.Context, r *domain.HazardReport) error {
	const op = "postgres.Report.Insert"

	if err := r.Validate(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := s.clock.Now().UTC().Truncate(time.Microsecond)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Microsecond)
	r.UpdatedAt = r.CreatedAt
	if r.Evidence == nil {
		r.Evidence = []domain.Attachment{}
	}

	const query = `
		INSERT INTO hazard_reports (
			id, location, location_details, hazard_type, severity, description,
			evidence, contact_name, contact_phone, contact_email, status, priority,
			assigned_to, resolved_at, response_time, source, verified, verified_by,
			verified_at, created_at, updated_at
		)
		VALUES (
			$1, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19,
			$20, $21, $22
		)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID,
		r.Location.Lng,
		r.Location.Lat,
		r.Location.Details,
		string(r.HazardType),
		string(r.Severity),
		r.Description,
		r.Evidence,
		r.Contact.Name,
		r.Contact.Phone,
		r.Contact.Email,
		string(r.Status),
		int16(r.Priority),
		r.AssignedTo,
		r.ResolvedAt,
		r.ResponseTime,
		string(r.Source),
		r.Verified,
		r.VerifiedBy,
		r.VerifiedAt,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (s *ReportStore) Get(ctx context.Context, id uuid.UUID) (*domain.HazardReport, error) {
	const op = "postgres.Report.Get"

	query := `SELECT ` + reportColumns + ` FROM hazard_reports WHERE id = $1`

	r, err := scanReport(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if !isNoRows(err) {
			s.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		}
		return nil, e.WrapError(ctx, op, err)
	}

	return r, nil
}

// Update applies p in one statement. The resolve candidate only lands when
// the new status is Resolved and resolved_at is still NULL, so the response
// time is computed at most once regardless of concurrent writers.
func (s *ReportStore) Update(ctx context.Context, id uuid.UUID, p domain.ReportPatch) (*domain.HazardReport, error) {
	const op = "postgres.Report.Update"

	query := `
		UPDATE hazard_reports
		SET status      = COALESCE($2::text, status),
			assigned_to = COALESCE($3::text, assigned_to),
			verified    = COALESCE($4::boolean, verified),
			verified_by = COALESCE($5::text, verified_by),
			verified_at = COALESCE($6::timestamptz, verified_at),
			resolved_at = CASE
				WHEN $2::text = 'Resolved' AND $7::timestamptz IS NOT NULL AND resolved_at IS NULL
				THEN $7::timestamptz
				ELSE resolved_at
			END,
			response_time = CASE
				WHEN $2::text = 'Resolved' AND $7::timestamptz IS NOT NULL AND resolved_at IS NULL
				THEN ROUND(EXTRACT(EPOCH FROM ($7::timestamptz - created_at)) / 60)::integer
				ELSE response_time
			END,
			updated_at = $8
		WHERE id = $1
		RETURNING ` + reportColumns

	var status *string
	if p.Status != nil {
		v := string(*p.Status)
		status = &v
	}

	now := s.clock.Now().UTC().Truncate(time.Microsecond)

	r, err := scanReport(s.pool.QueryRow(ctx, query,
		id,
		status,
		p.AssignedTo,
		p.Verified,
		p.VerifiedBy,
		truncPtr(p.VerifiedAt),
		truncPtr(p.ResolveAt),
		now,
	))
	if err != nil {
		if !isNoRows(err) {
			s.logger.Error("db update failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		}
		return nil, e.WrapError(ctx, op, err)
	}

	return r, nil
}

func (s *ReportStore) Delete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.Report.Delete"

	const query = `DELETE FROM hazard_reports WHERE id = $1`

	cmd, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		s.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, e.ErrNotFound)
	}

	return nil
}

func (s *ReportStore) Query(ctx context.Context, q domain.ReportQuery) ([]*domain.HazardReport, int64, error) {
	const op = "postgres.Report.Query"

	q = q.Normalize()

	var (
		conds []string
		args  []any
	)
	if q.Status != "" {
		args = append(args, string(q.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if q.Severity != "" {
		args = append(args, string(q.Severity))
		conds = append(conds, "severity = $"+strconv.Itoa(len(args)))
	}
	if q.HazardType != "" {
		args = append(args, string(q.HazardType))
		conds = append(conds, "hazard_type = $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hazard_reports`+where, args...).Scan(&total); err != nil {
		s.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "DESC"
	if q.SortOrder == domain.SortAsc {
		dir = "ASC"
	}
	order := fmt.Sprintf(" ORDER BY %s %s", col, dir)
	if col != "created_at" {
		order += ", created_at " + dir
	}
	order += ", id " + dir

	args = append(args, q.PageSize, q.Offset())
	listQuery := `SELECT ` + reportColumns + ` FROM hazard_reports` + where + order +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, listQuery, args...)
	if err != nil {
		s.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	reports := make([]*domain.HazardReport, 0, q.PageSize)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			s.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, 0, e.WrapError(ctx, op, err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, 0, e.WrapError(ctx, op, err)
	}

	return reports, total, nil
}

// FindNear measures on the sphere (use_spheroid=false) so distances agree
// with geo.Haversine.
func (s *ReportStore) FindNear(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.NearbyReport, error) {
	const op = "postgres.Report.FindNear"

	if radiusMeters <= 0 {
		return []domain.NearbyReport{}, nil
	}

	var lim *int
	if limit > 0 {
		lim = &limit
	}

	query := `
		WITH origin AS (
			SELECT ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography AS g
		)
		SELECT ` + reportColumns + `,
			ST_Distance(location, origin.g, false) AS distance
		FROM hazard_reports, origin
		WHERE ST_DWithin(location, origin.g, $3, false)
		ORDER BY distance, created_at, id
		LIMIT $4
	`

	rows, err := s.pool.Query(ctx, query, lng, lat, radiusMeters, lim)
	if err != nil {
		s.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	out := make([]domain.NearbyReport, 0, 8)
	for rows.Next() {
		var distance float64
		r, err := scanReport(&distanceRow{rows: rows, distance: &distance})
		if err != nil {
			s.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		out = append(out, domain.NearbyReport{Report: r, DistanceMeters: distance})
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return out, nil
}

// distanceRow appends the trailing distance column to a report scan.
type distanceRow struct {
	rows     pgx.Rows
	distance *float64
}

func (d *distanceRow) Scan(dest ...any) error {
	return d.rows.Scan(append(dest, d.distance)...)
}

// Scan streams reports created at or after createdAfter (all when nil),
// oldest first. Breaking out of the loop closes the cursor.
func (s *ReportStore) Scan(ctx context.Context, createdAfter *time.Time) iter.Seq2[*domain.HazardReport, error] {
	const op = "postgres.Report.Scan"

	return func(yield func(*domain.HazardReport, error) bool) {
		query := `SELECT ` + reportColumns + `
			FROM hazard_reports
			WHERE $1::timestamptz IS NULL OR created_at >= $1::timestamptz
			ORDER BY created_at, id`

		rows, err := s.pool.Query(ctx, query, createdAfter)
		if err != nil {
			s.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
			yield(nil, e.WrapError(ctx, op, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			r, err := scanReport(rows)
			if err != nil {
				s.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
				yield(nil, e.WrapError(ctx, op, err))
				return
			}
			if !yield(r, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			s.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
			yield(nil, e.WrapError(ctx, op, err))
		}
	}
}

func (s *ReportStore) Count(ctx context.Context, f domain.CountFilter) (int64, error) {
	const op = "postgres.Report.Count"

	var (
		conds []string
		args  []any
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, statuses)
		conds = append(conds, "status = ANY($"+strconv.Itoa(len(args))+")")
	}
	if f.CreatedAfter != nil {
		args = append(args, *f.CreatedAfter)
		conds = append(conds, "created_at >= $"+strconv.Itoa(len(args)))
	}
	if f.ResolvedAfter != nil {
		args = append(args, *f.ResolvedAfter)
		conds = append(conds, "resolved_at >= $"+strconv.Itoa(len(args)))
	}
	if f.ResolvedBefore != nil {
		args = append(args, *f.ResolvedBefore)
		conds = append(conds, "resolved_at < $"+strconv.Itoa(len(args)))
	}

	query := `SELECT COUNT(*) FROM hazard_reports`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		s.logger.Error("db count failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}

	return n, nil
}

func (s *ReportStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func truncPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
