package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/polideportivo-booking/internal/db"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/apperror"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/response"
)

// Repository is the reservation store. Transient failures are reported as
// ErrTransientStore and corrupt rows as ErrInternal.
type Repository interface {
	// CreateIfFree inserts r unless an active reservation on the same court
	// and date overlaps it, in which case it returns ErrSlotTaken. The check
	// and the insert are atomic with respect to other creates on that court and date.
	// r.ID is assigned when empty. A stored row with the same ID counts as
	// success, so a retry after an ambiguous commit does not book twice.
	// A missing or deleted court yields ErrResourceUnavailable.
	CreateIfFree(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id string) (*Reservation, error)
	ListActiveByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*Reservation, error)
	// ListActiveByCourtSince returns active reservations on courtID dated on or after from.
	ListActiveByCourtSince(ctx context.Context, courtID string, from time.Time) ([]*Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]*Reservation, error)
	List(ctx context.Context, filter Filter) ([]*Reservation, int, error)
	// UpdateStatus moves id from status from to status to. It returns false,
	// without error, when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var reservationColumns = []string{
	"r.id", "r.user_id", "r.user_name", "r.user_national_id",
	"r.court_id", "c.name", "r.venue_id", "r.date", "r.start_minute", "r.end_minute",
	"r.add_ons", "r.price_cents", "r.status", "r.created_at", "r.updated_at",
}

func selectReservations(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(reservationColumns, extra...)...).
		From("public.reservations r").
		Join("public.courts c ON r.court_id = c.id")
}

func activeStatusValues() []string {
	out := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

// scanReservation reads one row and rejects rows that break the model.
func scanReservation(row pgx.Row, extra ...any) (*Reservation, error) {
	var (
		r          Reservation
		start, end int
		status     string
		addOns     []string
	)
	dest := append([]any{
		&r.ID, &r.UserID, &r.UserName, &r.UserNationalID,
		&r.CourtID, &r.CourtName, &r.VenueID, &r.Date, &start, &end,
		&addOns, &r.PriceCents, &status, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	r.Start = TimeOfDay(start)
	r.End = TimeOfDay(end)
	r.Status = Status(status)
	r.AddOns = addOns
	if r.AddOns == nil {
		r.AddOns = []string{}
	}
	if err := r.check(); err != nil {
		return nil, err
	}
	return &r, nil
}

func collect(rows pgx.Rows, extra ...any) ([]*Reservation, error) {
	defer rows.Close()

	var out []*Reservation
	for rows.Next() {
		r, err := scanReservation(rows, extra...)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// storeError tags transient failures; domain errors pass through.
func storeError(op string, err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case db.IsTransient(err):
		return fmt.Errorf("%s failed: %w: %w", op, ErrTransientStore, err)
	default:
		return fmt.Errorf("%s failed: %w", op, err)
	}
}

func listActiveByCourtAndDate(ctx context.Context, q db.Querier, courtID string, date time.Time) ([]*Reservation, error) {
	query, args, err := selectReservations().
		Where(squirrel.Eq{"r.court_id": courtID}).
		Where(squirrel.Eq{"r.date": date}).
		Where(squirrel.Eq{"r.status": activeStatusValues()}).
		OrderBy("r.start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list court day query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *pgxRepository) CreateIfFree(ctx context.Context, res *Reservation) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// Serializes creates on the same court and day until commit.
		lockKey := res.CourtID + "|" + FormatDate(res.Date)
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey); err != nil {
			return fmt.Errorf("lock court day failed: %w", err)
		}

		// A row with this id means an earlier attempt committed.
		err := tx.QueryRow(ctx,
			"SELECT created_at, updated_at FROM public.reservations WHERE id = $1", res.ID,
		).Scan(&res.CreatedAt, &res.UpdatedAt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check existing reservation failed: %w", err)
		}

		// Court deletion takes FOR UPDATE on the same row.
		var underMaintenance bool
		err = tx.QueryRow(ctx,
			"SELECT under_maintenance FROM public.courts WHERE id = $1 FOR SHARE", res.CourtID,
		).Scan(&underMaintenance)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrResourceUnavailable
		}
		if err != nil {
			return fmt.Errorf("lock court failed: %w", err)
		}
		if underMaintenance {
			return ErrResourceUnavailable.WithMessage("court is under maintenance")
		}

		existing, err := listActiveByCourtAndDate(ctx, tx, res.CourtID, res.Date)
		if err != nil {
			return err
		}
		if FindConflict(existing, res.Start, res.End) != nil {
			return ErrSlotTaken
		}

		query, args, err := psql.Insert("public.reservations").
			Columns(
				"id", "user_id", "user_name", "user_national_id", "court_id", "venue_id",
				"date", "start_minute", "end_minute", "add_ons", "price_cents", "status",
			).
			Values(
				res.ID, res.UserID, res.UserName, res.UserNationalID, res.CourtID, res.VenueID,
				res.Date, int(res.Start), int(res.End), res.AddOns, res.PriceCents, string(res.Status),
			).
			Suffix("RETURNING created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create reservation query failed: %w", err)
		}

		err = tx.QueryRow(ctx, query, args...).Scan(&res.CreatedAt, &res.UpdatedAt)
		if db.IsForeignKeyViolation(err) {
			return ErrResourceUnavailable
		}
		return err
	})
	return storeError("create reservation", err)
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	query, args, err := selectReservations().
		Where(squirrel.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get reservation query failed: %w", err)
	}

	res, err := scanReservation(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, storeError("get reservation", err)
	}
	return res, nil
}

func (r *pgxRepository) ListActiveByCourtAndDate(ctx context.Context, courtID string, date time.Time) ([]*Reservation, error) {
	out, err := listActiveByCourtAndDate(ctx, r.pool, courtID, date)
	return out, storeError("list court day reservations", err)
}

func (r *pgxRepository) ListActiveByCourtSince(ctx context.Context, courtID string, from time.Time) ([]*Reservation, error) {
	query, args, err := selectReservations().
		Where(squirrel.Eq{"r.court_id": courtID}).
		Where(squirrel.GtOrEq{"r.date": from}).
		Where(squirrel.Eq{"r.status": activeStatusValues()}).
		OrderBy("r.date ASC", "r.start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list upcoming query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("list upcoming reservations", err)
	}
	out, err := collect(rows)
	return out, storeError("list upcoming reservations", err)
}

func (r *pgxRepository) ListByUser(ctx context.Context, userID string) ([]*Reservation, error) {
	query, args, err := selectReservations().
		Where(squirrel.Eq{"r.user_id": userID}).
		OrderBy("r.date ASC", "r.start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list user reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeError("list user reservations", err)
	}
	out, err := collect(rows)
	return out, storeError("list user reservations", err)
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	query := selectReservations("count(*) OVER() as total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"r.user_id": filter.UserID})
	}
	if filter.CourtID != "" {
		query = query.Where(squirrel.Eq{"r.court_id": filter.CourtID})
	}
	if filter.VenueID != "" {
		query = query.Where(squirrel.Eq{"r.venue_id": filter.VenueID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"r.status": string(filter.Status)})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"r.date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.LtOrEq{"r.date": *filter.DateTo})
	}

	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	switch filter.SortBy {
	case "created_at", "price_cents", "status":
		query = query.OrderBy("r." + filter.SortBy + " " + orderDir)
	default:
		query = query.OrderBy("r.date "+orderDir, "r.start_minute "+orderDir)
	}

	page, pageSize := response.NormalizePage(filter.Page, filter.PageSize)
	query = query.Limit(uint64(pageSize)).Offset(response.Offset(page, pageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, storeError("list reservations", err)
	}

	var total int
	out, err := collect(rows, &total)
	if err != nil {
		return nil, 0, storeError("list reservations", err)
	}
	return out, total, nil
}

func (r *pgxRepository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	query, args, err := psql.Update("public.reservations").
		Set("status", string(to)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id, "status": string(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build update reservation status query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, storeError("update reservation status", err)
	}
	return ct.RowsAffected() == 1, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.reservations").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete reservation query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return storeError("delete reservation", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
