package court

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/polideportivo-booking/internal/db"
	"github.com/nekogravitycat/polideportivo-booking/internal/pkg/response"
)

// Repository defines data access methods for courts.
type Repository interface {
	Create(ctx context.Context, c *Court) error
	GetByID(ctx context.Context, id string) (*Court, error)
	List(ctx context.Context, filter Filter) ([]*Court, int, error)
	Update(ctx context.Context, c *Court) error
	SetMaintenance(ctx context.Context, id string, underMaintenance bool) error
	Delete(ctx context.Context, id string, guard func(ctx context.Context) error) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var courtColumns = []string{
	"c.id", "c.venue_id", "v.name", "c.name", "c.type",
	"c.hourly_price_cents", "c.under_maintenance", "c.created_at",
}

func (r *pgxRepository) Create(ctx context.Context, c *Court) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.courts").
		Columns("venue_id", "name", "type", "hourly_price_cents", "under_maintenance").
		Values(c.VenueID, c.Name, c.Type, c.HourlyPriceCents, c.UnderMaintenance).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create court query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		switch {
		case db.IsUniqueViolation(err):
			return ErrDuplicateName
		case db.IsForeignKeyViolation(err):
			return ErrInvalidVenue
		}
		return fmt.Errorf("create court failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Court, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(courtColumns...).
		From("public.courts c").
		Join("public.venues v ON c.venue_id = v.id").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get court query failed: %w", err)
	}

	var c Court
	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.VenueID, &c.VenueName, &c.Name, &c.Type,
		&c.HourlyPriceCents, &c.UnderMaintenance, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get court failed: %w", err)
	}
	return &c, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Court, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(append(courtColumns, "count(*) OVER() as total_count")...).
		From("public.courts c").
		Join("public.venues v ON c.venue_id = v.id")

	if filter.VenueID != "" {
		query = query.Where(squirrel.Eq{"c.venue_id": filter.VenueID})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"c.type": filter.Type})
	}
	if filter.UnderMaintenance != nil {
		query = query.Where(squirrel.Eq{"c.under_maintenance": *filter.UnderMaintenance})
	}

	orderBy := "c.name"
	if filter.SortBy != "" {
		// Safe to prepend c. as we only allow specific fields in the handler validation
		orderBy = "c." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	page, pageSize := response.NormalizePage(filter.Page, filter.PageSize)
	query = query.Limit(uint64(pageSize)).Offset(response.Offset(page, pageSize))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list courts query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list courts failed: %w", err)
	}
	defer rows.Close()

	var courts []*Court
	var total int
	for rows.Next() {
		var c Court
		if err := rows.Scan(
			&c.ID, &c.VenueID, &c.VenueName, &c.Name, &c.Type,
			&c.HourlyPriceCents, &c.UnderMaintenance, &c.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan court failed: %w", err)
		}
		courts = append(courts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate courts failed: %w", err)
	}

	return courts, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, c *Court) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.courts").
		Set("name", c.Name).
		Set("type", c.Type).
		Set("hourly_price_cents", c.HourlyPriceCents).
		Where(squirrel.Eq{"id": c.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update court query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update court failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) SetMaintenance(ctx context.Context, id string, underMaintenance bool) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.courts").
		Set("under_maintenance", underMaintenance).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set maintenance query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set maintenance failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the court once guard returns nil. The court row is locked
// FOR UPDATE while guard runs, and reservation inserts lock it FOR SHARE, so
// no reservation can be added between the guard and the delete. The court's
// reservation history goes with it (ON DELETE CASCADE).
func (r *pgxRepository) Delete(ctx context.Context, id string, guard func(ctx context.Context) error) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.courts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete court query failed: %w", err)
	}

	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var locked string
		err := tx.QueryRow(ctx, "SELECT id FROM public.courts WHERE id = $1 FOR UPDATE", id).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock court failed: %w", err)
		}

		if err := guard(ctx); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("delete court failed: %w", err)
		}
		return nil
	})
}
