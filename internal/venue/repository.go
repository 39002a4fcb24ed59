package venue

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

// Repository defines data access methods for venues.
type Repository interface {
	Create(ctx context.Context, v *Venue) error
	GetByID(ctx context.Context, id string) (*Venue, error)
	List(ctx context.Context, filter Filter) ([]*Venue, int, error)
	Update(ctx context.Context, v *Venue) error
	Delete(ctx context.Context, id string) error
	// CountCourts returns how many courts the venue owns.
	CountCourts(ctx context.Context, id string) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, v *Venue) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.venues").
		Columns("name", "address", "phone").
		Values(v.Name, v.Address, v.Phone).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create venue query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("create venue failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Venue, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "address", "phone", "created_at").
		From("public.venues").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get venue query failed: %w", err)
	}

	var v Venue
	err = r.pool.QueryRow(ctx, query, args...).Scan(&v.ID, &v.Name, &v.Address, &v.Phone, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get venue failed: %w", err)
	}
	return &v, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Venue, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select("id", "name", "address", "phone", "created_at", "count(*) OVER() as total_count").
		From("public.venues")

	if filter.Name != "" {
		query = query.Where(squirrel.ILike{"name": "%" + filter.Name + "%"})
	}

	// SortBy is restricted by the handler's binding rules.
	orderBy := "name"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
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
		return nil, 0, fmt.Errorf("build list venues query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list venues failed: %w", err)
	}
	defer rows.Close()

	var venues []*Venue
	var total int
	for rows.Next() {
		var v Venue
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.Phone, &v.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan venue failed: %w", err)
		}
		venues = append(venues, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate venues failed: %w", err)
	}

	return venues, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, v *Venue) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.venues").
		Set("name", v.Name).
		Set("address", v.Address).
		Set("phone", v.Phone).
		Where(squirrel.Eq{"id": v.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update venue query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("update venue failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete("public.venues").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete venue query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		// A court created after the service's check still trips the FK.
		if db.IsForeignKeyViolation(err) {
			return ErrHasDependents
		}
		return fmt.Errorf("delete venue failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CountCourts(ctx context.Context, id string) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.courts").
		Where(squirrel.Eq{"venue_id": id}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count courts query failed: %w", err)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count courts failed: %w", err)
	}
	return n, nil
}
