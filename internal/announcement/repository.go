package announcement

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoCheck inspects the row locked for a photo update. A non-nil error
// aborts the transaction without writing.
type PhotoCheck func(locked *Announcement) error

type Repository interface {
	Create(ctx context.Context, a *Announcement) error
	GetByID(ctx context.Context, id string) (*Announcement, error)
	List(ctx context.Context) ([]*Announcement, error)

	// UpdatePhoto locks the row (SELECT ... FOR UPDATE), runs check against
	// the locked state and sets photo_url to key inside one transaction.
	UpdatePhoto(ctx context.Context, id, key string, check PhotoCheck) (*Announcement, error)

	// Delete removes the row and returns the photo key it referenced, if any.
	Delete(ctx context.Context, id string) (*string, error)
}

const table = "public.announcements"

var columns = []string{
	"id", "pet_name", "species", "breed", "sex", "age", "description", "microchip_number",
	"location_latitude", "location_longitude", "last_seen_date", "email", "phone",
	"photo_url", "status", "management_password_hash", "reward", "created_at", "updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, a *Announcement) error {
	var lat, lng *float64
	if a.Location != nil {
		lat, lng = &a.Location.Latitude, &a.Location.Longitude
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert(table).
		Columns(
			"id", "pet_name", "species", "breed", "sex", "age", "description", "microchip_number",
			"location_latitude", "location_longitude", "last_seen_date", "email", "phone",
			"status", "management_password_hash", "reward",
		).
		Values(
			a.ID, a.PetName, string(a.Species), a.Breed, string(a.Sex), a.Age, a.Description, a.MicrochipNumber,
			lat, lng, a.LastSeenDate, a.Email, a.Phone,
			string(a.Status), a.ManagementPasswordHash, a.Reward,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create announcement query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("create announcement failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Announcement, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get announcement query failed: %w", err)
	}

	a, err := scanAnnouncement(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get announcement failed: %w", err)
	}
	return a, nil
}

func (r *pgxRepository) List(ctx context.Context) ([]*Announcement, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list announcement query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list announcements failed: %w", err)
	}
	defer rows.Close()

	var result []*Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement failed: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list announcements failed: %w", err)
	}

	return result, nil
}

func (r *pgxRepository) UpdatePhoto(ctx context.Context, id, key string, check PhotoCheck) (*Announcement, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	lockQuery, lockArgs, err := psql.Select(columns...).
		From(table).
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock announcement query failed: %w", err)
	}

	updateQuery, updateArgs, err := psql.Update(table).
		Set("photo_url", key).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update photo query failed: %w", err)
	}

	var updated *Announcement
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		locked, err := scanAnnouncement(tx.QueryRow(ctx, lockQuery, lockArgs...))
		if err != nil {
			if isNotFound(err) {
				return ErrNotFound
			}
			return fmt.Errorf("lock announcement failed: %w", err)
		}

		if check != nil {
			if err := check(locked); err != nil {
				return err
			}
		}

		if err := tx.QueryRow(ctx, updateQuery, updateArgs...).Scan(&locked.UpdatedAt); err != nil {
			return fmt.Errorf("update announcement photo failed: %w", err)
		}
		locked.PhotoURL = &key
		updated = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) (*string, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Delete(table).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING photo_url").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete announcement query failed: %w", err)
	}

	var photoURL *string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&photoURL); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete announcement failed: %w", err)
	}
	return photoURL, nil
}

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var (
		a        Announcement
		species  string
		sex      string
		status   string
		lat, lng *float64
	)
	if err := row.Scan(
		&a.ID, &a.PetName, &species, &a.Breed, &sex, &a.Age, &a.Description, &a.MicrochipNumber,
		&lat, &lng, &a.LastSeenDate, &a.Email, &a.Phone,
		&a.PhotoURL, &status, &a.ManagementPasswordHash, &a.Reward, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Species = Species(species)
	a.Sex = Sex(sex)
	a.Status = Status(status)
	if lat != nil && lng != nil {
		a.Location = &Location{Latitude: *lat, Longitude: *lng}
	}
	return &a, nil
}

// isNotFound treats a missing row and an id that is not a valid uuid alike.
func isNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation
}
