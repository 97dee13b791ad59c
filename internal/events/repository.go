package events

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupetto/grupetto/internal/platform/db"
	"github.com/grupetto/grupetto/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the event directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, organizer_id, title, description, location, discipline, event_type, event_date, event_time, image_url, registration_link, photos_link, is_published, created_at, updated_at`

// InsertWithCategories persists an event and its categories atomically.
func (r *Repository) InsertWithCategories(ctx context.Context, event Event, categories []Category) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO events (`+eventColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			event.ID, event.OrganizerID, event.Title, event.Description, event.Location,
			string(event.Discipline), string(event.EventType), event.EventDate, event.EventTime,
			event.ImageURL, event.RegistrationLink, event.PhotosLink, event.IsPublished,
			event.CreatedAt, event.UpdatedAt)
		if err != nil {
			return err
		}
		for _, cat := range categories {
			if err := insertCategory(ctx, tx, cat); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update rewrites the mutable event fields.
func (r *Repository) Update(ctx context.Context, event Event) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET title=$2, description=$3, location=$4, discipline=$5, event_type=$6,
event_date=$7, event_time=$8, image_url=$9, registration_link=$10, photos_link=$11, updated_at=NOW()
WHERE id=$1`,
		event.ID, event.Title, event.Description, event.Location, string(event.Discipline), string(event.EventType),
		event.EventDate, event.EventTime, event.ImageURL, event.RegistrationLink, event.PhotosLink)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetPublished flips the publication flag.
func (r *Repository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET is_published=$2, updated_at=NOW() WHERE id=$1`, id, published)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Get fetches a single event by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Event, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, shared.ErrNotFound
		}
		return Event{}, err
	}
	return event, nil
}

// ListPublished returns published events, soonest first. Discipline and
// event type filters become WHERE clauses.
func (r *Repository) ListPublished(ctx context.Context, filters ListFilters) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_published`
	var args []any
	if filters.Discipline != "" {
		args = append(args, string(filters.Discipline))
		query += ` AND discipline=$` + strconv.Itoa(len(args))
	}
	if filters.EventType != "" {
		args = append(args, string(filters.EventType))
		query += ` AND event_type=$` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY event_date`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// ListByOrganizer returns an organizer's events, drafts included.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE organizer_id=$1 ORDER BY event_date DESC`, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

// OrganizerID resolves the owner of an event.
func (r *Repository) OrganizerID(ctx context.Context, eventID uuid.UUID) (uuid.UUID, error) {
	var organizerID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT organizer_id FROM events WHERE id=$1`, eventID).Scan(&organizerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return organizerID, nil
}

// InsertCategory adds a category to an existing event.
func (r *Repository) InsertCategory(ctx context.Context, cat Category) error {
	return insertCategory(ctx, r.pool, cat)
}

// ListCategories returns the categories for an event.
func (r *Repository) ListCategories(ctx context.Context, eventID uuid.UUID) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, event_id, name, age_range, distance, elevation, price, created_at
FROM event_categories WHERE event_id=$1 ORDER BY name`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.EventID, &cat.Name, &cat.AgeRange, &cat.Distance, &cat.Elevation, &cat.Price, &cat.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryBelongs reports whether categoryID is defined under eventID.
func (r *Repository) CategoryBelongs(ctx context.Context, categoryID, eventID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM event_categories WHERE id=$1 AND event_id=$2)`, categoryID, eventID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ApprovedCount counts confirmed registrations for an event.
func (r *Repository) ApprovedCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id=$1 AND status='approved'`, eventID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func insertCategory(ctx context.Context, db execer, cat Category) error {
	_, err := db.Exec(ctx, `INSERT INTO event_categories (id, event_id, name, age_range, distance, elevation, price, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cat.ID, cat.EventID, cat.Name, cat.AgeRange, cat.Distance, cat.Elevation, cat.Price, cat.CreatedAt)
	return err
}

func scanEvent(row pgx.Row) (Event, error) {
	var event Event
	var discipline, eventType string
	if err := row.Scan(&event.ID, &event.OrganizerID, &event.Title, &event.Description, &event.Location,
		&discipline, &eventType, &event.EventDate, &event.EventTime, &event.ImageURL,
		&event.RegistrationLink, &event.PhotosLink, &event.IsPublished, &event.CreatedAt, &event.UpdatedAt); err != nil {
		return Event{}, err
	}
	event.Discipline = Discipline(discipline)
	event.EventType = EventType(eventType)
	return event, nil
}

func collectEvents(rows pgx.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
