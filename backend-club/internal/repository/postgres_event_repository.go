package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gronit/club-portal/backend-club/internal/domain"
)

const eventColumns = `
	id, title, content, author, description, registration_link,
	image_url, image_public_id, date, registration_start_date, registration_end_date,
	max_participants, current_participants, is_registration_open,
	COALESCE(location, '') AS location, event_type, tags, created_at, updated_at`

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Create creates a new event
func (r *PostgresEventRepository) Create(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (
			id, title, content, author, description, registration_link,
			image_url, image_public_id, date, registration_start_date, registration_end_date,
			max_participants, current_participants, is_registration_open,
			location, event_type, tags, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Content,
		event.Author,
		event.Description,
		event.RegistrationLink,
		event.ImageURL,
		event.ImagePublicID,
		event.Date,
		event.RegistrationStartDate,
		event.RegistrationEndDate,
		event.MaxParticipants,
		event.CurrentParticipants,
		event.IsRegistrationOpen,
		nullStringOrValue(event.Location),
		event.EventType,
		tagsOrEmpty(event.Tags),
		event.CreatedAt,
		event.UpdatedAt,
	)
	return err
}

// GetByID retrieves an event by ID
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// List retrieves events for a period. Upcoming events are ordered soonest
// first; past and all are ordered most recent first.
func (r *PostgresEventRepository) List(ctx context.Context, filter EventFilter) ([]*domain.Event, int, error) {
	whereClause := ""
	orderBy := "date DESC"
	args := []any{}
	argIndex := 1

	switch filter.Period {
	case domain.EventPeriodUpcoming:
		whereClause = fmt.Sprintf("WHERE date > $%d", argIndex)
		orderBy = "date ASC"
		args = append(args, filter.Now)
		argIndex++
	case domain.EventPeriodPast:
		whereClause = fmt.Sprintf("WHERE date <= $%d", argIndex)
		args = append(args, filter.Now)
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events %s", whereClause)
	var totalCount int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		%s
		ORDER BY %s, created_at DESC
		LIMIT $%d OFFSET $%d
	`, eventColumns, whereClause, orderBy, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return events, totalCount, nil
}

// Update replaces every mutable column of an event
func (r *PostgresEventRepository) Update(ctx context.Context, event *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, content = $3, description = $4, registration_link = $5,
		    image_url = $6, image_public_id = $7, date = $8,
		    registration_start_date = $9, registration_end_date = $10,
		    max_participants = $11, current_participants = $12, is_registration_open = $13,
		    location = $14, event_type = $15, tags = $16, updated_at = $17
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		event.ID,
		event.Title,
		event.Content,
		event.Description,
		event.RegistrationLink,
		event.ImageURL,
		event.ImagePublicID,
		event.Date,
		event.RegistrationStartDate,
		event.RegistrationEndDate,
		event.MaxParticipants,
		event.CurrentParticipants,
		event.IsRegistrationOpen,
		nullStringOrValue(event.Location),
		event.EventType,
		tagsOrEmpty(event.Tags),
		event.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an event
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	result, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	event := &domain.Event{}
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Content,
		&event.Author,
		&event.Description,
		&event.RegistrationLink,
		&event.ImageURL,
		&event.ImagePublicID,
		&event.Date,
		&event.RegistrationStartDate,
		&event.RegistrationEndDate,
		&event.MaxParticipants,
		&event.CurrentParticipants,
		&event.IsRegistrationOpen,
		&event.Location,
		&event.EventType,
		&event.Tags,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Date = event.Date.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	event.UpdatedAt = event.UpdatedAt.UTC()
	return event, nil
}

// nullStringOrValue returns nil for empty strings, otherwise returns the value
func nullStringOrValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
