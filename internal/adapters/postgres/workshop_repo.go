package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mechlink/mechlink/internal/core/domain"
)

const workshopColumns = `
	id, name, COALESCE(description, ''), address, city,
	COALESCE(state, ''), COALESCE(postal_code, ''), COALESCE(phone, ''),
	COALESCE(email, ''), COALESCE(website, ''),
	latitude, longitude,
	COALESCE(services, '[]'::jsonb), COALESCE(specialties, '[]'::jsonb),
	COALESCE(working_hours, '{}'::jsonb),
	rating_average, total_reviews, years_in_business,
	is_active, is_verified, created_at`

// WorkshopRepo implements ports.WorkshopRepository with pgx.
type WorkshopRepo struct {
	db *DB
}

// NewWorkshopRepo creates a new WorkshopRepo.
func NewWorkshopRepo(db *DB) *WorkshopRepo {
	return &WorkshopRepo{db: db}
}

// FindActiveInBounds returns active workshops with coordinates inside b that
// pass the attribute thresholds of f.
func (r *WorkshopRepo) FindActiveInBounds(ctx context.Context, b domain.Bounds, f domain.AttributeFilter) ([]domain.Workshop, error) {
	query, args := boundsQuery(b, f)
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query workshops in bounds: %w", err)
	}
	return collectWorkshops(rows)
}

// boundsQuery builds the bounding-box query with optional threshold clauses.
func boundsQuery(b domain.Bounds, f domain.AttributeFilter) (string, []any) {
	where := []string{
		"is_active = TRUE",
		"latitude IS NOT NULL",
		"longitude IS NOT NULL",
		"latitude BETWEEN $1 AND $2",
		"longitude BETWEEN $3 AND $4",
	}
	args := []any{b.MinLat, b.MaxLat, b.MinLon, b.MaxLon}

	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if f.MinRating != nil {
		add("rating_average >= $%d", *f.MinRating)
	}
	if f.MinReviews != nil {
		add("total_reviews >= $%d", *f.MinReviews)
	}
	if f.VerifiedOnly {
		where = append(where, "is_verified = TRUE")
	}
	if f.MinYearsInBusiness != nil {
		add("years_in_business >= $%d", *f.MinYearsInBusiness)
	}
	if f.MaxYearsInBusiness != nil {
		add("years_in_business <= $%d", *f.MaxYearsInBusiness)
	}

	return "SELECT " + workshopColumns + "\nFROM workshops\nWHERE " + strings.Join(where, "\n  AND "), args
}

// GetByID returns a workshop by id.
func (r *WorkshopRepo) GetByID(ctx context.Context, id string) (*domain.Workshop, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE id = $1`, id)
	w, err := scanWorkshop(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrWorkshopNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get workshop %s: %w", id, err)
	}
	return w, nil
}

// ListActive returns every active workshop, located or not.
func (r *WorkshopRepo) ListActive(ctx context.Context) ([]domain.Workshop, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+workshopColumns+` FROM workshops WHERE is_active = TRUE ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list active workshops: %w", err)
	}
	return collectWorkshops(rows)
}

// ListMissingLocation returns active workshops lacking a latitude or longitude.
func (r *WorkshopRepo) ListMissingLocation(ctx context.Context, limit int) ([]domain.Workshop, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+workshopColumns+`
		FROM workshops
		WHERE is_active = TRUE AND (latitude IS NULL OR longitude IS NULL)
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list workshops missing location: %w", err)
	}
	return collectWorkshops(rows)
}

// UpdateLocation stores both coordinates of a workshop.
func (r *WorkshopRepo) UpdateLocation(ctx context.Context, id string, loc domain.GeoPoint) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE workshops SET latitude = $2, longitude = $3, updated_at = now()
		WHERE id = $1
	`, id, loc.Lat, loc.Lon)
	if err != nil {
		return fmt.Errorf("update workshop location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrWorkshopNotFound, id)
	}
	return nil
}

// Upsert inserts or updates a workshop by id.
func (r *WorkshopRepo) Upsert(ctx context.Context, w *domain.Workshop) error {
	var lat, lon *float64
	if w.Location != nil {
		lat, lon = &w.Location.Lat, &w.Location.Lon
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO workshops (
			id, name, description, address, city, state, postal_code, phone, email, website,
			latitude, longitude, services, specialties, working_hours,
			rating_average, total_reviews, years_in_business, is_active, is_verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    address = EXCLUDED.address, city = EXCLUDED.city, state = EXCLUDED.state,
		    postal_code = EXCLUDED.postal_code, phone = EXCLUDED.phone,
		    email = EXCLUDED.email, website = EXCLUDED.website,
		    latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
		    services = EXCLUDED.services, specialties = EXCLUDED.specialties,
		    working_hours = EXCLUDED.working_hours,
		    rating_average = EXCLUDED.rating_average, total_reviews = EXCLUDED.total_reviews,
		    years_in_business = EXCLUDED.years_in_business,
		    is_active = EXCLUDED.is_active, is_verified = EXCLUDED.is_verified,
		    updated_at = now()
	`, w.ID, w.Name, w.Description, w.Address, w.City, w.State, w.PostalCode, w.Phone, w.Email, w.Website,
		lat, lon, nonNilStrings(w.Services), nonNilStrings(w.Specialties), nonNilSchedule(w.WorkingHours),
		w.RatingAverage, w.TotalReviews, w.YearsInBusiness, w.IsActive, w.IsVerified)
	if err != nil {
		return fmt.Errorf("upsert workshop %s: %w", w.ID, err)
	}
	return nil
}

func collectWorkshops(rows pgx.Rows) ([]domain.Workshop, error) {
	defer rows.Close()

	var out []domain.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *w)
	}
	return out, rows.Err()
}

func scanWorkshop(row pgx.Row) (*domain.Workshop, error) {
	var (
		w                            domain.Workshop
		lat, lon                     *float64
		services, specialties, hours []byte
	)
	err := row.Scan(
		&w.ID, &w.Name, &w.Description, &w.Address, &w.City,
		&w.State, &w.PostalCode, &w.Phone,
		&w.Email, &w.Website,
		&lat, &lon,
		&services, &specialties,
		&hours,
		&w.RatingAverage, &w.TotalReviews, &w.YearsInBusiness,
		&w.IsActive, &w.IsVerified, &w.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.Location = domain.NewLocation(lat, lon)

	var ok bool
	if w.Services, ok = decodeLabels(services); !ok {
		slog.Warn("workshop services malformed, keeping string entries", "workshop_id", w.ID)
	}
	if w.Specialties, ok = decodeLabels(specialties); !ok {
		slog.Warn("workshop specialties malformed, keeping string entries", "workshop_id", w.ID)
	}
	if w.WorkingHours, ok = decodeSchedule(hours); !ok {
		slog.Warn("workshop working hours malformed, treating bad days as closed", "workshop_id", w.ID)
	}
	return &w, nil
}

// decodeLabels reads a JSON array of strings, dropping anything that is not
// a string. ok is false when something had to be dropped.
func decodeLabels(raw []byte) ([]string, bool) {
	if len(raw) == 0 {
		return nil, true
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	ok := true
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			ok = false
			continue
		}
		out = append(out, s)
	}
	return out, ok
}

// decodeSchedule reads a day -> "HH:MM-HH:MM" object. Unknown days and
// non-string intervals are dropped, so those days read as closed.
func decodeSchedule(raw []byte) (domain.WeeklySchedule, bool) {
	if len(raw) == 0 {
		return domain.WeeklySchedule{}, true
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal(raw, &days); err != nil {
		return domain.WeeklySchedule{}, false
	}
	ok := true
	out := make(domain.WeeklySchedule, len(days))
	for day, v := range days {
		if string(v) == "null" {
			continue
		}
		var interval string
		wd, valid := domain.ParseWeekday(day)
		if !valid || json.Unmarshal(v, &interval) != nil {
			ok = false
			continue
		}
		out[wd] = interval
	}
	return out, ok
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilSchedule(s domain.WeeklySchedule) domain.WeeklySchedule {
	if s == nil {
		return domain.WeeklySchedule{}
	}
	return s
}
