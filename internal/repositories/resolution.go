package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/featx/internal/models"
	"github.com/desertthunder/featx/internal/shared"
)

// ResolutionRepository implements models.Repository[*models.PersistedResolution].
//
// One row per streaming-service track id; the UNIQUE(track_id) constraint
// keeps repeated resolve runs from accumulating duplicates.
type ResolutionRepository struct {
	db *sql.DB
}

// NewResolutionRepository creates a new ResolutionRepository with the given database connection
func NewResolutionRepository(db *sql.DB) *ResolutionRepository {
	return &ResolutionRepository{db: db}
}

// Create inserts a new [models.PersistedResolution] with a generated ID
func (r *ResolutionRepository) Create(res *models.PersistedResolution) error {
	id := shared.GenerateID()
	res.SetID(id)

	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO resolutions (id, track_id, analysis_id, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		id,
		res.TrackID(),
		nullableString(res.AnalysisID()),
		res.Reason(),
		res.CreatedAt(),
		res.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert resolution: %w", err)
	}

	return nil
}

// Get retrieves a resolution by its row ID
func (r *ResolutionRepository) Get(id string) (*models.PersistedResolution, error) {
	query := `
		SELECT id, track_id, analysis_id, reason, created_at, updated_at
		FROM resolutions
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves a resolution by the streaming-service track id
func (r *ResolutionRepository) GetByTrackID(trackID string) (*models.PersistedResolution, error) {
	query := `
		SELECT id, track_id, analysis_id, reason, created_at, updated_at
		FROM resolutions
		WHERE track_id = ?
	`

	return r.scanOne(r.db.QueryRow(query, trackID))
}

// Update modifies an existing resolution
func (r *ResolutionRepository) Update(res *models.PersistedResolution) error {
	if err := res.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	res.SetUpdatedAt(now)

	query := `
		UPDATE resolutions
		SET analysis_id = ?, reason = ?, updated_at = ?
		WHERE track_id = ?
	`

	result, err := r.db.Exec(query,
		nullableString(res.AnalysisID()),
		res.Reason(),
		now,
		res.TrackID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resolution not found: %s", res.TrackID())
	}

	return nil
}

// Delete removes a resolution by its row ID
func (r *ResolutionRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM resolutions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete resolution: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("resolution not found: %s", id)
	}

	return nil
}

// List retrieves resolutions matching the given criteria
func (r *ResolutionRepository) List(criteria map[string]any) ([]*models.PersistedResolution, error) {
	query := `
		SELECT id, track_id, analysis_id, reason, created_at, updated_at
		FROM resolutions
		WHERE 1 = 1
	`

	args := []any{}

	if resolved, ok := criteria["resolved"].(bool); ok {
		if resolved {
			query += " AND analysis_id IS NOT NULL"
		} else {
			query += " AND analysis_id IS NULL"
		}
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*models.PersistedResolution
	for rows.Next() {
		res, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return resolutions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ResolutionRepository) scan(row rowScanner) (*models.PersistedResolution, error) {
	var (
		id         string
		trackID    string
		analysisID sql.NullString
		reason     string
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(&id, &trackID, &analysisID, &reason, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var aid *string
	if analysisID.Valid {
		value := analysisID.String
		aid = &value
	}

	res := models.NewPersistedResolution(trackID, aid, reason)
	res.SetID(id)
	res.SetCreatedAt(createdAt)
	res.SetUpdatedAt(updatedAt)

	return res, nil
}

// scanOne scans a single [sql.Row] into a [models.PersistedResolution]
func (r *ResolutionRepository) scanOne(row *sql.Row) (*models.PersistedResolution, error) {
	res, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resolution not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}
	return res, nil
}

// scanRow scans a row from [sql.Rows] into a [models.PersistedResolution]
func (r *ResolutionRepository) scanRow(rows *sql.Rows) (*models.PersistedResolution, error) {
	res, err := r.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan resolution: %w", err)
	}
	return res, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
