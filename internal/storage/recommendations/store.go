// Package recommendations persists issued recommendations: postgres keeps the
// audit trail and redis serves repeated lookups by request id.
package recommendations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-acquisition/internal/common/logger"
	"storefront-acquisition/internal/common/metrics"
	"storefront-acquisition/internal/models"
)

var ErrNotFound = errors.New("recommendation not found")

const schema = `
CREATE TABLE IF NOT EXISTS acquisition_recommendations (
	request_id         TEXT PRIMARY KEY,
	label              TEXT NOT NULL,
	composite_score    DOUBLE PRECISION NOT NULL,
	status             TEXT NOT NULL,
	blocking_conflicts INTEGER NOT NULL,
	payload            JSONB NOT NULL,
	generated_at       TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
)`

type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.WithFields(map[string]interface{}{"component": "recommendation-store"}),
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create recommendations table: %w", err)
	}
	return nil
}

// Save upserts the recommendation; a re-evaluation of the same request
// replaces the previous row.
func (s *Store) Save(ctx context.Context, rec *models.Recommendation) error {
	if rec == nil || rec.RequestID == "" {
		return fmt.Errorf("save recommendation: request id is required")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recommendation %s: %w", rec.RequestID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO acquisition_recommendations (
			request_id, label, composite_score, status,
			blocking_conflicts, payload, generated_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (request_id) DO UPDATE SET
			label = EXCLUDED.label,
			composite_score = EXCLUDED.composite_score,
			status = EXCLUDED.status,
			blocking_conflicts = EXCLUDED.blocking_conflicts,
			payload = EXCLUDED.payload,
			generated_at = EXCLUDED.generated_at,
			updated_at = EXCLUDED.updated_at`,
		rec.RequestID,
		string(rec.Label),
		rec.CompositeScore,
		string(rec.Status),
		len(rec.BlockingConflicts),
		payload,
		rec.GeneratedAt,
		s.now(),
	)
	if err != nil {
		return fmt.Errorf("insert recommendation %s: %w", rec.RequestID, err)
	}

	s.logger.Debug("recommendation stored", map[string]interface{}{
		"requestId": rec.RequestID,
		"label":     rec.Label,
	})
	return nil
}

func (s *Store) Get(ctx context.Context, requestID string) (*models.Recommendation, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM acquisition_recommendations WHERE request_id = $1`,
		requestID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query recommendation %s: %w", requestID, err)
	}

	var rec models.Recommendation
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode recommendation %s: %w", requestID, err)
	}
	return &rec, nil
}

// CountByLabel reports how many stored recommendations carry each label.
func (s *Store) CountByLabel(ctx context.Context) (map[models.Label]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, COUNT(*) FROM acquisition_recommendations GROUP BY label ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("count recommendations: %w", err)
	}
	defer rows.Close()

	counts := map[models.Label]int{}
	for rows.Next() {
		var label string
		var n int
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan recommendation count: %w", err)
		}
		counts[models.Label(label)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation counts: %w", err)
	}
	return counts, nil
}

// ReportCounts refreshes the stored-recommendations gauge. Labels with no rows
// are reported as zero.
func (s *Store) ReportCounts(ctx context.Context) (map[models.Label]int, error) {
	counts, err := s.CountByLabel(ctx)
	if err != nil {
		return nil, err
	}
	for _, label := range []models.Label{models.LabelGo, models.LabelGoWithReserves, models.LabelNoGo} {
		metrics.RecommendationsStored.WithLabelValues(string(label)).Set(float64(counts[label]))
	}
	return counts, nil
}
