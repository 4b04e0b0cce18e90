// Package bolt is an embedded finding store for single-host deployments and
// offline analysis, backed by bbolt.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.etcd.io/bbolt"

	"tendersight/internal/domain"
)

var bucketFindings = []byte("findings")

type Store struct {
	db *bbolt.DB
}

// Open creates or opens the database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open boltdb: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFindings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

type record struct {
	SubjectRecordID *string        `json:"subject_record_id,omitempty"`
	Kind            domain.Kind    `json:"kind"`
	Discriminator   string         `json:"discriminator,omitempty"`
	Description     string         `json:"description"`
	RawScore        float64        `json:"raw_score"`
	RiskScore       float64        `json:"risk_score"`
	DetectedAt      time.Time      `json:"detected_at"`
	Evidence        map[string]any `json:"evidence,omitempty"`
}

func (r record) finding() domain.Finding {
	return domain.Finding(r)
}

// Upsert writes the batch in one bbolt transaction. Findings that cannot be
// encoded are reported and skipped; a cancelled ctx discards the whole batch.
func (s *Store) Upsert(ctx context.Context, findings []domain.Finding) (int, error) {
	stored := 0
	var causes []error
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketFindings)
		for _, f := range findings {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := json.Marshal(record(f))
			if err == nil {
				id := f.ID()
				err = b.Put(id[:], data)
			}
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("finding", f.Key()).Msg("finding not stored")
				causes = append(causes, &domain.FindingWriteError{Key: f.Key(), Err: err})
				continue
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("write findings: %w", err)
	}
	if len(causes) > 0 {
		return stored, &domain.PartialPersistenceError{Failed: len(causes), Causes: causes}
	}
	return stored, nil
}

// All decodes every stored finding.
func (s *Store) All(ctx context.Context) ([]domain.Finding, error) {
	var out []domain.Finding
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFindings).ForEach(func(k, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode finding %x: %w", k, err)
			}
			out = append(out, r.finding())
			return nil
		})
	})
	return out, err
}

func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketFindings).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Store) Stats(ctx context.Context, since time.Time) (domain.FindingStats, error) {
	all, err := s.All(ctx)
	if err != nil {
		return domain.FindingStats{}, err
	}
	return domain.ComputeStats(all, since), nil
}
