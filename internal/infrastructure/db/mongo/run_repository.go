package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

const collectionRuns = "sync_runs"

var _ ports.AuditRepository = (*RunRepository)(nil)

// RunRepository stores one document per pipeline run.
type RunRepository struct {
	col *mongo.Collection
}

// NewRunRepository creates a RunRepository on the sync_runs collection.
func NewRunRepository(db *mongo.Database) *RunRepository {
	return &RunRepository{col: db.Collection(collectionRuns)}
}

// runDocument is the stored form of a run: the run itself, flattened, plus
// fields derived at insert time.
type runDocument struct {
	domain.SyncRun `bson:",inline"`
	DurationMS     int64     `bson:"duration_ms"`
	RecordedAt     time.Time `bson:"recorded_at"`
}

func newRunDocument(run *domain.SyncRun, now time.Time) runDocument {
	doc := runDocument{
		SyncRun:    *run,
		DurationMS: run.Duration().Milliseconds(),
		RecordedAt: now.UTC(),
	}
	doc.StartedAt = run.StartedAt.UTC()
	doc.FinishedAt = run.FinishedAt.UTC()
	if doc.Assigned == nil {
		doc.Assigned = []domain.Assignment{}
	}
	return doc
}

// InsertRun appends one run document. Uids are stored as int64; a uid above
// math.MaxInt64 fails to encode.
func (r *RunRepository) InsertRun(ctx context.Context, run *domain.SyncRun) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, newRunDocument(run, time.Now())); err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

// EnsureIndexes creates the index used to look up recent runs.
func (r *RunRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "started_at", Value: -1}},
		Options: options.Index().SetName("started_at_desc"),
	})
	return err
}
