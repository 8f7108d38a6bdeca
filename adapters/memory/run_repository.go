package memory

import (
	"context"
	"sort"
	"sync"

	"pipewiz/domain/core"
	"pipewiz/domain/run"
	"pipewiz/ports"
)

// RunRepository keeps run history in process memory. It is used when no
// database is configured.
type RunRepository struct {
	mu   sync.RWMutex
	runs []run.Record
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates an empty in-memory run repository
func NewRunRepository() *RunRepository {
	return &RunRepository{}
}

func (r *RunRepository) SaveRun(ctx context.Context, rec run.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, rec)
	return nil
}

func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.runs {
		if rec.ID == id {
			out := rec
			return &out, nil
		}
	}
	return nil, core.NewNotFoundError("run", id.String())
}

func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]run.Record, error) {
	r.mu.RLock()
	out := newestFirst(r.runs, func(run.Record) bool { return true })
	r.mu.RUnlock()

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *RunRepository) ListSessionRuns(ctx context.Context, session core.SessionID) ([]run.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.runs, func(rec run.Record) bool { return rec.SessionID == session }), nil
}

func newestFirst(all []run.Record, keep func(run.Record) bool) []run.Record {
	out := make([]run.Record, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if keep(all[i]) {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
