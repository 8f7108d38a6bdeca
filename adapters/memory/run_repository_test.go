package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipewiz/domain/core"
	"pipewiz/domain/run"
	"pipewiz/domain/training"
)

func TestRunRepository(t *testing.T) {
	repo := NewRunRepository()
	ctx := context.Background()
	s1, s2 := core.NewSessionID(), core.NewSessionID()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var ids []core.RunID
	for i, s := range []core.SessionID{s1, s2, s1} {
		rec := run.NewRecord(s, core.PayloadHash("fp"), "label", training.ModelLinear, false)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveRun(ctx, rec))
		ids = append(ids, rec.ID)
	}

	all, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	sess, err := repo.ListSessionRuns(ctx, s1)
	require.NoError(t, err)
	require.Len(t, sess, 2)
	assert.Equal(t, ids[2], sess[0].ID)

	got, err := repo.GetRun(ctx, ids[1])
	require.NoError(t, err)
	assert.Equal(t, s2, got.SessionID)

	got.Target = "changed"
	again, _ := repo.GetRun(ctx, ids[1])
	assert.Equal(t, "label", again.Target, "returned records are copies")

	_, err = repo.GetRun(ctx, core.NewRunID())
	assert.True(t, core.IsNotFoundError(err))
}
