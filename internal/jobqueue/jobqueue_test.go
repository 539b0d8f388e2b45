package jobqueue

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"fknsrs.biz/p/sorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fknsrs.biz/p/ytstats/internal/ctxdb"
	"fknsrs.biz/p/ytstats/models"
)

func init() {
	sorm.SetParameterPrefix("?")
}

func openTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range models.Schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return db
}

func addJob(t *testing.T, ctx context.Context, db *sql.DB, w *Worker, job *Job) {
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, w.Add(ctx, tx, job))
	require.NoError(t, tx.Commit())
}

func TestWorkerRunOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := ctxdb.WithDB(context.Background(), db)

	var gotPayload string
	w := NewWorker(map[string]WorkerFunction{
		"example_work": func(ctx context.Context, w *Worker, j *Job) (string, error) {
			gotPayload = j.Payload
			return "did the thing", nil
		},
	})

	addJob(t, ctx, db, w, &Job{QueueName: "example_work", Payload: "some-payload"})

	didRun, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, didRun)
	assert.Equal(t, "some-payload", gotPayload)

	var job Job
	require.NoError(t, sorm.FindFirstWhere(ctx, db, &job, "where queue_name = ?", "example_work"))
	require.NotNil(t, job.FinishedAt)
	require.NotNil(t, job.ReservedAt)
	require.NotNil(t, job.ReservedUntil)
	assert.False(t, job.CreatedAt.IsZero())
	assert.False(t, job.RunAfter.IsZero())
	assert.Contains(t, []string(job.OutputMessages), "did the thing")

	_, err = w.RunOnce(ctx)
	assert.ErrorIs(t, err, ErrNoPendingJobs)
}

func TestWorkerRunOnceFailureRetries(t *testing.T) {
	db := openTestDB(t)
	ctx := ctxdb.WithDB(context.Background(), db)

	w := NewWorker(map[string]WorkerFunction{
		"example_work": func(ctx context.Context, w *Worker, j *Job) (string, error) {
			return "", fmt.Errorf("upstream exploded")
		},
	})

	addJob(t, ctx, db, w, &Job{QueueName: "example_work", Payload: "some-payload"})

	didRun, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, didRun)

	var job Job
	require.NoError(t, sorm.FindFirstWhere(ctx, db, &job, "where queue_name = ?", "example_work"))
	assert.Nil(t, job.FinishedAt, "a failed job with attempts remaining stays pending")
	assert.Equal(t, 4, job.AttemptsRemaining)
	assert.True(t, job.RunAfter.After(job.CreatedAt))
	assert.Contains(t, []string(job.ErrorMessages), "upstream exploded")
}

func TestWorkerAddUnknownQueue(t *testing.T) {
	db := openTestDB(t)
	ctx := ctxdb.WithDB(context.Background(), db)

	w := NewWorker(nil)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	assert.ErrorIs(t, w.Add(ctx, tx, &Job{QueueName: "nobody_home"}), ErrWorkerDoesNotExist)
}
