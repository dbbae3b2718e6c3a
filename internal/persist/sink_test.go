package persist

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go-actuarylist-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type key struct{ title, company string }

// fakeSession keeps committed rows apart from the open transaction, like
// the pgx session does.
type fakeSession struct {
	committed map[key]bool
	pending   []key

	failInsert  map[string]bool // by title
	failCommitN map[int]bool    // 1-based commit call
	commits     int
	rollbacks   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{committed: map[key]bool{}, failInsert: map[string]bool{}, failCommitN: map[int]bool{}}
}

func (f *fakeSession) FindByNaturalKey(_ context.Context, title, company string) (bool, error) {
	k := key{title, company}
	if f.committed[k] {
		return true, nil
	}
	for _, p := range f.pending {
		if p == k {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSession) Insert(_ context.Context, l models.Listing) error {
	if f.failInsert[l.Title] {
		return errors.New("value too long")
	}
	f.pending = append(f.pending, key{l.Title, l.Company})
	return nil
}

func (f *fakeSession) Commit(context.Context) error {
	f.commits++
	if f.failCommitN[f.commits] {
		f.pending = nil
		return errors.New("connection reset")
	}
	for _, k := range f.pending {
		f.committed[k] = true
	}
	f.pending = nil
	return nil
}

func (f *fakeSession) Rollback(context.Context) error {
	f.rollbacks++
	f.pending = nil
	return nil
}

func listings(n int) []models.Listing {
	out := make([]models.Listing, n)
	for i := range out {
		out[i] = models.Listing{Title: fmt.Sprintf("Actuary %d", i), Company: "Acme", Location: "Remote"}
	}
	return out
}

func TestPersist_SavesAndIsIdempotent(t *testing.T) {
	session := newFakeSession()
	sink := NewSink(session, 0, zap.NewNop())
	input := listings(7)

	first, err := sink.Persist(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, Result{Saved: 7}, first)

	second, err := sink.Persist(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, Result{Duplicates: 7}, second)
	assert.Len(t, session.committed, 7)
}

func TestPersist_DuplicateWithinInput(t *testing.T) {
	session := newFakeSession()
	input := append(listings(2), listings(1)...)

	res, err := NewSink(session, 10, nil).Persist(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, Result{Saved: 2, Duplicates: 1}, res)
}

func TestPersist_CommitsEveryBatch(t *testing.T) {
	session := newFakeSession()

	res, err := NewSink(session, DefaultBatchSize, nil).Persist(context.Background(), listings(120))
	require.NoError(t, err)
	assert.Equal(t, 120, res.Saved)
	assert.Equal(t, 3, session.commits, "two full batches plus the final commit")
}

func TestPersist_InsertErrorContinues(t *testing.T) {
	session := newFakeSession()
	input := listings(4)
	session.failInsert[input[1].Title] = true

	res, err := NewSink(session, 2, nil).Persist(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, Result{Saved: 3, Errors: 1}, res)
	assert.False(t, session.committed[key{input[1].Title, "Acme"}])
	assert.True(t, session.committed[key{input[3].Title, "Acme"}])
}

func TestPersist_CommitFailureMovesBatchToErrors(t *testing.T) {
	session := newFakeSession()
	session.failCommitN[1] = true

	res, err := NewSink(session, 3, nil).Persist(context.Background(), listings(5))
	require.NoError(t, err)
	assert.Equal(t, Result{Saved: 2, Errors: 3}, res)
	assert.Equal(t, 1, session.rollbacks)
	assert.Len(t, session.committed, 2)
}

func TestPersist_CancelledContext(t *testing.T) {
	session := newFakeSession()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSink(session, 3, nil).Persist(ctx, listings(2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Result{}, res)
	assert.Empty(t, session.committed)
}

func TestResult_String(t *testing.T) {
	assert.Equal(t, "saved=1 duplicates=2 errors=3", Result{Saved: 1, Duplicates: 2, Errors: 3}.String())
}
