package repository

import (
	"context"
	"testing"
	"time"

	"github.com/neurolens/neurolens/internal/domain"
	"github.com/neurolens/neurolens/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalRepo_CreateAndGet(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	e := testutil.NewTestEntry("I feel anxious",
		testutil.WithEmotion(domain.EmotionAnxious),
		testutil.WithCategory(domain.CategoryEmotionalJournal),
	)
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, domain.EmotionAnxious, got.Emotion)
	assert.Equal(t, domain.CategoryEmotionalJournal, got.Category)
	assert.Equal(t, []string{"Breathe", "Rest", "Reflect"}, got.Advice)
	assert.Equal(t, "I feel anxious", got.Message)
	assert.Equal(t, domain.SourceMock, got.Source)
	assert.True(t, e.CreatedAt.Equal(got.CreatedAt))
}

func TestJournalRepo_GetByID_NotFound(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJournalRepo_NilAdviceStoredAsEmpty(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	e := testutil.NewTestEntry("hello")
	e.Advice = nil
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Advice)
}

func TestJournalRepo_ListRecent(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, msg := range []string{"first", "second", "third"} {
		e := testutil.NewTestEntry(msg, testutil.WithCreatedAt(base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, repo.Create(ctx, e))
	}

	entries, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "third", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
}

func TestJournalRepo_ListBySession(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestEntry("a", testutil.WithSession("s1"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestEntry("b", testutil.WithSession("s2"))))
	require.NoError(t, repo.Create(ctx, testutil.NewTestEntry("c", testutil.WithSession("s1"))))

	entries, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Message)
	assert.Equal(t, "c", entries[1].Message)
}

func TestJournalRepo_CountByEmotion(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	add := func(e domain.Emotion, at time.Time) {
		require.NoError(t, repo.Create(ctx, testutil.NewTestEntry("x",
			testutil.WithEmotion(e), testutil.WithCreatedAt(at))))
	}
	add(domain.EmotionSad, now.Add(-time.Hour))
	add(domain.EmotionAnxious, now.Add(-2*time.Hour))
	add(domain.EmotionAnxious, now.Add(-48*time.Hour))
	add(domain.EmotionHappy, now.AddDate(0, 0, -30)) // outside window

	counts, err := repo.CountByEmotion(ctx, 7, now)
	require.NoError(t, err)
	assert.Equal(t, []domain.EmotionCount{
		{Emotion: domain.EmotionAnxious, Count: 2},
		{Emotion: domain.EmotionSad, Count: 1},
	}, counts)
}

func TestJournalRepo_Delete(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	e := testutil.NewTestEntry("bye")
	require.NoError(t, repo.Create(ctx, e))
	require.NoError(t, repo.Delete(ctx, e.ID))

	_, err := repo.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), ErrNotFound)
}

func TestJournalRepo_GetByID_Prefix(t *testing.T) {
	repo := NewSQLiteJournalRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	a := testutil.NewTestEntry("first")
	a.ID = "abcd1111-0000-0000-0000-000000000000"
	b := testutil.NewTestEntry("second")
	b.ID = "abcd2222-0000-0000-0000-000000000000"
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByID(ctx, "abcd1")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Message)

	_, err = repo.GetByID(ctx, "abcd")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = repo.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound, "prefixes shorter than MinIDPrefix are not resolved")

	_, err = repo.GetByID(ctx, "abc%")
	assert.ErrorIs(t, err, ErrNotFound, "wildcards are matched literally")
}
