package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neurolens/neurolens/internal/db"
	"github.com/neurolens/neurolens/internal/domain"
)

// MinIDPrefix is the shortest id prefix GetByID resolves.
const MinIDPrefix = 4

const journalColumns = `id, session_id, emotion, category, advice_json, message, source, created_at`

// SQLiteJournalRepo implements JournalRepo using a SQLite database.
type SQLiteJournalRepo struct {
	db db.DBTX
}

var _ JournalRepo = (*SQLiteJournalRepo)(nil)

// NewSQLiteJournalRepo creates a new SQLiteJournalRepo.
func NewSQLiteJournalRepo(d db.DBTX) *SQLiteJournalRepo {
	return &SQLiteJournalRepo{db: d}
}

func (r *SQLiteJournalRepo) Create(ctx context.Context, e *domain.JournalEntry) error {
	advice := e.Advice
	if advice == nil {
		advice = []string{}
	}
	adviceJSON, err := json.Marshal(advice)
	if err != nil {
		return fmt.Errorf("encoding advice: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := `INSERT INTO journal_entries (` + journalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.SessionID,
		string(e.Emotion),
		string(e.Category),
		string(adviceJSON),
		e.Message,
		string(e.Source),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// GetByID returns the entry with id. When no id matches exactly, id is
// tried as a prefix of at least MinIDPrefix characters, which must match
// a single entry.
func (r *SQLiteJournalRepo) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries WHERE id = ?`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if len(id) < MinIDPrefix {
		return nil, fmt.Errorf("journal entry %s: %w", id, ErrNotFound)
	}
	return r.getByPrefix(ctx, id)
}

func (r *SQLiteJournalRepo) getByPrefix(ctx context.Context, prefix string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries
		WHERE id LIKE ? ESCAPE '\' LIMIT 2`
	rows, err := r.db.QueryContext(ctx, query, likeEscaper.Replace(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("finding journal entry by prefix: %w", err)
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	switch len(entries) {
	case 0:
		return nil, fmt.Errorf("journal entry %s: %w", prefix, ErrNotFound)
	case 1:
		return entries[0], nil
	}
	return nil, fmt.Errorf("journal entry %s: %w", prefix, ErrAmbiguous)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *SQLiteJournalRepo) ListRecent(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + journalColumns + ` FROM journal_entries
		ORDER BY created_at DESC, rowid DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent journal entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteJournalRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journal_entries
		WHERE session_id = ? ORDER BY created_at, rowid`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries by session: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *SQLiteJournalRepo) CountByEmotion(ctx context.Context, days int, now time.Time) ([]domain.EmotionCount, error) {
	since := now.UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	query := `SELECT emotion, COUNT(*) FROM journal_entries
		WHERE created_at >= ?
		GROUP BY emotion
		ORDER BY COUNT(*) DESC, emotion`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("counting journal entries by emotion: %w", err)
	}
	defer rows.Close()

	var counts []domain.EmotionCount
	for rows.Next() {
		var (
			emotion string
			n       int
		)
		if err := rows.Scan(&emotion, &n); err != nil {
			return nil, fmt.Errorf("scanning emotion count: %w", err)
		}
		counts = append(counts, domain.EmotionCount{Emotion: domain.Emotion(emotion), Count: n})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating emotion counts: %w", err)
	}
	return counts, nil
}

func (r *SQLiteJournalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting journal entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("journal entry %s: %w", id, ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (*domain.JournalEntry, error) {
	var (
		e                           domain.JournalEntry
		emotion, category, source   string
		adviceJSON, createdAtString string
	)
	if err := s.Scan(&e.ID, &e.SessionID, &emotion, &category, &adviceJSON, &e.Message, &source, &createdAtString); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning journal entry: %w", err)
	}
	e.Emotion = domain.Emotion(emotion)
	e.Category = domain.Category(category)
	e.Source = domain.ModelSource(source)
	if err := json.Unmarshal([]byte(adviceJSON), &e.Advice); err != nil {
		return nil, fmt.Errorf("decoding advice: %w", err)
	}
	created, err := time.Parse(time.RFC3339, createdAtString)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	e.CreatedAt = created
	return &e, nil
}

func scanEntries(rows *sql.Rows) ([]*domain.JournalEntry, error) {
	var entries []*domain.JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}
	return entries, nil
}
