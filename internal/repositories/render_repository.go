package repositories

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"reel/internal/models"
)

//go:embed schema.sql
var schemaSQL string

var (
	ErrRenderNotFound = errors.New("render not found")
	ErrRenderExists   = errors.New("render id already exists")
)

// MaxErrorText bounds error_text.
const MaxErrorText = 2000

const renderColumns = `id, composition_id, source_key, output_key, width, height, fps,
	duration_in_frames, status, progress, error_text, created_at, started_at, finished_at`

type RenderRepository struct {
	db *pgxpool.Pool
}

func NewRenderRepository(db *pgxpool.Pool) *RenderRepository {
	return &RenderRepository{db: db}
}

// EnsureSchema creates the renders table and its index if missing.
func (r *RenderRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

func (r *RenderRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *RenderRepository) Create(ctx context.Context, m *models.Render) error {
	var status string
	err := r.db.QueryRow(ctx, `
		INSERT INTO renders (id, composition_id, source_key, width, height, fps, duration_in_frames, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,'QUEUED')
		RETURNING status, progress, created_at
	`, m.ID, m.CompositionID, m.SourceKey, m.Width, m.Height, m.FPS, m.DurationInFrames).
		Scan(&status, &m.Progress, &m.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrRenderExists
		}
		return err
	}
	m.Status = models.RenderStatus(status)
	return nil
}

func (r *RenderRepository) Get(ctx context.Context, id string) (*models.Render, error) {
	row := r.db.QueryRow(ctx, `SELECT `+renderColumns+` FROM renders WHERE id=$1`, id)
	m, err := scanRender(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRenderNotFound
		}
		return nil, err
	}
	return m, nil
}

// List returns the newest renders first, optionally filtered by status.
func (r *RenderRepository) List(ctx context.Context, status models.RenderStatus, limit int) ([]models.Render, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+renderColumns+`
		FROM renders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, string(status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Render, 0)
	for rows.Next() {
		m, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *RenderRepository) MarkRunning(ctx context.Context, id string) error {
	return r.exec(ctx, `
		UPDATE renders
		SET status='RUNNING', progress=0, started_at=now(), finished_at=NULL, error_text=NULL
		WHERE id=$1
	`, id)
}

// UpdateProgress is a no-op for rows that are no longer RUNNING.
func (r *RenderRepository) UpdateProgress(ctx context.Context, id string, percent int) error {
	_, err := r.db.Exec(ctx, `UPDATE renders SET progress=$2 WHERE id=$1 AND status='RUNNING'`, id, percent)
	return err
}

func (r *RenderRepository) SaveOutput(ctx context.Context, id, outputKey string) error {
	return r.exec(ctx, `UPDATE renders SET output_key=$2 WHERE id=$1`, id, outputKey)
}

func (r *RenderRepository) MarkDone(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE renders SET status='DONE', progress=100, finished_at=now() WHERE id=$1`, id)
}

// MarkFailed stores errText truncated to MaxErrorText characters.
func (r *RenderRepository) MarkFailed(ctx context.Context, id, errText string) error {
	return r.exec(ctx, `
		UPDATE renders SET status='FAILED', error_text=$2, finished_at=now() WHERE id=$1
	`, id, TruncateErrorText(errText))
}

func (r *RenderRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRenderNotFound
	}
	return nil
}

func scanRender(row pgx.Row) (*models.Render, error) {
	var (
		m      models.Render
		status string
	)
	err := row.Scan(
		&m.ID,
		&m.CompositionID,
		&m.SourceKey,
		&m.OutputKey,
		&m.Width,
		&m.Height,
		&m.FPS,
		&m.DurationInFrames,
		&status,
		&m.Progress,
		&m.ErrorText,
		&m.CreatedAt,
		&m.StartedAt,
		&m.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = models.RenderStatus(status)
	return &m, nil
}

// TruncateErrorText cuts s to MaxErrorText runes.
func TruncateErrorText(s string) string {
	if len(s) <= MaxErrorText {
		return s
	}
	runes := []rune(s)
	if len(runes) <= MaxErrorText {
		return s
	}
	return string(runes[:MaxErrorText])
}

// IsUniqueViolation reports a PostgreSQL unique_violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
