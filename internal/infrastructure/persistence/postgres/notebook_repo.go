package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/domain/notebook"

	"github.com/google/uuid"
)

// NotebookRepo 提供 jupyter_notebooks_metadata 的存取。
type NotebookRepo struct {
	db *sql.DB
}

// NewNotebookRepo 建立 NotebookRepo。
func NewNotebookRepo(db *sql.DB) *NotebookRepo {
	return &NotebookRepo{db: db}
}

const notebookColumns = `id, session_id, domain, readable_id, kernel_name, kernel_display_name,
       language, language_version, file_extension, storage_url, password, created_at`

// Insert 寫入新紀錄；readable_id 與 created_at 由資料庫預設值產生。
func (r *NotebookRepo) Insert(ctx context.Context, n notebook.Notebook) (notebook.Notebook, error) {
	const q = `
INSERT INTO jupyter_notebooks_metadata
    (id, session_id, domain, kernel_name, kernel_display_name, language, language_version, file_extension, storage_url, password)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING readable_id, created_at;
`
	if err := r.db.QueryRowContext(ctx, q,
		n.ID,
		n.SessionID,
		n.Domain,
		n.KernelName,
		n.KernelDisplayName,
		n.Language,
		n.LanguageVersion,
		n.FileExtension,
		n.StorageURL,
		nullString(n.PasswordHash),
	).Scan(&n.ReadableID, &n.CreatedAt); err != nil {
		return notebook.Notebook{}, fmt.Errorf("insert notebook: %w", err)
	}
	return n, nil
}

// FindByID 依 ID 查詢 notebook；非 UUID 格式的 id 不會送進資料庫，直接視為不存在。
func (r *NotebookRepo) FindByID(ctx context.Context, id string) (notebook.Notebook, error) {
	if _, err := uuid.Parse(id); err != nil {
		return notebook.Notebook{}, notebook.ErrNotFound
	}
	q := `SELECT ` + notebookColumns + ` FROM jupyter_notebooks_metadata WHERE id = $1;`
	return r.findOne(ctx, q, id)
}

// FindByReadableID 依別名查詢 notebook。
func (r *NotebookRepo) FindByReadableID(ctx context.Context, readableID string) (notebook.Notebook, error) {
	q := `SELECT ` + notebookColumns + ` FROM jupyter_notebooks_metadata WHERE readable_id = $1;`
	return r.findOne(ctx, q, readableID)
}

// FindAllBySession 回傳 session 擁有的 notebook。
func (r *NotebookRepo) FindAllBySession(ctx context.Context, sessionID string) ([]notebook.Notebook, error) {
	q := `SELECT ` + notebookColumns + ` FROM jupyter_notebooks_metadata WHERE session_id = $1 ORDER BY created_at, id;`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query notebooks by session: %w", err)
	}
	defer rows.Close()

	out := make([]notebook.Notebook, 0)
	for rows.Next() {
		n, err := scanNotebook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update 覆寫可變欄位。
func (r *NotebookRepo) Update(ctx context.Context, n notebook.Notebook) error {
	const q = `
UPDATE jupyter_notebooks_metadata
SET session_id = $2,
    domain = $3,
    kernel_name = $4,
    kernel_display_name = $5,
    language = $6,
    language_version = $7,
    file_extension = $8,
    storage_url = $9,
    password = $10
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q,
		n.ID,
		n.SessionID,
		n.Domain,
		n.KernelName,
		n.KernelDisplayName,
		n.Language,
		n.LanguageVersion,
		n.FileExtension,
		n.StorageURL,
		nullString(n.PasswordHash),
	)
	if err != nil {
		return fmt.Errorf("update notebook: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notebook.ErrNotFound
	}
	return nil
}

// Delete 移除紀錄。
func (r *NotebookRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM jupyter_notebooks_metadata WHERE id = $1;`
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	return nil
}

func (r *NotebookRepo) findOne(ctx context.Context, q string, arg string) (notebook.Notebook, error) {
	n, err := scanNotebook(r.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return notebook.Notebook{}, notebook.ErrNotFound
	}
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotebook(row rowScanner) (notebook.Notebook, error) {
	var (
		n        notebook.Notebook
		readable sql.NullString
		password sql.NullString
	)
	if err := row.Scan(
		&n.ID,
		&n.SessionID,
		&n.Domain,
		&readable,
		&n.KernelName,
		&n.KernelDisplayName,
		&n.Language,
		&n.LanguageVersion,
		&n.FileExtension,
		&n.StorageURL,
		&password,
		&n.CreatedAt,
	); err != nil {
		return notebook.Notebook{}, err
	}
	n.ReadableID = readable.String
	n.PasswordHash = password.String
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
