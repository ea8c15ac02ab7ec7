// Package store provides SQLite-backed persistence for notes, accounts,
// and comments.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS accounts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	short_name   TEXT NOT NULL,
	author_name  TEXT NOT NULL DEFAULT '',
	author_url   TEXT NOT NULL DEFAULT '',
	access_token TEXT NOT NULL UNIQUE,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	hashcode    TEXT NOT NULL UNIQUE,
	title       TEXT NOT NULL DEFAULT '',
	author      TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL,
	link_target TEXT NOT NULL DEFAULT '_blank',
	edit_token  TEXT NOT NULL,
	views       INTEGER NOT NULL DEFAULT 0,
	account_id  INTEGER REFERENCES accounts(id) ON DELETE SET NULL,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_account ON notes(account_id);

CREATE TABLE IF NOT EXISTS comments (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	site_id      TEXT NOT NULL,
	work_id      TEXT NOT NULL,
	chapter_id   TEXT NOT NULL,
	para_index   INTEGER NOT NULL,
	content      TEXT NOT NULL,
	user_name    TEXT NOT NULL,
	user_id      TEXT NOT NULL DEFAULT '',
	user_avatar  TEXT NOT NULL DEFAULT '',
	context_text TEXT NOT NULL DEFAULT '',
	ip           TEXT NOT NULL DEFAULT '',
	likes        INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_location ON comments(site_id, work_id, chapter_id);

CREATE TABLE IF NOT EXISTS like_records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	comment_id INTEGER NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
	user_id    TEXT,
	ip         TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(comment_id, user_id),
	UNIQUE(comment_id, ip)
);

CREATE TABLE IF NOT EXISTS banned_users (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    TEXT NOT NULL DEFAULT '',
	ip         TEXT NOT NULL DEFAULT '',
	reason     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB wraps a sql.DB with domain operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// isConstraintErr reports whether err is a SQLite uniqueness/constraint
// violation.
func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}

// nullable maps empty strings to NULL so unique indexes skip absent values.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// CreateNote inserts a note. A hashcode collision that slipped past the
// generator's retry loop surfaces as apperr.ErrAlreadyExists.
func (db *DB) CreateNote(ctx context.Context, n *models.Note) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (hashcode, title, author, content, link_target, edit_token, views, account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`, n.Hashcode, n.Title, n.Author, n.Content, n.LinkTarget, n.EditToken, n.AccountID, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		if isConstraintErr(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: create note: %w", err)
	}
	n.ID, _ = res.LastInsertId()
	return nil
}

// GetNoteByHashcode returns the note with the given hashcode.
func (db *DB) GetNoteByHashcode(ctx context.Context, hashcode string) (*models.Note, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, hashcode, title, author, content, link_target, edit_token, views, account_id, created_at, updated_at
		FROM notes WHERE hashcode = ?
	`, hashcode)
	return scanNote(row)
}

// UpdateNote persists the mutable fields of a note. Hashcode and edit
// token are immutable after creation and deliberately absent here.
func (db *DB) UpdateNote(ctx context.Context, n *models.Note) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE notes SET title = ?, author = ?, content = ?, link_target = ?, updated_at = ?
		WHERE id = ?
	`, n.Title, n.Author, n.Content, n.LinkTarget, n.UpdatedAt, n.ID)
	if err != nil {
		return fmt.Errorf("store: update note: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// HashcodeExists reports whether a note with the given hashcode exists.
func (db *DB) HashcodeExists(ctx context.Context, hashcode string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE hashcode = ?`, hashcode).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: hashcode exists: %w", err)
	}
	return true, nil
}

// IncrementViews bumps the view counter in a single statement so that
// concurrent views never lose updates.
func (db *DB) IncrementViews(ctx context.Context, hashcode string) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE notes SET views = views + 1 WHERE hashcode = ?`, hashcode)
	if err != nil {
		return fmt.Errorf("store: increment views: %w", err)
	}
	return nil
}

// ListNotesByAccount returns an account's notes, latest first, with the
// total count.
func (db *DB) ListNotesByAccount(ctx context.Context, accountID int64, limit, offset int) ([]models.Note, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE account_id = ?`, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count notes: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, hashcode, title, author, content, link_target, edit_token, views, account_id, created_at, updated_at
		FROM notes WHERE account_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	notes, err := collectNotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

// AllNotes returns every note, oldest first. Used by the admin export.
func (db *DB) AllNotes(ctx context.Context) ([]models.Note, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, hashcode, title, author, content, link_target, edit_token, views, account_id, created_at, updated_at
		FROM notes ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: all notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

// CreateAccount inserts a new account.
func (db *DB) CreateAccount(ctx context.Context, a *models.Account) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO accounts (short_name, author_name, author_url, access_token, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ShortName, a.AuthorName, a.AuthorURL, a.AccessToken, a.CreatedAt)
	if err != nil {
		if isConstraintErr(err) {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: create account: %w", err)
	}
	a.ID, _ = res.LastInsertId()
	return nil
}

// GetAccountByToken resolves a bearer credential to its account.
func (db *DB) GetAccountByToken(ctx context.Context, token string) (*models.Account, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, short_name, author_name, author_url, access_token, created_at
		FROM accounts WHERE access_token = ?
	`, token)
	return scanAccount(row)
}

// GetAccountByID returns the account with the given id.
func (db *DB) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, short_name, author_name, author_url, access_token, created_at
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

// UpdateAccessToken replaces the account's credential; the old value stops
// resolving immediately.
func (db *DB) UpdateAccessToken(ctx context.Context, id int64, token string) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE accounts SET access_token = ? WHERE id = ?`, token, id)
	if err != nil {
		return fmt.Errorf("store: update access token: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// PageCount returns how many notes belong to the account.
func (db *DB) PageCount(ctx context.Context, accountID int64) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes WHERE account_id = ?`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: page count: %w", err)
	}
	return n, nil
}

// CreateComment inserts a paragraph comment.
func (db *DB) CreateComment(ctx context.Context, c *models.Comment) error {
	res, err := db.conn.ExecContext(ctx, `
		INSERT INTO comments (site_id, work_id, chapter_id, para_index, content, user_name, user_id, user_avatar, context_text, ip, likes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
	`, c.SiteID, c.WorkID, c.ChapterID, c.ParaIndex, c.Content, c.UserName, c.UserID, c.UserAvatar, c.ContextText, c.IP, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create comment: %w", err)
	}
	c.ID, _ = res.LastInsertId()
	return nil
}

// GetComment returns the comment with the given id.
func (db *DB) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, site_id, work_id, chapter_id, para_index, content, user_name, user_id, user_avatar, context_text, ip, likes, created_at
		FROM comments WHERE id = ?
	`, id)
	c := &models.Comment{}
	err := row.Scan(&c.ID, &c.SiteID, &c.WorkID, &c.ChapterID, &c.ParaIndex, &c.Content,
		&c.UserName, &c.UserID, &c.UserAvatar, &c.ContextText, &c.IP, &c.Likes, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get comment: %w", err)
	}
	return c, nil
}

// ListComments returns comments for a chapter, oldest first. paraIndex < 0
// means all paragraphs.
func (db *DB) ListComments(ctx context.Context, siteID, workID, chapterID string, paraIndex int) ([]models.Comment, error) {
	query := `
		SELECT id, site_id, work_id, chapter_id, para_index, content, user_name, user_id, user_avatar, context_text, ip, likes, created_at
		FROM comments WHERE site_id = ? AND work_id = ? AND chapter_id = ?`
	args := []any{siteID, workID, chapterID}
	if paraIndex >= 0 {
		query += ` AND para_index = ?`
		args = append(args, paraIndex)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list comments: %w", err)
	}
	defer rows.Close()

	out := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.SiteID, &c.WorkID, &c.ChapterID, &c.ParaIndex, &c.Content,
			&c.UserName, &c.UserID, &c.UserAvatar, &c.ContextText, &c.IP, &c.Likes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddLike records a like and bumps the counter in one transaction. A
// duplicate like from the same identity hits the unique constraint and
// returns apperr.ErrAlreadyExists without touching the counter.
func (db *DB) AddLike(ctx context.Context, commentID int64, userID, ip string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO like_records (comment_id, user_id, ip) VALUES (?, ?, ?)
	`, commentID, nullable(userID), nullable(ip))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return apperr.ErrNotFound
			}
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: insert like: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE comments SET likes = likes + 1 WHERE id = ?`, commentID)
	if err != nil {
		return fmt.Errorf("store: bump likes: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return apperr.ErrNotFound
	}
	return tx.Commit()
}

// IsBanned reports whether either identity is on the ban list.
func (db *DB) IsBanned(ctx context.Context, userID, ip string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx, `
		SELECT 1 FROM banned_users
		WHERE (user_id != '' AND user_id = ?) OR (ip != '' AND ip = ?)
		LIMIT 1
	`, userID, ip).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: is banned: %w", err)
	}
	return true, nil
}

func scanNote(row *sql.Row) (*models.Note, error) {
	n := &models.Note{}
	err := row.Scan(&n.ID, &n.Hashcode, &n.Title, &n.Author, &n.Content, &n.LinkTarget,
		&n.EditToken, &n.Views, &n.AccountID, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan note: %w", err)
	}
	return n, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.ShortName, &a.AuthorName, &a.AuthorURL, &a.AccessToken, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan account: %w", err)
	}
	return a, nil
}

func collectNotes(rows *sql.Rows) ([]models.Note, error) {
	out := []models.Note{}
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.Hashcode, &n.Title, &n.Author, &n.Content, &n.LinkTarget,
			&n.EditToken, &n.Views, &n.AccountID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
