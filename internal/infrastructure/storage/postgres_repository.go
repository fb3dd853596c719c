package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"sportswire/internal/domain"
	"sportswire/internal/ports"
)

const uniqueViolation = "23505"

// PostgresRepository persists ingested items, saved captions, and users.
type PostgresRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.DedupStore = (*PostgresRepository)(nil)
var _ ports.CaptionStore = (*PostgresRepository)(nil)
var _ ports.UserStore = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(255) UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ingested_items (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    native_id TEXT NOT NULL,
    source_name VARCHAR(255) NOT NULL,
    body TEXT NOT NULL,
    produced_at TIMESTAMP WITH TIME ZONE NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT (now() at time zone 'utc'),
    UNIQUE (native_id, user_id)
);
CREATE TABLE IF NOT EXISTS captions (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    headline TEXT NOT NULL,
    summary TEXT NOT NULL,
    source_excerpt TEXT NOT NULL,
    stylized_caption TEXT NOT NULL,
    saved_at TIMESTAMP WITH TIME ZONE DEFAULT (now() at time zone 'utc'),
    UNIQUE (headline, user_id)
);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Exists reports whether the user already ingested the item.
func (r *PostgresRepository) Exists(ctx context.Context, userID int64, nativeID string) (bool, error) {
	query, args, err := r.sb.
		Select("1").
		From("ingested_items").
		Where(sq.Eq{"user_id": userID, "native_id": nativeID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query ingested: %w", err)
	}
	return true, nil
}

// Insert stores a newly accepted item; a concurrent duplicate surfaces as
// ports.ErrDuplicate.
func (r *PostgresRepository) Insert(ctx context.Context, rec domain.IngestedRecord) error {
	query, args, err := r.sb.
		Insert("ingested_items").
		Columns("user_id", "native_id", "source_name", "body", "produced_at").
		Values(rec.UserID, rec.NativeID, rec.SourceName, rec.Body, rec.ProducedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("insert ingested: %w", err)
	}
	return nil
}

// Save stores a caption the user wants to keep.
func (r *PostgresRepository) Save(ctx context.Context, c domain.SavedCaption) (int64, error) {
	query, args, err := r.sb.
		Insert("captions").
		Columns("user_id", "headline", "summary", "source_excerpt", "stylized_caption").
		Values(c.UserID, c.Headline, c.Summary, c.SourceExcerpt, c.StylizedCaption).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ports.ErrDuplicate
		}
		return 0, fmt.Errorf("insert caption: %w", err)
	}
	return id, nil
}

// List returns the user's saved captions, newest first.
func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]domain.SavedCaption, error) {
	query, args, err := r.sb.
		Select("id", "headline", "summary", "source_excerpt", "stylized_caption", "saved_at").
		From("captions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("saved_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query captions: %w", err)
	}
	defer rows.Close()

	var captions []domain.SavedCaption
	for rows.Next() {
		c := domain.SavedCaption{UserID: userID}
		if err := rows.Scan(&c.ID, &c.Headline, &c.Summary, &c.SourceExcerpt, &c.StylizedCaption, &c.SavedAt); err != nil {
			return nil, fmt.Errorf("scan caption: %w", err)
		}
		captions = append(captions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return captions, nil
}

// Delete removes one of the user's saved captions.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id int64) error {
	query, args, err := r.sb.
		Delete("captions").
		Where(sq.Eq{"user_id": userID, "id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete caption: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Create registers a new account.
func (r *PostgresRepository) Create(ctx context.Context, username, passwordHash string) (domain.User, error) {
	query, args, err := r.sb.
		Insert("users").
		Columns("username", "password_hash").
		Values(username, passwordHash).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build insert: %w", err)
	}

	user := domain.User{Username: username, PasswordHash: passwordHash}
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ports.ErrDuplicate
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// LookupByName loads an account by username.
func (r *PostgresRepository) LookupByName(ctx context.Context, username string) (domain.User, error) {
	query, args, err := r.sb.
		Select("id", "username", "password_hash").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build query: %w", err)
	}

	var user domain.User
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.Username, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
