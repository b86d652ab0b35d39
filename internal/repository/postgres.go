package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" for goose
	"github.com/pressly/goose/v3"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/migrations"
	"BOOKWORM_BACK-END/internal/models"
)

// DBTX is the subset of pgx used by the repositories. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the pgxpool-backed Store.
type PostgresStore struct {
	pool  *pgxpool.Pool
	users *PostgresUserRepository
	books *PostgresBookRepository
}

// NewPostgresStore opens a pool, pings it and applies pending migrations.
func NewPostgresStore(ctx context.Context, cfg config.DatabaseConfig) (*PostgresStore, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pcfg.ConnConfig.RuntimeParams["application_name"] = "bookworm-backend"
	if cfg.ConnTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnTimeout
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pcfg.MinConns = cfg.MinConns
	if cfg.MaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if err := runMigrations(ctx, cfg.URL); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:  pool,
		users: NewPostgresUserRepository(pool),
		books: NewPostgresBookRepository(pool),
	}, nil
}

func runMigrations(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

func (s *PostgresStore) Users() UserRepository { return s.users }

func (s *PostgresStore) Books() BookRepository { return s.books }

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() { s.pool.Close() }

// PostgresUserRepository implements UserRepository with Postgres.
type PostgresUserRepository struct {
	db DBTX
}

func NewPostgresUserRepository(db DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, profile_image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.ProfileImage, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, email, profile_image, created_at, updated_at
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Username, &u.Email, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFoundOr(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, email, password_hash, profile_image, created_at, updated_at
		 FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return models.User{}, notFoundOr(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *PostgresUserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

// PostgresBookRepository implements BookRepository with Postgres.
type PostgresBookRepository struct {
	db DBTX
}

func NewPostgresBookRepository(db DBTX) *PostgresBookRepository {
	return &PostgresBookRepository{db: db}
}

func (r *PostgresBookRepository) Create(ctx context.Context, b *models.Book) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO books (id, title, caption, rating, image, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.Title, b.Caption, b.Rating, b.Image, b.UserID, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresBookRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Book, error) {
	var b models.Book
	err := r.db.QueryRow(ctx,
		`SELECT id, title, caption, rating, image, user_id, created_at, updated_at
		 FROM books WHERE id = $1`, id).
		Scan(&b.ID, &b.Title, &b.Caption, &b.Rating, &b.Image, &b.UserID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return models.Book{}, notFoundOr(err)
	}
	return b, nil
}

// ListPage reads the window and the total in one statement so both come from
// the same snapshot. The LEFT JOIN keeps the total row when the window is
// past the end.
func (r *PostgresBookRepository) ListPage(ctx context.Context, offset, limit int) ([]models.BookWithAuthor, int, error) {
	if offset < 0 {
		return nil, 0, ErrNegativeOffset
	}

	rows, err := r.db.Query(ctx,
		`WITH total AS (SELECT COUNT(1) AS n FROM books)
		 SELECT t.n, p.id, p.title, p.caption, p.rating, p.image, p.user_id, p.created_at, p.updated_at,
		        p.username, p.profile_image
		   FROM total t
		   LEFT JOIN LATERAL (
		        SELECT b.id, b.title, b.caption, b.rating, b.image, b.user_id, b.created_at, b.updated_at,
		               u.username, u.profile_image
		          FROM books b
		          JOIN users u ON u.id = b.user_id
		         ORDER BY b.created_at DESC, b.id DESC
		         LIMIT $1 OFFSET $2
		   ) p ON true
		  ORDER BY p.created_at DESC, p.id DESC`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var total int
	items := make([]models.BookWithAuthor, 0, limit)
	for rows.Next() {
		var (
			id                     *uuid.UUID
			title, caption, image  *string
			rating                 *int
			userID                 *uuid.UUID
			createdAt, updatedAt   *time.Time
			username, profileImage *string
		)
		if err := rows.Scan(&total, &id, &title, &caption, &rating, &image, &userID,
			&createdAt, &updatedAt, &username, &profileImage); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		if id == nil {
			continue
		}
		items = append(items, models.BookWithAuthor{
			Book: models.Book{
				ID:        *id,
				Title:     *title,
				Caption:   *caption,
				Rating:    *rating,
				Image:     *image,
				UserID:    *userID,
				CreatedAt: *createdAt,
				UpdatedAt: *updatedAt,
			},
			Author: models.Author{Username: *username, ProfileImage: *profileImage},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	return items, total, nil
}

func (r *PostgresBookRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Book, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, caption, rating, image, user_id, created_at, updated_at
		   FROM books
		  WHERE user_id = $1
		  ORDER BY created_at DESC, id DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Caption, &b.Rating, &b.Image, &b.UserID,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return books, nil
}

func (r *PostgresBookRepository) Delete(ctx context.Context, id, owner uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

// mapUniqueViolation turns a 23505 on the users table into the matching
// sentinel, or returns nil when err is something else.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case "users_email_key":
		return apperr.ErrEmailTaken
	case "users_username_key":
		return apperr.ErrUsernameTaken
	}
	return nil
}
