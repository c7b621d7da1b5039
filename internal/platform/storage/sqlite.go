package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"errdeck/internal/platform/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'user',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS app_config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStorage is the default storage adapter.
type SQLiteStorage struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	return &SQLiteStorage{db: db}, nil
}

// NewSQLiteStorage wraps an existing connection. Used by tests.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Name() string    { return "errdeck-sqlite" }
func (s *SQLiteStorage) Version() string { return "1.1.0" }
func (s *SQLiteStorage) Dialect() string { return "sqlite" }

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteSchema)
	return err
}

func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (*models.ConfigItem, error) {
	item := &models.ConfigItem{}
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value FROM app_config WHERE key = ?
	`, key).Scan(&item.Key, &item.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) (*models.ConfigItem, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return nil, err
	}
	return &models.ConfigItem{Key: key, Value: value}, nil
}

func (s *SQLiteStorage) DeleteConfig(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM app_config WHERE key = ?`, key)
	return err
}

func (s *SQLiteStorage) GetUserCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	created := &models.User{
		ID:        "usr_" + uuid.NewString(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, created.ID, created.Name, created.Email, string(hash), created.Role, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteStorage) VerifyUser(ctx context.Context, email, password string) (*models.User, error) {
	user := &models.User{}
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.Name, &user.Email, &hash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}

func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *SQLiteStorage) UpdateUserByEmail(ctx context.Context, email, name string) (*models.User, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, updated_at = ? WHERE email = ?
	`, name, time.Now().Unix(), email)
	if err != nil {
		return nil, err
	}
	return s.GetUserByEmail(ctx, email)
}

func (s *SQLiteStorage) UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) (*models.User, error) {
	user, err := s.VerifyUser(ctx, email, currentPassword)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE email = ?
	`, string(hash), time.Now().Unix(), email)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *SQLiteStorage) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, role, created_at, updated_at
		FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *SQLiteStorage) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.New("user not found")
	}
	return nil
}
