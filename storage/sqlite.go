package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"drinkd/core"

	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite/schema.sql
var sqliteSchema string

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &SQLiteRepository{db: db}

	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema() error {
	_, err := r.db.Exec(sqliteSchema)
	return err
}

func (r *SQLiteRepository) FindByUID(ctx context.Context, uid string) (*core.User, error) {
	query := `
		SELECT u_id, u_name, height, weight, age, sex, activity_level, sugar_limit_grams, created_at, updated_at
		FROM users
		WHERE u_id = ?
	`

	var user core.User
	var createdAt, updatedAt int64

	err := r.db.QueryRowContext(ctx, query, uid).Scan(
		&user.UID,
		&user.Name,
		&user.Height,
		&user.Weight,
		&user.Age,
		&user.Sex,
		&user.ActivityLevel,
		&user.SugarLimitGrams,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *core.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	query := `
		INSERT INTO users (u_id, u_name, height, weight, age, sex, activity_level, sugar_limit_grams, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.UID,
		user.Name,
		user.Height,
		user.Weight,
		user.Age,
		user.Sex,
		user.ActivityLevel,
		user.SugarLimitGrams,
		user.CreatedAt.Unix(),
		user.UpdatedAt.Unix(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return core.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, uid string, update core.ProfileUpdate) error {
	query := `
		UPDATE users
		SET height = ?, weight = ?, age = ?, sex = ?, activity_level = ?, sugar_limit_grams = ?, updated_at = ?
		WHERE u_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		update.Height,
		update.Weight,
		update.Age,
		update.Sex,
		update.ActivityLevel,
		update.SugarLimitGrams,
		time.Now().Unix(),
		uid,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return core.ErrNotFound
	}

	return nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	return strings.Contains(errMsg, "UNIQUE constraint failed") ||
		strings.Contains(errMsg, "UNIQUE") ||
		strings.Contains(errMsg, "unique")
}
