package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier は必要最小限のプール操作です。
// *pgxpool.Pool と pgxmock.PgxPoolIface の両方が満たします。
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository は PostgreSQL 上の Repository 実装です。
type PostgresRepository struct {
	db querier
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// 検索は correo の完全一致。大文字小文字を区別する参照実装の挙動を踏襲している。
const selectColumns = `id, nombre, correo, "contraseña", fecha_creacion`

// FindByEmail はメールアドレスでユーザーを検索します。
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + selectColumns + ` FROM usuarios WHERE correo = $1`
	return r.findOne(ctx, query, email)
}

// FindByID は id でユーザーを検索します。
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + selectColumns + ` FROM usuarios WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// Insert はユーザーを1行挿入し、採番された id と作成日時を返します。
func (r *PostgresRepository) Insert(ctx context.Context, name, email, passwordHash string) (*User, error) {
	query := `INSERT INTO usuarios (nombre, correo, "contraseña")
	          VALUES ($1, $2, $3)
	          RETURNING id, fecha_creacion`

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	err := r.db.QueryRow(ctx, query, name, email, passwordHash).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
