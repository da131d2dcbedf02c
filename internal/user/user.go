// Package user はユーザー資格情報レコードの永続化を担います。
package user

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmail は correo の一意制約違反を表します。
// 事前の存在チェックをすり抜けた同時登録の二重防御として、
// ストレージ層の制約違反をこのエラーに写像します。
var ErrDuplicateEmail = errors.New("email already registered")

// User は1件のユーザーレコードです。
// PasswordHash にはハッシュトークンのみを保持し、平文は一切保存しません。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Repository はユーザーレコードの永続化の契約です。
type Repository interface {
	// FindByEmail は correo の完全一致（大文字小文字を区別）で検索します。
	// 該当なしはエラーではなく (nil, nil) を返します。
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID は id で検索します。契約は FindByEmail と同じです。
	FindByID(ctx context.Context, id int64) (*User, error)

	// Insert は1行を挿入し、ストアが採番した id と作成日時を含む
	// レコードを返します。correo の一意制約違反は ErrDuplicateEmail です。
	// 一意性の事前チェックは呼び出し側（Auth Service）の責務です。
	Insert(ctx context.Context, name, email, passwordHash string) (*User, error)
}
