// Package auth は登録・ログイン・ログアウト・認可ゲートを統括する
// 認証サービスを提供します。
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Emily2707/ACDB1-cdemily/internal/password"
	"github.com/Emily2707/ACDB1-cdemily/internal/session"
	"github.com/Emily2707/ACDB1-cdemily/internal/user"
)

// MinPasswordLength は登録時に要求するパスワードの最小長です。
const MinPasswordLength = 6

// LoginPath は未認証アクセスのリダイレクト先です。
const LoginPath = "/login"

// dummyPasswordHash は未登録メールアドレスでのログイン試行時に
// 検証だけを空振りさせるための偽ハッシュです。応答時間から
// メールアドレスの存在有無を推測されるのを防ぎます。
// どのパスワードとも一致しません。
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Session は Auth Service が必要とするセッション操作です。
// *session.Session が実装します。
type Session interface {
	SetAuthenticated(userID int64, name, email string)
	UserID() (int64, bool)
	IsAuthenticated() bool
	Clear() error
	SetFlash(kind session.FlashKind, message string)
	Save() error
}

// Service は資格情報ストアとハッシャーを束ねた認証サービスです。
// 依存はすべて明示的に注入します。
type Service struct {
	users  user.Repository
	hasher *password.Hasher
}

// NewService は Service を作成します。
func NewService(users user.Repository, hasher *password.Hasher) *Service {
	return &Service{users: users, hasher: hasher}
}

// Register は新規ユーザーを登録します。セッションは開始しません
// （登録してもログイン状態にはなりません）。
//
// 入力不備は *ValidationError、メールアドレス重複は ErrEmailRegistered、
// ストレージ障害は *PersistenceError を返します。
func (s *Service) Register(ctx context.Context, name, email, plaintext string) (*user.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ValidationError{Message: "El nombre es obligatorio."}
	}
	if !validEmail(email) {
		return nil, &ValidationError{Message: "El correo no es válido."}
	}
	if len(plaintext) < MinPasswordLength {
		return nil, &ValidationError{Message: "La contraseña debe tener al menos 6 caracteres."}
	}

	// 事前の存在チェック。同時登録のすり抜けは Insert 側の
	// 一意制約違反（ErrDuplicateEmail）で二重に防御する。
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if existing != nil {
		return nil, ErrEmailRegistered
	}

	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return nil, &ValidationError{Message: "La contraseña no es válida."}
	}

	created, err := s.users.Insert(ctx, name, email, hash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, ErrEmailRegistered
		}
		return nil, &PersistenceError{Err: err}
	}
	return created, nil
}

// Login は資格情報を検証し、成功時にセッションへ認証状態を記録します。
// 未登録メールアドレスとパスワード不一致はどちらも ErrInvalidCredentials で、
// メッセージからは区別できません。
func (s *Service) Login(ctx context.Context, sess Session, email, plaintext string) (*user.User, error) {
	found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	// ユーザーが存在しない場合も偽ハッシュとの照合で時間を揃える
	targetHash := dummyPasswordHash
	if found != nil {
		targetHash = found.PasswordHash
	}
	if !s.hasher.Verify(plaintext, targetHash) || found == nil {
		return nil, ErrInvalidCredentials
	}

	sess.SetAuthenticated(found.ID, found.Name, found.Email)
	if err := sess.Save(); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return found, nil
}

// Logout はセッションを破棄します。何度呼んでもエラーにはなりません。
// クッキーの失効はセッション側の Clear が行います。
func (s *Service) Logout(sess Session) error {
	return sess.Clear()
}

// IsAuthenticated はセッションが認証済みかを返します。
func (s *Service) IsAuthenticated(sess Session) bool {
	return sess.IsAuthenticated()
}

// CurrentUser は認証済みユーザーのレコードを返します。
// 認可判断にはキャッシュを信用せず、毎回ストアから再取得します。
// id が解決できなくなっていた場合は暗黙のログアウトとして
// セッションを破棄し、(nil, nil) を返します。
func (s *Service) CurrentUser(ctx context.Context, sess Session) (*user.User, error) {
	id, ok := sess.UserID()
	if !ok {
		return nil, nil
	}

	found, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if found == nil {
		_ = sess.Clear()
		return nil, nil
	}
	return found, nil
}

// RequireAuthenticated は保護ページ用の認可ゲートです。
// 未認証の場合はフラッシュエラーを設定し、ログインページへの
// リダイレクト指示を返します。
func (s *Service) RequireAuthenticated(sess Session) error {
	if sess.IsAuthenticated() {
		return nil
	}
	sess.SetFlash(session.FlashError, "Debes iniciar sesión para acceder a esta página.")
	if err := sess.Save(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return &RedirectError{Location: LoginPath}
}

// validEmail はメールアドレスの文法を検証します。
// net/mail は表示名付きやドメインにドットのない形式も受理するため、
// 参照実装（PHP の FILTER_VALIDATE_EMAIL）に寄せて追加の制約を課します。
func validEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " \t\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return strings.Contains(email[at+1:], ".")
}
