package auth

import "errors"

// ErrInvalidCredentials はログイン失敗を表します。
// メールアドレスの存在有無を区別できないよう、未登録・パスワード不一致の
// どちらでも常に同じエラー（同じメッセージ）を返します。
var ErrInvalidCredentials = errors.New("credenciales incorrectas")

// ErrEmailRegistered はメールアドレスの重複登録を表します。
var ErrEmailRegistered = errors.New("el correo ya está registrado")

// ValidationError は利用者が修正できる入力エラーです。
// Message はそのままフラッシュメッセージとして表示されます。
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PersistenceError はストレージの障害や書き込み失敗を表します。
// ログには原因を残し、利用者には一般的な失敗としてだけ見せます。
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failure: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RedirectError は保護ページへの未認証アクセスに対する
// リダイレクト指示です。呼び出し側はこれを受けたら処理を中断し、
// 保護されたコンテンツを描画してはいけません。
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.Location
}
