// Package session は訪問者のブラウザーコンテキストに紐づくセッション状態を管理します。
//
// セッションは gin-contrib/sessions のクッキーセッションに保存され、
// リクエストごとに FromContext で一度だけ解決した Session ハンドルを
// 各コンポーネントへ明示的に渡します。プロセス全体で共有する
// 暗黙のグローバル状態は持ちません。
package session

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName はセッションクッキーの名前です。
const CookieName = "auth_session"

// セッション属性のキー。スキーマ（§usuarios）に合わせたスペイン語名を踏襲しています。
const (
	keyUserID    = "usuario_id"
	keyLoginTime = "login_time"
	keyName      = "usuario_nombre"
	keyEmail     = "usuario_correo"

	keyFlashSuccess = "flash_success"
	keyFlashError   = "flash_error"

	keyCaptchaAnswer = "captcha_answer"

	draftPrefix = "draft_"
)

// FlashKind はフラッシュメッセージの種別です。
type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// Flash は一度だけ表示されるメッセージの組です。
type Flash struct {
	Success string
	Error   string
}

// Session は1人の訪問者のセッションへのハンドルです。
type Session struct {
	s sessions.Session
}

// FromContext はリクエストに対応するセッションハンドルを返します。
// セッションの遅延生成は sessions.Sessions ミドルウェアが担うため、
// 何度呼んでも安全です。
func FromContext(c *gin.Context) *Session {
	return &Session{s: sessions.Default(c)}
}

// SetAuthenticated はログイン成功を記録します。
// userID と現在時刻のほか、再クエリなしで表示するための
// 名前・メールアドレスのスナップショットを保存します。
func (s *Session) SetAuthenticated(userID int64, name, email string) {
	s.s.Set(keyUserID, userID)
	s.s.Set(keyLoginTime, time.Now().Unix())
	s.s.Set(keyName, name)
	s.s.Set(keyEmail, email)
}

// UserID は認証済みユーザーのIDを返します。未認証の場合は ok=false です。
func (s *Session) UserID() (int64, bool) {
	id := readInt64(s.s.Get(keyUserID))
	if id == 0 {
		return 0, false
	}
	return id, true
}

// IsAuthenticated は userID が記録されているかを返します。
func (s *Session) IsAuthenticated() bool {
	_, ok := s.UserID()
	return ok
}

// LoginTime はログイン成功時刻を返します。未認証の場合はゼロ値です。
func (s *Session) LoginTime() time.Time {
	unix := readInt64(s.s.Get(keyLoginTime))
	if unix == 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// DisplayName はセッションに保存された表示名スナップショットを返します。
func (s *Session) DisplayName() string {
	return readString(s.s.Get(keyName))
}

// Clear は全属性を削除してセッションを無効化します。
// 何度呼んでもエラーにはなりません。保存時に空のセッションが
// クッキーへ書き出されるため、以前の内容を参照する術はなくなります。
// ログアウト後のフラッシュは、この新しい空のセッションに載せます。
func (s *Session) Clear() error {
	s.s.Clear()
	return s.s.Save()
}

// SetFlash は次のページ描画で一度だけ表示されるメッセージを記録します。
func (s *Session) SetFlash(kind FlashKind, message string) {
	switch kind {
	case FlashSuccess:
		s.s.Set(keyFlashSuccess, message)
	case FlashError:
		s.s.Set(keyFlashError, message)
	}
}

// ConsumeFlash はフラッシュメッセージを取り出して削除します。
// 読み取りと同時に消えるため、リロードしても再表示されません。
func (s *Session) ConsumeFlash() Flash {
	flash := Flash{
		Success: readString(s.s.Get(keyFlashSuccess)),
		Error:   readString(s.s.Get(keyFlashError)),
	}
	if flash.Success != "" || flash.Error != "" {
		s.s.Delete(keyFlashSuccess)
		s.s.Delete(keyFlashError)
		_ = s.s.Save()
	}
	return flash
}

// SetChallengeAnswer はキャプチャの期待解をセッションに保存します。
func (s *Session) SetChallengeAnswer(answer int) {
	s.s.Set(keyCaptchaAnswer, answer)
	_ = s.s.Save()
}

// TakeChallengeAnswer は保存された期待解を返し、成否にかかわらず削除します。
// 保存されていない場合は ok=false です。
func (s *Session) TakeChallengeAnswer() (int, bool) {
	v := s.s.Get(keyCaptchaAnswer)
	if v == nil {
		return 0, false
	}
	s.s.Delete(keyCaptchaAnswer)
	_ = s.s.Save()
	return int(readInt64(v)), true
}

// SetDraft はフォーム再表示用の値（名前・メールアドレスのみ）を保存します。
// パスワードを保存してはいけません。
func (s *Session) SetDraft(field, value string) {
	s.s.Set(draftPrefix+field, value)
}

// TakeDraft は保存済みのフォーム値を返して削除します。
func (s *Session) TakeDraft(field string) string {
	v := readString(s.s.Get(draftPrefix + field))
	if v != "" {
		s.s.Delete(draftPrefix + field)
		_ = s.s.Save()
	}
	return v
}

// Save は属性の変更をクッキーへ書き出します。
func (s *Session) Save() error {
	return s.s.Save()
}

// readInt64 はセッションストアのシリアライズ差を吸収して整数を取り出します。
func readInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func readString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
