// Package web はフォーム入力と Auth Service を仲介するHTTP境界レイヤーです。
//
// コア（auth / captcha / session）はマークアップを生成せず、
// レコード・真偽値・エラー値・リダイレクト指示だけを返します。
// このパッケージがフォームフィールドを型付き引数へ写像し、
// エラーをフラッシュメッセージとリダイレクトへ変換します。
// 値のエスケープは保存時ではなく描画時に html/template が行います。
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Emily2707/ACDB1-cdemily/internal/auth"
	"github.com/Emily2707/ACDB1-cdemily/internal/captcha"
	"github.com/Emily2707/ACDB1-cdemily/internal/session"
)

// ページのパス。
const (
	PathIndex     = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathLogout    = "/logout"
	PathDashboard = "/dashboard"
	PathProfile   = "/profile"
)

// Handler はページハンドラーをまとめた構造体です。
type Handler struct {
	auth    *auth.Service
	captcha *captcha.Generator
	logger  *slog.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(a *auth.Service, g *captcha.Generator, logger *slog.Logger) *Handler {
	return &Handler{auth: a, captcha: g, logger: logger}
}

// RegisterRoutes はページのルーティングを設定します。
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET(PathIndex, h.Index)

	router.GET(PathLogin, h.ShowLogin)
	router.POST(PathLogin, h.SubmitLogin)
	router.GET(PathRegister, h.ShowRegister)
	router.POST(PathRegister, h.SubmitRegister)
	router.GET(PathLogout, h.Logout)

	protected := router.Group("")
	protected.Use(h.RequireAuth())
	{
		protected.GET(PathDashboard, h.Dashboard)
		protected.GET(PathProfile, h.Profile)
	}
}

// Index はログイン状態に応じてトップページを振り分けます。
func (h *Handler) Index(c *gin.Context) {
	sess := session.FromContext(c)
	if h.auth.IsAuthenticated(sess) {
		c.Redirect(http.StatusSeeOther, PathDashboard)
		return
	}
	c.Redirect(http.StatusSeeOther, PathLogin)
}

// ShowLogin はログインフォームを表示します。
func (h *Handler) ShowLogin(c *gin.Context) {
	sess := session.FromContext(c)
	if h.auth.IsAuthenticated(sess) {
		c.Redirect(http.StatusSeeOther, PathDashboard)
		return
	}

	flash := sess.ConsumeFlash()
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Flash":    flash,
		"Correo":   sess.TakeDraft("correo"),
		"Question": h.captcha.Generate(sess),
	})
}

// loginForm はログインフォームのフィールドです。
type loginForm struct {
	Correo      string `form:"correo"`
	Contrasena  string `form:"contraseña"`
	MathCaptcha string `form:"math_captcha"`
}

// SubmitLogin はログインフォームの送信を処理します。
func (h *Handler) SubmitLogin(c *gin.Context) {
	sess := session.FromContext(c)
	if h.auth.IsAuthenticated(sess) {
		c.Redirect(http.StatusSeeOther, PathDashboard)
		return
	}

	var form loginForm
	_ = c.ShouldBind(&form)
	correo := strings.TrimSpace(form.Correo)

	retry := func(message string) {
		sess.SetFlash(session.FlashError, message)
		// 失敗時はメールアドレスだけを再表示する。パスワードは保存しない。
		if correo != "" {
			sess.SetDraft("correo", correo)
		}
		_ = sess.Save()
		c.Redirect(http.StatusSeeOther, PathLogin)
	}

	if correo == "" || form.Contrasena == "" {
		// 入力不備でも保留中のチャレンジは消費しておく
		h.captcha.Verify(sess, form.MathCaptcha)
		retry("Todos los campos son obligatorios.")
		return
	}

	if !h.captcha.Verify(sess, form.MathCaptcha) {
		retry("Completa correctamente la verificación de seguridad.")
		return
	}

	logged, err := h.auth.Login(c.Request.Context(), sess, correo, form.Contrasena)
	if err != nil {
		retry(h.flashMessage(c, err))
		return
	}

	sess.SetFlash(session.FlashSuccess, "¡Bienvenido de nuevo, "+logged.Name+"!")
	_ = sess.Save()
	c.Redirect(http.StatusSeeOther, PathDashboard)
}

// ShowRegister は登録フォームを表示します。
func (h *Handler) ShowRegister(c *gin.Context) {
	sess := session.FromContext(c)
	if h.auth.IsAuthenticated(sess) {
		c.Redirect(http.StatusSeeOther, PathDashboard)
		return
	}

	flash := sess.ConsumeFlash()
	c.HTML(http.StatusOK, "register.html", gin.H{
		"Flash":    flash,
		"Nombre":   sess.TakeDraft("nombre"),
		"Correo":   sess.TakeDraft("correo"),
		"Question": h.captcha.Generate(sess),
	})
}

// registerForm は登録フォームのフィールドです。
type registerForm struct {
	Nombre      string `form:"nombre"`
	Correo      string `form:"correo"`
	Contrasena  string `form:"contraseña"`
	Confirmar   string `form:"confirmar_contraseña"`
	MathCaptcha string `form:"math_captcha"`
}

// SubmitRegister は登録フォームの送信を処理します。
// 登録が成功してもログイン状態にはならず、ログインページへ誘導します。
func (h *Handler) SubmitRegister(c *gin.Context) {
	sess := session.FromContext(c)
	if h.auth.IsAuthenticated(sess) {
		c.Redirect(http.StatusSeeOther, PathDashboard)
		return
	}

	var form registerForm
	_ = c.ShouldBind(&form)
	nombre := strings.TrimSpace(form.Nombre)
	correo := strings.TrimSpace(form.Correo)

	retry := func(message string) {
		sess.SetFlash(session.FlashError, message)
		// エラー種別によらず名前とメールアドレスを一律に再表示する
		if nombre != "" {
			sess.SetDraft("nombre", nombre)
		}
		if correo != "" {
			sess.SetDraft("correo", correo)
		}
		_ = sess.Save()
		c.Redirect(http.StatusSeeOther, PathRegister)
	}

	if nombre == "" || correo == "" || form.Contrasena == "" {
		h.captcha.Verify(sess, form.MathCaptcha)
		retry("Todos los campos son obligatorios.")
		return
	}

	if !h.captcha.Verify(sess, form.MathCaptcha) {
		retry("Resuelve correctamente la verificación de seguridad.")
		return
	}

	if form.Contrasena != form.Confirmar {
		retry("Las contraseñas no coinciden.")
		return
	}

	if _, err := h.auth.Register(c.Request.Context(), nombre, correo, form.Contrasena); err != nil {
		retry(h.flashMessage(c, err))
		return
	}

	sess.SetFlash(session.FlashSuccess, "¡Tu cuenta ha sido creada! Ya puedes iniciar sesión.")
	_ = sess.Save()
	c.Redirect(http.StatusSeeOther, PathLogin)
}

// Logout はセッションを破棄し、確認メッセージとともにログインページへ戻します。
func (h *Handler) Logout(c *gin.Context) {
	sess := session.FromContext(c)
	_ = h.auth.Logout(sess)

	// 破棄後の新しい空のセッションにフラッシュだけを載せる
	sess.SetFlash(session.FlashSuccess, "¡Sesión cerrada correctamente! Esperamos verte pronto.")
	_ = sess.Save()
	c.Redirect(http.StatusSeeOther, PathLogin)
}

// Dashboard は認証済みユーザーのダッシュボードを表示します。
func (h *Handler) Dashboard(c *gin.Context) {
	sess := session.FromContext(c)
	usuario, err := h.auth.CurrentUser(c.Request.Context(), sess)
	if err != nil {
		h.logger.Error("loading current user", "error", err)
		sess.SetFlash(session.FlashError, "No se pudo completar la operación. Inténtalo de nuevo.")
		_ = sess.Save()
		c.Redirect(http.StatusSeeOther, PathLogin)
		return
	}
	if usuario == nil {
		// レコードが消えていた場合は暗黙ログアウト済み
		c.Redirect(http.StatusSeeOther, PathLogin)
		return
	}

	loginTime := sess.LoginTime()
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Flash":         sess.ConsumeFlash(),
		"Usuario":       usuario,
		"LoginTime":     loginTime,
		"MinutesOnline": int(timeSince(loginTime).Minutes()),
	})
}

// Profile はアカウント情報ページを表示します。
func (h *Handler) Profile(c *gin.Context) {
	sess := session.FromContext(c)
	usuario, err := h.auth.CurrentUser(c.Request.Context(), sess)
	if err != nil {
		h.logger.Error("loading current user", "error", err)
		sess.SetFlash(session.FlashError, "No se pudo completar la operación. Inténtalo de nuevo.")
		_ = sess.Save()
		c.Redirect(http.StatusSeeOther, PathLogin)
		return
	}
	if usuario == nil {
		c.Redirect(http.StatusSeeOther, PathLogin)
		return
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Flash":   sess.ConsumeFlash(),
		"Usuario": usuario,
	})
}

func timeSince(t time.Time) time.Duration {
	if t.IsZero() {
		return 0
	}
	return time.Since(t)
}

// flashMessage は Auth Service のエラーをフラッシュ用のメッセージへ変換します。
// 利用者が修正できるエラーはそのまま、内部障害は汎用メッセージにして
// 詳細はログにだけ残します。
func (h *Handler) flashMessage(c *gin.Context, err error) string {
	var vErr *auth.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	if errors.Is(err, auth.ErrEmailRegistered) {
		return "El correo ya está registrado."
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return "Credenciales incorrectas."
	}

	var pErr *auth.PersistenceError
	if errors.As(err, &pErr) {
		h.logger.Error("persistence failure", "path", c.FullPath(), "error", pErr.Err)
	} else {
		h.logger.Error("unexpected auth error", "path", c.FullPath(), "error", err)
	}
	return "No se pudo completar la operación. Inténtalo de nuevo."
}
