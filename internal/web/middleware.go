package web

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Emily2707/ACDB1-cdemily/internal/auth"
	"github.com/Emily2707/ACDB1-cdemily/internal/session"
)

// RequireAuth は保護ページを守るミドルウェアを返します。
// 未認証の場合は Auth Service のリダイレクト指示に従って処理を中断し、
// 保護されたコンテンツは描画しません。
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c)

		err := h.auth.RequireAuthenticated(sess)
		if err == nil {
			c.Next()
			return
		}

		var redirect *auth.RedirectError
		if errors.As(err, &redirect) {
			c.Redirect(http.StatusSeeOther, redirect.Location)
			c.Abort()
			return
		}

		h.logger.Error("authorization gate failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}
}

// RequestLogger はリクエストごとにIDを採番して構造化ログを出力する
// ミドルウェアを返します。
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)

		c.Next()

		logger.Info("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
