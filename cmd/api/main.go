// Package main は認証Webサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/Emily2707/ACDB1-cdemily/internal/auth"
	"github.com/Emily2707/ACDB1-cdemily/internal/captcha"
	"github.com/Emily2707/ACDB1-cdemily/internal/config"
	"github.com/Emily2707/ACDB1-cdemily/internal/password"
	"github.com/Emily2707/ACDB1-cdemily/internal/session"
	"github.com/Emily2707/ACDB1-cdemily/internal/store"
	"github.com/Emily2707/ACDB1-cdemily/internal/user"
	"github.com/Emily2707/ACDB1-cdemily/internal/web"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// データベース接続。起動時の接続失敗はプロセス全体の致命傷とする
	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// スキーママイグレーションの適用
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.Use(web.RequestLogger(logger))
	router.SetHTMLTemplate(web.Templates())

	// セッションストアの設定（クッキー署名鍵は必須）
	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteStrictMode,
	})
	router.Use(sessions.Sessions(session.CookieName, cookieStore))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	// コンポーネントの組み立てとルーティング
	users := user.NewPostgresRepository(pool)
	authService := auth.NewService(users, password.NewHasher(cfg.BcryptCost))
	handler := web.NewHandler(authService, captcha.NewGenerator(), logger)

	router.GET("/health", handleHealth)
	handler.RegisterRoutes(router)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting auth server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "sistema-auth",
		"version": "0.1.0",
	})
}
