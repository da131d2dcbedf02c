// Package store はデータベース接続とスキーママイグレーションを提供します。
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool は PostgreSQL への接続プールを作成し、疎通を確認します。
// 接続はリクエストごとにプールから取得・返却されます。
// 起動時にここで失敗した場合、プロセスは継続しません（縮退運転なし）。
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
