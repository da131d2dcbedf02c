// Package password はパスワードの一方向ハッシュ化と検証を提供します。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt は72バイトを超える入力を無言で切り詰めるため、明示的に拒否する。
const maxPlaintextBytes = 72

// Hasher は bcrypt によるハッシュ化と検証を行います。
// コストはテストで下げられるように注入可能にしています。
type Hasher struct {
	cost int
}

// NewHasher は指定したコストの Hasher を作成します。
// コストが範囲外の場合は bcrypt.DefaultCost にフォールバックします。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文パスワードをハッシュ化します。
// 呼び出しごとに新しいソルトが生成されるため、同じ入力でも毎回異なる
// トークンが返ります。トークンはアルゴリズム・コスト・ソルトを含む
// 自己記述形式（$2a$...）なので、そのままDBに保存できます。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	if len(plaintext) > maxPlaintextBytes {
		return "", fmt.Errorf("password must be %d bytes or fewer", maxPlaintextBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify は平文パスワードが保存済みハッシュと一致するかを返します。
// ハッシュに埋め込まれたパラメーターで再計算し、bcrypt 内部の
// 定数時間比較で照合します。不正な形式のハッシュはエラーではなく
// 単に false として扱います。
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
