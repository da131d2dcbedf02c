// Package captcha はボット対策用の算数チャレンジを生成・検証します。
//
// 外部のCAPTCHAサービスには依存せず、"3 + 5 = ?" のような question を
// フォームに表示し、期待解をセッションに保存します。チャレンジは
// 使い捨てで、検証を一度試みると成否にかかわらず消費されます。
package captcha

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Session はチャレンジの期待解を保持するセッション操作です。
// *session.Session が実装します。
type Session interface {
	// SetChallengeAnswer は期待解を保存します。
	SetChallengeAnswer(answer int)
	// TakeChallengeAnswer は期待解を返して削除します。未保存なら ok=false です。
	TakeChallengeAnswer() (answer int, ok bool)
}

// Generator は算数チャレンジを生成します。
type Generator struct {
	mu  sync.Mutex // rng は並行アクセスに対して安全ではない
	rng *rand.Rand
}

// NewGenerator は現在時刻で初期化した Generator を作成します。
func NewGenerator() *Generator {
	return NewGeneratorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewGeneratorWithSource は指定した乱数源で Generator を作成します。
// テストでシードを固定する場合に使用します。
func NewGeneratorWithSource(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Generate は1〜9の整数2つを独立に引き、期待解（和）をセッションへ
// 保存して質問文を返します。
func (g *Generator) Generate(sess Session) string {
	g.mu.Lock()
	a := g.rng.Intn(9) + 1
	b := g.rng.Intn(9) + 1
	g.mu.Unlock()

	sess.SetChallengeAnswer(a + b)
	return fmt.Sprintf("%d + %d = ?", a, b)
}

// Verify は入力値が期待解と一致するかを返します。
// 保留中のチャレンジがなければ false です。保存された期待解は
// 成否にかかわらず削除されるため、同じチャレンジは再利用できません。
// 数値として解釈できない入力は誤答と同じ扱いです。
func (g *Generator) Verify(sess Session, input string) bool {
	expected, ok := sess.TakeChallengeAnswer()
	if !ok {
		return false
	}

	answer, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return answer == expected
}
