package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates は埋め込みページテンプレートを読み込みます。
// 値のHTMLエスケープは html/template が描画時に行うため、
// セッションやDBには未エスケープの文字列をそのまま保持できます。
func Templates() *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/*.html"))
}
