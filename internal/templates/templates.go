// Package templates holds the embedded page and component templates and the
// functions they use.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"lifeline/internal/dashboard"
	"lifeline/internal/status"
)

//go:embed *.tmpl components/*.tmpl
var files embed.FS

var md = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))

// Load parses every page and component template
func Load() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(files, "*.tmpl", "components/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// FuncMap returns the template functions
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return status.FormatDate(t)
		},
		"markdown": renderMarkdown,
		"bytes": func(size int64) string {
			if size <= 0 {
				return ""
			}
			return humanize.Bytes(uint64(size))
		},
		"id": func(id int64) string {
			return strconv.FormatInt(id, 10)
		},
		"ready": func(p dashboard.Phase) bool {
			return p == dashboard.Ready
		},
		"loading": func(p dashboard.Phase) bool {
			return p == dashboard.Loading
		},
		"noAccess": func(p dashboard.Phase) bool {
			return p == dashboard.NoAccess
		},
		"failed": func(p dashboard.Phase) bool {
			return p == dashboard.Error
		},
		"stockClass": func(s status.Stock) string {
			return "status-" + s.String()
		},
		"initial": func(s string) string {
			for _, r := range s {
				return string(r)
			}
			return "?"
		},
	}
}

// renderMarkdown renders AI suggestion markdown. Raw HTML in the source is
// dropped by goldmark's default renderer.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
