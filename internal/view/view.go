package view

import (
	"embed"
	"html/template"
	"io"
	"path"
	"time"

	"github.com/foolin/goview"
	"github.com/tester22000/simpleshare/internal/models"
)

//go:embed templates
var templates embed.FS

type IndexPage struct {
	Types    []string
	Contents []models.ShareContent
	Search   string
	Type     string

	Page     int
	NextPage int
	Total    int64
}

func (p IndexPage) HasNext() bool {
	return p.NextPage > p.Page
}

type ContentPage struct {
	ID      string
	Type    string
	Preview string

	// Contents must already be escaped.
	Contents template.HTML
	Binary   bool
	Modified int64
}

// FormPage backs the upload and new forms.
type FormPage struct {
	Limit string
}

type View struct {
	engine *goview.ViewEngine
}

func New() *View {
	engine := goview.New(goview.Config{
		Root:      "templates",
		Extension: ".html",
		Master:    "layout",
		Funcs: template.FuncMap{
			"datetime": func(ts int64) string {
				return time.Unix(ts, 0).Format("2006-01-02 15:04")
			},
		},
	})

	engine.SetFileHandler(embedded)

	return &View{engine}
}

func (v *View) Render(w io.Writer, name string, data any) error {
	return v.engine.RenderWriter(w, name, data)
}

func embedded(config goview.Config, tmpl string) (string, error) {
	bytes, err := templates.ReadFile(path.Join(config.Root, tmpl+config.Extension))
	return string(bytes), err
}
