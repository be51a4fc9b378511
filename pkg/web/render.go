package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/geniass/salewatch/pkg/store"
	"github.com/geniass/salewatch/pkg/tracker"
)

//go:embed templates
var templatesFs embed.FS

type BaseContext struct {
	PathPrefix string
	Location   *time.Location
}

type SummaryContext struct {
	BaseContext
	Title       string
	LastUpdated time.Time
	BadgeText   string
	Summary     tracker.Summary
}

type FolderView struct {
	Name  string
	Items []store.Item
}

type FoldersContext struct {
	BaseContext
	Title   string
	Folders []FolderView
}

func (c BaseContext) FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("2006-01-02 15:04 MST")
}

func (c SummaryContext) FormattedLastUpdated() string {
	return c.FormatTime(c.LastUpdated)
}

// NewFoldersContext orders folders by name and items newest first.
func NewFoldersContext(base BaseContext, folders store.Folders) FoldersContext {
	c := FoldersContext{BaseContext: base, Title: "Folders"}
	for _, name := range folders.Names() {
		c.Folders = append(c.Folders, FolderView{
			Name:  name,
			Items: store.SortedByRecency(folders[name]),
		})
	}
	return c
}

var templateFuncs = template.FuncMap{
	"price": formatPrice,
}

func formatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func RenderSummary(w io.Writer, c SummaryContext) error {
	return render(w, "summary.html.tpl", c)
}

func RenderFolders(w io.Writer, c FoldersContext) error {
	return render(w, "folders.html.tpl", c)
}

func render(w io.Writer, name string, data any) error {
	t, err := template.New(name).Funcs(templateFuncs).ParseFS(templatesFs, "templates/"+name)
	if err != nil {
		return err
	}
	t, err = t.ParseFS(templatesFs, "templates/common/*")
	if err != nil {
		return err
	}

	return t.ExecuteTemplate(w, name, data)
}
