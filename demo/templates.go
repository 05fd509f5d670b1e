package demo

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// Loader loads and renders bundle templates.
type Loader struct {
	dirs    []string
	cache   map[string]*template.Template
	funcMap template.FuncMap
}

// NewLoader creates a template loader for the given project directory.
// It searches, in order:
// 1. .prdeploy/templates/ in the project
// 2. Templates embedded in the binary
func NewLoader(projectDir string) *Loader {
	l := &Loader{
		cache:   make(map[string]*template.Template),
		funcMap: defaultFuncMap(),
	}
	if projectDir != "" {
		l.dirs = append(l.dirs, filepath.Join(projectDir, ".prdeploy", "templates"))
	}
	return l
}

// AddSearchDir adds a directory searched before the existing ones.
func (l *Loader) AddSearchDir(dir string) {
	l.dirs = append([]string{dir}, l.dirs...)
}

// Render renders the named template (e.g. "app.py") with data.
func (l *Loader) Render(name string, data any) (string, error) {
	tmpl, err := l.getTemplate(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

// Exists reports whether a template can be loaded.
func (l *Loader) Exists(name string) bool {
	_, err := l.loadRaw(name)
	return err == nil
}

func (l *Loader) getTemplate(name string) (*template.Template, error) {
	if tmpl, ok := l.cache[name]; ok {
		return tmpl, nil
	}

	content, err := l.loadRaw(name)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Funcs(l.funcMap).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	l.cache[name] = tmpl
	return tmpl, nil
}

func (l *Loader) loadRaw(name string) (string, error) {
	filename := name + ".tmpl"

	for _, dir := range l.dirs {
		data, err := os.ReadFile(filepath.Join(dir, filename))
		if err == nil {
			return string(data), nil
		}
	}

	data, err := embeddedTemplates.ReadFile("templates/" + filename)
	if err != nil {
		return "", fmt.Errorf("template not found: %s", name)
	}
	return string(data), nil
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"title": titleCase,
		"lower": strings.ToLower,
		"quote": pyQuote,
		"join":  strings.Join,
	}
}

var titler = cases.Title(language.English)

// titleCase turns a demo directory name such as "image_classifier" into
// "Image Classifier".
func titleCase(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return titler.String(strings.Join(strings.Fields(s), " "))
}

// pyQuote renders s as a double-quoted Python string literal.
func pyQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
