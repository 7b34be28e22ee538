// Package template renders per-recipient subjects and HTML bodies.
package template

import (
	"bytes"
	"fmt"
	htmlTemplate "html/template"
	"os"
	"path/filepath"
	textTemplate "text/template"
)

// Template is a parsed HTML body template, rendered once per recipient.
type Template struct {
	name string
	html *htmlTemplate.Template
}

// LoadFile reads and parses an HTML template file. Parsing happens once;
// Render executes the parsed template per recipient.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}

	name := filepath.Base(path)
	t, err := htmlTemplate.New(name).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	return &Template{name: name, html: t}, nil
}

// Name returns the template's file name.
func (t *Template) Name() string {
	return t.name
}

// Render executes the body template with the recipient's bindings.
// Missing variables follow html/template's own defaults; the renderer
// imposes no substitution policy of its own.
func (t *Template) Render(data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.html.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render body: %w", err)
	}
	return buf.String(), nil
}

// RenderSubject renders a subject line as a text template against the
// recipient's bindings. Plain strings pass through unchanged.
func RenderSubject(subject string, data map[string]any) (string, error) {
	t, err := textTemplate.New("subject").Parse(subject)
	if err != nil {
		return "", fmt.Errorf("failed to parse subject: %w", err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render subject: %w", err)
	}
	return buf.String(), nil
}
