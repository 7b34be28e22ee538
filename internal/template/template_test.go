package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemplate(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "body.html")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid", "<p>Hello {{.name}}</p>", false},
		{"plain html", "<p>Hello</p>", false},
		{"broken syntax", "<p>Hello {{.name</p>", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeTemplate(t, tc.content))
			if (err != nil) != tc.wantErr {
				t.Errorf("LoadFile() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.html"))
	if err == nil {
		t.Fatal("LoadFile() succeeded for missing file, want error")
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		content string
		data    map[string]any
		want    string
		wantErr bool
	}{
		{
			name:    "field round trip",
			content: "Hello {{.name}}, {{.email}}",
			data:    map[string]any{"name": "A", "email": "a@b.com"},
			want:    "Hello A, a@b.com",
		},
		{
			name:    "html escaping",
			content: "<p>{{.content}}</p>",
			data:    map[string]any{"content": "<script>alert('x')</script>"},
			want:    "<p>&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;</p>",
		},
		{
			name:    "conditional",
			content: "{{if .vip}}Dear {{.name}}{{else}}Hello{{end}}",
			data:    map[string]any{"vip": "yes", "name": "B"},
			want:    "Dear B",
		},
		{
			name:    "execute error",
			content: "{{if .bad}}{{.bad.field}}{{end}}",
			data:    map[string]any{"bad": "a string"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tmpl, err := LoadFile(writeTemplate(t, tc.content))
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}

			got, err := tmpl.Render(tc.data)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Render() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("Render() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		data    map[string]any
		want    string
		wantErr bool
	}{
		{"plain string", "Monthly update", nil, "Monthly update", false},
		{"with variable", "Hello {{.name}}", map[string]any{"name": "A"}, "Hello A", false},
		{"missing variable", "Hello {{.name}}", map[string]any{}, "Hello <no value>", false},
		{"broken syntax", "Hello {{.name", nil, "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RenderSubject(tc.subject, tc.data)
			if (err != nil) != tc.wantErr {
				t.Fatalf("RenderSubject() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("RenderSubject() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRender_FreshPerRecipient(t *testing.T) {
	tmpl, err := LoadFile(writeTemplate(t, "Hi {{.name}}"))
	if err != nil {
		t.Fatal(err)
	}

	first, err := tmpl.Render(map[string]any{"name": "A"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := tmpl.Render(map[string]any{"name": "B"})
	if err != nil {
		t.Fatal(err)
	}

	if first != "Hi A" || second != "Hi B" {
		t.Errorf("renders = %q, %q; outputs must not leak between recipients", first, second)
	}
	if strings.Contains(second, "A") {
		t.Errorf("second render %q contains first recipient's data", second)
	}
}
