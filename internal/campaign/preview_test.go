package campaign

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPreviewNameFunc(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"alice@example.com", "preview_alice_example.com.html"},
		{"Alice@Example.COM", "preview_alice_example.com.html"},
		{"  bob@example.com  ", "preview_bob_example.com.html"},
		{"weird/name@example.com", "preview_weird_name_example.com.html"},
		{"a b\tc@example.com", "preview_a_b_c_example.com.html"},
		{"plus+tag@example.com", "preview_plus+tag_example.com.html"},
	}

	for _, tc := range tests {
		t.Run(tc.addr, func(t *testing.T) {
			if got := PreviewName(tc.addr); got != tc.want {
				t.Errorf("PreviewName(%q) = %q, want %q", tc.addr, got, tc.want)
			}
		})
	}
}

func TestWritePreview(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "previews", "nested")
	html := "<html><body>Hello</body></html>"

	if err := WritePreview(dir, "preview_a@b.com.html", html); err != nil {
		t.Fatalf("WritePreview() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "preview_a@b.com.html"))
	if err != nil {
		t.Fatalf("reading preview back: %v", err)
	}
	if string(got) != html {
		t.Errorf("preview content = %q, want %q", got, html)
	}
}

func TestWritePreview_Overwrites(t *testing.T) {
	dir := t.TempDir()

	if err := WritePreview(dir, "p.html", "first"); err != nil {
		t.Fatal(err)
	}
	if err := WritePreview(dir, "p.html", "second"); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "p.html"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Errorf("content = %q, want last write to win", got)
	}
}
