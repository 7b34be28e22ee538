package campaign

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/stratomail/blast/internal/email"
)

// unsafeChars matches filename characters outside the safe set.
var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.+-]+`)

// TestPreviewName is the preview file name used for single test sends.
const TestPreviewName = "preview_test.html"

// PreviewName derives a deterministic preview file name from a recipient
// address.
func PreviewName(address string) string {
	safe := unsafeChars.ReplaceAllString(email.Canonical(address), "_")
	return fmt.Sprintf("preview_%s.html", safe)
}

// WritePreview persists a rendered HTML body under dir, creating the
// directory if absent.
func WritePreview(dir, name, html string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write preview: %w", err)
	}
	return nil
}
