package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

// TestPrintToPDFOutputIsReadable exercises the same ledongthuc/pdf
// extraction path a consumer would run over a Page.printToPDF result
// (testdata/sample.pdf is a hand-built single-page PDF standing in for
// live Chrome output, since this package never drives a real browser).
func TestPrintToPDFOutputIsReadable(t *testing.T) {
	buf, err := os.ReadFile(filepath.Join("testdata", "sample.pdf"))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		t.Fatalf("pdf.NewReader() error = %v", err)
	}

	text, err := r.GetPlainText()
	if err != nil {
		t.Fatalf("GetPlainText() error = %v", err)
	}

	var sb strings.Builder
	if _, err := sb.ReadFrom(text); err != nil {
		t.Fatalf("reading plain text: %v", err)
	}
	if !strings.Contains(sb.String(), "Hello World") {
		t.Fatalf("extracted text = %q, want it to contain %q", sb.String(), "Hello World")
	}
}
