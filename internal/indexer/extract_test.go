package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTextExtractor_MarkdownText(t *testing.T) {
	e := NewTextExtractor()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "empty",
			content: "",
			want:    "",
		},
		{
			name:    "heading and paragraph",
			content: "# Refund Policy\n\nRefunds are issued within\nthirty days.",
			want:    "Refund Policy\n\nRefunds are issued within thirty days.",
		},
		{
			name:    "list items become blocks",
			content: "Steps:\n\n- open the app\n- tap settings\n",
			want:    "Steps:\n\nopen the app\n\ntap settings",
		},
		{
			name:    "table rows are pipe joined",
			content: "| plan | price |\n|------|-------|\n| basic | 10 |\n",
			want:    "plan | price\n\nbasic | 10",
		},
		{
			name:    "emphasis keeps its text",
			content: "This is **very** important.",
			want:    "This is very important.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.MarkdownText([]byte(tt.content)); got != tt.want {
				t.Errorf("MarkdownText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	e := NewTextExtractor()

	txtPath := filepath.Join(dir, "faq.txt")
	if err := os.WriteFile(txtPath, []byte("\n  Plain text body.  \n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	got, err := e.Extract(txtPath)
	if err != nil {
		t.Fatalf("Extract(txt) unexpected error: %v", err)
	}
	if got != "Plain text body." {
		t.Errorf("Extract(txt) = %q, want %q", got, "Plain text body.")
	}

	mdPath := filepath.Join(dir, "guide.md")
	if err := os.WriteFile(mdPath, []byte("# Guide\n\nBody text."), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	got, err = e.Extract(mdPath)
	if err != nil {
		t.Fatalf("Extract(md) unexpected error: %v", err)
	}
	if got != "Guide\n\nBody text." {
		t.Errorf("Extract(md) = %q", got)
	}

	if _, err := e.Extract(filepath.Join(dir, "sheet.xlsx")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Extract(xlsx) error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := e.Extract(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Extract(missing) expected error, got nil")
	}

	badPDF := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(badPDF, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := e.Extract(badPDF); err == nil {
		t.Error("Extract(broken pdf) expected error, got nil")
	}
}

func TestFindSourceFile(t *testing.T) {
	dir := t.TempDir()

	if got := FindSourceFile(dir, "faq"); got != "" {
		t.Errorf("FindSourceFile() = %q, want empty", got)
	}

	for _, name := range []string{"faq.txt", "faq.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	if got := FindSourceFile(dir, "faq"); got != filepath.Join(dir, "faq.md") {
		t.Errorf("FindSourceFile() = %q, want faq.md", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "faq.pdf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if got := FindSourceFile(dir, "faq"); got != filepath.Join(dir, "faq.pdf") {
		t.Errorf("FindSourceFile() = %q, want faq.pdf", got)
	}
}
