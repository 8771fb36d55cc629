package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner emulates LibreOffice by writing output into the --outdir argument.
type fakeRunner struct {
	output []byte // nil: write nothing
	err    error

	name   string
	args   []string
	outDir string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name, f.args = name, args
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			f.outDir = args[i+1]
		}
	}
	if f.err != nil {
		return nil, []byte("source file could not be loaded"), f.err
	}
	if f.output != nil {
		if err := os.WriteFile(filepath.Join(f.outDir, "source.pdf"), f.output, 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

var minimalPDF = []byte("%PDF-1.7\n1 0 obj\n<< >>\nendobj\ntrailer\n<< >>\n%%EOF\n")

func TestConvert_Success(t *testing.T) {
	runner := &fakeRunner{output: minimalPDF}
	conv := NewLibreOffice(Config{Binary: "soffice"}, runner, nil)

	pdf, err := conv.Convert(context.Background(), []byte("PK\x03\x04 docx bytes"))
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if string(pdf) != string(minimalPDF) {
		t.Errorf("Convert returned %q, want the produced PDF", pdf)
	}

	if runner.name != "soffice" {
		t.Errorf("ran %q, want soffice", runner.name)
	}
	joined := strings.Join(runner.args, " ")
	for _, want := range []string{"--headless", "--convert-to pdf", "-env:UserInstallation=file://"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if !strings.HasSuffix(joined, filepath.Join(runner.outDir, "source.docx")) {
		t.Errorf("args %q do not end with the staged source", joined)
	}
}

func TestConvert_CleansUpOnEveryPath(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		wantErr bool
	}{
		{name: "success", runner: &fakeRunner{output: minimalPDF}},
		{name: "tool fails", runner: &fakeRunner{err: errors.New("exit status 1")}, wantErr: true},
		{name: "no output", runner: &fakeRunner{}, wantErr: true},
		{name: "output is not a pdf", runner: &fakeRunner{output: []byte("<html></html>")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewLibreOffice(Config{}, tt.runner, nil)
			_, err := conv.Convert(context.Background(), []byte("docx"))

			if tt.wantErr && !errors.Is(err, ErrConversion) {
				t.Errorf("Convert error = %v, want ErrConversion", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Convert failed: %v", err)
			}
			if tt.runner.outDir == "" {
				t.Fatal("runner never saw an --outdir")
			}
			if _, statErr := os.Stat(tt.runner.outDir); !os.IsNotExist(statErr) {
				t.Errorf("scratch dir %s still exists", tt.runner.outDir)
			}
		})
	}
}

func TestConvert_DefaultBinary(t *testing.T) {
	runner := &fakeRunner{output: minimalPDF}
	if _, err := NewLibreOffice(Config{}, runner, nil).Convert(context.Background(), nil); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if runner.name != "libreoffice" {
		t.Errorf("ran %q, want libreoffice", runner.name)
	}
}
