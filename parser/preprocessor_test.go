package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bthedestroyer/kip/parser"
)

func TestPreprocessorNoImports(t *testing.T) {
	pre := parser.NewPreprocessor(".")
	lines, res := pre.ProcessLines([]string{"STB 1 2", "HLT"})
	if !res.Success {
		t.Fatalf("ProcessLines failed: %s", res.Message)
	}
	if len(lines) != 2 {
		t.Errorf("lines = %v, want 2 unchanged lines", lines)
	}
}

func TestPreprocessorSplicesImport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.kip"), []byte("STB 1 2"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	pre := parser.NewPreprocessor(dir)
	lines, res := pre.ProcessLines([]string{"< lib.kip", "HLT"})
	if !res.Success {
		t.Fatalf("ProcessLines failed: %s", res.Message)
	}
	if len(lines) != 2 || lines[0] != "STB 1 2" || lines[1] != "HLT" {
		t.Errorf("lines = %v, want [STB 1 2, HLT]", lines)
	}
}

func TestPreprocessorResolvesNestedImports(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "inner.kip"), []byte("STB 9 9"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "outer.kip"), []byte("< inner.kip"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	pre := parser.NewPreprocessor(dir)
	lines, res := pre.ProcessLines([]string{"< outer.kip", "HLT"})
	if !res.Success {
		t.Fatalf("ProcessLines failed: %s", res.Message)
	}
	if len(lines) != 2 || lines[0] != "STB 9 9" {
		t.Errorf("lines = %v, want nested import resolved to [STB 9 9, HLT]", lines)
	}
}

func TestPreprocessorRejectsCyclicImport(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.kip"), []byte("< b.kip"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.kip"), []byte("< a.kip"), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	pre := parser.NewPreprocessor(dir)
	_, res := pre.ProcessLines([]string{"< a.kip"})
	if res.Success {
		t.Error("expected a cyclic include to be rejected")
	}
}

func TestPreprocessorMissingFilenameErrors(t *testing.T) {
	pre := parser.NewPreprocessor(".")
	_, res := pre.ProcessLines([]string{"<"})
	if res.Success {
		t.Error("expected an import directive with no filename to fail")
	}
}

func TestPreprocessorUnreadableImportErrors(t *testing.T) {
	pre := parser.NewPreprocessor(t.TempDir())
	_, res := pre.ProcessLines([]string{"< does-not-exist.kip"})
	if res.Success {
		t.Error("expected an unreadable import to fail")
	}
}
