package tools

import (
	"strings"
	"testing"
)

func hasIssue(issues []*LintIssue, code string, contains string) bool {
	for _, issue := range issues {
		if issue.Code == code && strings.Contains(issue.Message, contains) {
			return true
		}
	}
	return false
}

func TestLintUndefinedLabel(t *testing.T) {
	source := []string{
		"JMP MISSING",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if !hasIssue(issues, "UNDEF_LABEL", "MISSING") {
		t.Errorf("expected UNDEF_LABEL for MISSING, got %v", issues)
	}
}

func TestLintDuplicateLabel(t *testing.T) {
	source := []string{
		"> LOOP",
		"STB 1 2",
		"> LOOP",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if !hasIssue(issues, "DUPLICATE_LABEL", "LOOP") {
		t.Errorf("expected DUPLICATE_LABEL for LOOP, got %v", issues)
	}
}

func TestLintUnusedLabel(t *testing.T) {
	source := []string{
		"> DEST 100",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if !hasIssue(issues, "UNUSED_LABEL", "DEST") {
		t.Errorf("expected UNUSED_LABEL for DEST, got %v", issues)
	}
}

func TestLintStartLabelNeverFlaggedUnused(t *testing.T) {
	source := []string{
		"> START",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if hasIssue(issues, "UNUSED_LABEL", "START") {
		t.Error("START should never be flagged unused")
	}
}

func TestLintUnreachableCodeAfterHalt(t *testing.T) {
	source := []string{
		"HLT",
		"STB 1 2",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if !hasIssue(issues, "UNREACHABLE_CODE", "") {
		t.Errorf("expected UNREACHABLE_CODE, got %v", issues)
	}
}

func TestLintNoIssuesOnLabeledCodeAfterJump(t *testing.T) {
	source := []string{
		"JMP SKIP",
		"> SKIP",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if hasIssue(issues, "UNREACHABLE_CODE", "") {
		t.Errorf("did not expect UNREACHABLE_CODE when a label follows, got %v", issues)
	}
}

func TestLintSuggestsSimilarLabel(t *testing.T) {
	source := []string{
		"> DESTINATION 100",
		"JMP DESTINASHUN",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if !hasIssue(issues, "UNDEF_LABEL", "did you mean") {
		t.Errorf("expected a suggestion for a near-miss label, got %v", issues)
	}
}

func TestLintNumericOperandsNeverFlagged(t *testing.T) {
	source := []string{
		"STB $64 :101 #17 100",
		"HLT",
	}

	issues := NewLinter(DefaultLintOptions()).Lint(source)
	if hasIssue(issues, "UNDEF_LABEL", "") {
		t.Errorf("did not expect any undefined label issues, got %v", issues)
	}
}
