package localexec

import (
	"context"
	"testing"
)

func TestSanitizeExecutableAcceptsBareNameAndPath(t *testing.T) {
	if _, err := sanitizeExecutable("systemctl"); err != nil {
		t.Fatalf("expected bare name accepted, got %v", err)
	}
	if _, err := sanitizeExecutable("/usr/bin/systemctl"); err != nil {
		t.Fatalf("expected absolute path accepted, got %v", err)
	}
	if _, err := sanitizeExecutable("./local-script.sh"); err != nil {
		t.Fatalf("expected relative path accepted, got %v", err)
	}
}

func TestSanitizeExecutableRejectsShellMetacharacters(t *testing.T) {
	cases := []string{"ls; rm -rf /", "ls && whoami", "ls | cat", "`whoami`", "ls > /etc/passwd", "$(whoami)"}
	for _, c := range cases {
		if _, err := sanitizeExecutable(c); err == nil {
			t.Fatalf("expected rejection for %q", c)
		}
	}
}

func TestSanitizeExecutableRejectsQuotesAndControlChars(t *testing.T) {
	if _, err := sanitizeExecutable(`ls"`); err == nil {
		t.Fatal("expected quote rejection")
	}
	if _, err := sanitizeExecutable("ls\n"); err == nil {
		t.Fatal("expected control character rejection")
	}
}

func TestSanitizeExecutableRejectsOptionInjection(t *testing.T) {
	if _, err := sanitizeExecutable("--help"); err == nil {
		t.Fatal("expected option-injection rejection for bare dash-prefixed name")
	}
}

func TestSanitizeExecutableRejectsEmpty(t *testing.T) {
	if _, err := sanitizeExecutable("   "); err == nil {
		t.Fatal("expected empty value rejection")
	}
}

func TestSanitizeArgRejectsMetacharactersAndControlChars(t *testing.T) {
	if err := sanitizeArg("safe-value"); err != nil {
		t.Fatalf("expected safe value accepted, got %v", err)
	}
	if err := sanitizeArg("rm -rf / ; echo pwned"); err == nil {
		t.Fatal("expected metacharacter rejection")
	}
	if err := sanitizeArg("line1\nline2"); err == nil {
		t.Fatal("expected control character rejection")
	}
}

func TestHandlerCallRejectsUnknownAction(t *testing.T) {
	h := New()
	_, err := h.Call(context.Background(), "delete", map[string]any{"command": "echo"})
	if err == nil || err.Code != "unknown_action" {
		t.Fatalf("expected unknown_action, got %+v", err)
	}
}

func TestHandlerCallRejectsUnsafeCommand(t *testing.T) {
	h := New()
	_, err := h.Call(context.Background(), "exec", map[string]any{"command": "echo hi; rm -rf /"})
	if err == nil || err.Code != "unsafe_command" {
		t.Fatalf("expected unsafe_command, got %+v", err)
	}
}

func TestHandlerCallRejectsUnsafeArgument(t *testing.T) {
	h := New()
	_, err := h.Call(context.Background(), "exec", map[string]any{
		"command": "echo",
		"args":    []any{"safe", "rm -rf / ;"},
	})
	if err == nil || err.Code != "unsafe_argument" {
		t.Fatalf("expected unsafe_argument, got %+v", err)
	}
}

func TestHandlerCallRunsEchoSuccessfully(t *testing.T) {
	h := New()
	result, err := h.Call(context.Background(), "exec", map[string]any{
		"command": "echo",
		"args":    []any{"hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	m := result.(map[string]any)
	if m["exit_code"] != 0 {
		t.Fatalf("expected exit code 0, got %v", m["exit_code"])
	}
}
