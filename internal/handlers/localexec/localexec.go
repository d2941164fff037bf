// Package localexec implements the gateway's local-execution tool class
// (arbitrary shell command, local filesystem). Membership in this class is
// what the Policy Gate's unsafe_local rule guards (spec §4.3).
//
// Argument sanitisation is grounded on haasonsaas-nexus's
// internal/exec/safety.go: reject shell metacharacters, control characters,
// quote characters, and option-injection attempts on the executable value;
// paths are allowed through once those checks pass.
package localexec

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
)

var (
	shellMetachars = regexp.MustCompile("[;&|`$<>]")
	controlChars   = regexp.MustCompile(`[\r\n]`)
	quoteChars     = regexp.MustCompile(`["']`)
	bareNamePattern = regexp.MustCompile(`^[A-Za-z0-9._+-]+$`)
)

var (
	errEmptyValue      = errors.New("executable value is empty")
	errControlChar     = errors.New("executable value contains control characters")
	errShellMetachar   = errors.New("executable value contains shell metacharacters")
	errQuoteChar       = errors.New("executable value contains quote characters")
	errOptionInjection = errors.New("executable value starts with dash (option injection)")
	errInvalidBareName = errors.New("executable value contains invalid characters for a bare name")
)

func isLikelyPath(value string) bool {
	if value == "" {
		return false
	}
	return strings.HasPrefix(value, ".") || strings.HasPrefix(value, "~") ||
		strings.Contains(value, "/") || strings.Contains(value, "\\")
}

// sanitizeExecutable validates an executable name or path, returning it
// trimmed if safe.
func sanitizeExecutable(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errEmptyValue
	}
	if controlChars.MatchString(value) {
		return "", errControlChar
	}
	if shellMetachars.MatchString(trimmed) {
		return "", errShellMetachar
	}
	if quoteChars.MatchString(trimmed) {
		return "", errQuoteChar
	}
	if isLikelyPath(trimmed) {
		return trimmed, nil
	}
	if strings.HasPrefix(trimmed, "-") {
		return "", errOptionInjection
	}
	if !bareNamePattern.MatchString(trimmed) {
		return "", errInvalidBareName
	}
	return trimmed, nil
}

// sanitizeArg applies the control-character and shell-metacharacter checks
// to each argv element (not just the executable); quote characters are
// allowed in arguments. exec.Command never invokes a shell, but a
// malformed argument can still corrupt downstream
// tooling that re-parses the recorded command line.
func sanitizeArg(value string) error {
	if controlChars.MatchString(value) {
		return errControlChar
	}
	if shellMetachars.MatchString(value) {
		return errShellMetachar
	}
	return nil
}

// Handler runs a local command via exec.Command (no shell interpolation).
// Supported action: "exec" with args {command: string, args: []string}.
// The run is bounded only by the call's context deadline.
type Handler struct{}

func New() Handler { return Handler{} }

func (Handler) Call(ctx context.Context, action string, args map[string]any) (any, *envelope.ToolError) {
	if action != "" && action != "exec" {
		return nil, envelope.New(envelope.KindInvalidArgs, "unknown_action", "mcp_local supports only the exec action")
	}

	command, _ := args["command"].(string)
	safeCommand, err := sanitizeExecutable(command)
	if err != nil {
		return nil, envelope.New(envelope.KindInvalidArgs, "unsafe_command", err.Error())
	}

	var argv []string
	if raw, ok := args["args"].([]any); ok {
		for _, a := range raw {
			s, _ := a.(string)
			if err := sanitizeArg(s); err != nil {
				return nil, envelope.New(envelope.KindInvalidArgs, "unsafe_argument", err.Error())
			}
			argv = append(argv, s)
		}
	}

	cmd := exec.CommandContext(ctx, safeCommand, argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else if ctx.Err() != nil {
			return nil, envelope.New(envelope.KindTimeout, "deadline_exceeded", "local command exceeded its deadline").WithRetryable(true)
		} else {
			return nil, envelope.New(envelope.KindUpstream, "exec_failed", runErr.Error()).WithRetryable(true)
		}
	}

	return map[string]any{
		"exit_code":   exitCode,
		"stdout":      stdout.String(),
		"stderr":      stderr.String(),
		"duration_ms": duration.Milliseconds(),
	}, nil
}
