// Package pipeline implements the pipeline streamer tool: a sequence of
// local commands where each stage's stdout feeds the next stage's stdin,
// reported as one ordered result. Grounded on
// ormasoftchile-gert/pkg/kernel/executor/executor.go's per-stage
// stdout/stderr capture shape (applyExtract), composing multiple stages
// into one handler rather than one process per shell pipe segment.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
)

// stage is one step of the pipeline.
type stage struct {
	Command string
	Args    []string
}

// Handler runs each stage in order, feeding stage N's stdout as stage N+1's
// stdin. This is a member of the local-execution tool class, gated by the
// same unsafe_local policy flag as mcp_local.
type Handler struct{}

func New() Handler { return Handler{} }

// Call args: {stages: [{command: string, args: []string}, ...]}.
func (Handler) Call(ctx context.Context, _ string, args map[string]any) (any, *envelope.ToolError) {
	raw, ok := args["stages"].([]any)
	if !ok || len(raw) == 0 {
		return nil, envelope.New(envelope.KindInvalidArgs, "missing_stages", "pipeline requires a non-empty stages array")
	}

	stages := make([]stage, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, envelope.New(envelope.KindInvalidArgs, "invalid_stage", "each pipeline stage must be an object")
		}
		cmd, _ := m["command"].(string)
		if cmd == "" {
			return nil, envelope.New(envelope.KindInvalidArgs, "missing_stage_command", "each pipeline stage requires a command")
		}
		var stageArgs []string
		if a, ok := m["args"].([]any); ok {
			for _, v := range a {
				s, _ := v.(string)
				stageArgs = append(stageArgs, s)
			}
		}
		stages = append(stages, stage{Command: cmd, Args: stageArgs})
	}

	var input []byte
	results := make([]map[string]any, 0, len(stages))
	start := time.Now()

	for i, st := range stages {
		cmd := exec.CommandContext(ctx, st.Command, st.Args...)
		cmd.Stdin = bytes.NewReader(input)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		runErr := cmd.Run()
		exitCode := 0
		if runErr != nil {
			var exitErr *exec.ExitError
			if errors.As(runErr, &exitErr) {
				exitCode = exitErr.ExitCode()
			} else if ctx.Err() != nil {
				return nil, envelope.New(envelope.KindTimeout, "deadline_exceeded", "pipeline exceeded its deadline").WithRetryable(true)
			} else {
				return nil, envelope.New(envelope.KindUpstream, "stage_failed", runErr.Error()).
					WithDetail("stage_index", i).WithRetryable(true)
			}
		}

		results = append(results, map[string]any{
			"stage":     i,
			"command":   st.Command,
			"exit_code": exitCode,
			"stderr":    stderr.String(),
		})
		input = stdout.Bytes()

		if exitCode != 0 {
			break
		}
	}

	return map[string]any{
		"stages":      results,
		"stdout":      string(input),
		"duration_ms": time.Since(start).Milliseconds(),
	}, nil
}
