// Package policy implements the Policy Gate evaluated after alias/preset
// resolution and before handler dispatch (spec §4.3).
package policy

import (
	"os"
	"time"

	"github.com/opsgate/opsgate/internal/envelope"
)

// Flags are the process-wide safety flags read once at startup from the
// environment (spec §6).
type Flags struct {
	UnsafeLocal       bool
	AllowSecretExport bool
}

// FromEnv reads Flags from INFRA_UNSAFE_LOCAL / INFRA_ALLOW_SECRET_EXPORT.
func FromEnv() Flags {
	return Flags{
		UnsafeLocal:       os.Getenv("INFRA_UNSAFE_LOCAL") == "1",
		AllowSecretExport: os.Getenv("INFRA_ALLOW_SECRET_EXPORT") == "1",
	}
}

// Request is what the gate needs to know about one resolved call.
type Request struct {
	LocalExecClass bool // the tool's Descriptor.LocalExec
	SecretExport   bool // the tool's Descriptor.SecretExport, true only when this call requests secret material
	Deadline       time.Time
	HasDeadline    bool
	Now            time.Time
}

// Gate evaluates the three ordered, fast-fail checks from spec §4.3.
type Gate struct {
	flags Flags
}

func New(flags Flags) *Gate {
	return &Gate{flags: flags}
}

// Evaluate returns nil if the call may proceed, or the ToolError to fail it
// with. Checks are evaluated in the order the spec lists them: local-exec,
// secret-export, deadline.
func (g *Gate) Evaluate(req Request) *envelope.ToolError {
	if req.LocalExecClass && !g.flags.UnsafeLocal {
		return envelope.New(envelope.KindPolicy, "unsafe_local_disabled",
			"local execution tools are disabled; set INFRA_UNSAFE_LOCAL=1 to enable").
			WithHint("this process was started without the unsafe_local flag")
	}
	if req.SecretExport && !g.flags.AllowSecretExport {
		return envelope.New(envelope.KindPolicy, "secret_export_disabled",
			"secret-export calls are disabled; set INFRA_ALLOW_SECRET_EXPORT=1 to enable")
	}
	if req.HasDeadline && !req.Deadline.After(req.Now) {
		return envelope.New(envelope.KindTimeout, "deadline_exceeded",
			"the caller's deadline had already elapsed before dispatch").
			WithRetryable(true)
	}
	return nil
}
