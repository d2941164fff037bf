// Package main provides the opsgated binary: the single-process
// operations gateway exposing every registered tool over MCP stdio,
// grounded on ormasoftchile-gert/cmd/gert-mcp/main.go and
// Hardonian-Reach/services/runner/cmd/runner-mcp/main.go's env-driven
// wiring pattern.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/opsgate/opsgate/internal/artifact"
	"github.com/opsgate/opsgate/internal/audit"
	"github.com/opsgate/opsgate/internal/catalog"
	"github.com/opsgate/opsgate/internal/config"
	"github.com/opsgate/opsgate/internal/envelope"
	"github.com/opsgate/opsgate/internal/executor"
	"github.com/opsgate/opsgate/internal/handlers/artifacthandler"
	"github.com/opsgate/opsgate/internal/handlers/audithandler"
	"github.com/opsgate/opsgate/internal/handlers/capabilityhandler"
	"github.com/opsgate/opsgate/internal/handlers/echo"
	"github.com/opsgate/opsgate/internal/handlers/help"
	"github.com/opsgate/opsgate/internal/handlers/httpcall"
	"github.com/opsgate/opsgate/internal/handlers/intenthandler"
	"github.com/opsgate/opsgate/internal/handlers/localexec"
	"github.com/opsgate/opsgate/internal/handlers/pgquery"
	"github.com/opsgate/opsgate/internal/handlers/pipeline"
	"github.com/opsgate/opsgate/internal/handlers/profilehandler"
	"github.com/opsgate/opsgate/internal/handlers/runbookhandler"
	"github.com/opsgate/opsgate/internal/handlers/sshexec"
	"github.com/opsgate/opsgate/internal/intent"
	"github.com/opsgate/opsgate/internal/policy"
	"github.com/opsgate/opsgate/internal/registry"
	"github.com/opsgate/opsgate/internal/runbook"
	"github.com/opsgate/opsgate/internal/store"
	"github.com/opsgate/opsgate/internal/telemetry"
	"github.com/opsgate/opsgate/internal/transport"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "opsgated: %v\n", err)
		os.Exit(1)
	}
}

// deferredDispatcher breaks the Registry <-> Executor <-> Runbook/Intent
// Engine cycle: the runbook and intent handlers need an engine built atop
// the Executor, but the Executor needs a Registry that already holds those
// handlers. Every handler is registered once, against this indirection,
// and bind is called right after the real Executor exists.
type deferredDispatcher struct {
	exec *executor.Executor
}

func (d *deferredDispatcher) Execute(ctx context.Context, call envelope.ToolCall) envelope.Envelope {
	return d.exec.Execute(ctx, call)
}

func (d *deferredDispatcher) bind(exec *executor.Executor) { d.exec = exec }

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := telemetry.New(cfg.LogLevel).WithComponent("main")

	artifacts, err := artifact.New(cfg.ArtifactRoot)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	auditSink, err := audit.New(cfg.AuditDir())
	if err != nil {
		return fmt.Errorf("open audit sink: %w", err)
	}
	profiles, err := store.NewProfileStore(cfg.ProfilesSubdir())
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	runbooks, err := store.LoadRunbookCatalog(cfg.RunbooksPath)
	if err != nil {
		return fmt.Errorf("load runbook catalog: %w", err)
	}
	capabilities, err := store.LoadCapabilityCatalog(cfg.CapabilitiesPath)
	if err != nil {
		return fmt.Errorf("load capability catalog: %w", err)
	}

	redactor := envelope.NewRedactor()
	gate := policy.New(cfg.Flags)

	dispatcher := &deferredDispatcher{}
	runSink := store.NewArtifactRunSink(artifacts)
	runEngine := runbook.New(dispatcher, runSink)
	intentEngine := intent.New(capabilities, runbooks, runEngine)

	b := registry.NewBuilder()

	b.Register(registry.Descriptor{
		Name:        "echo",
		Description: "Echo back the supplied text; useful for wiring checks",
		Tags:        []string{"diagnostic"},
		InputSchema: catalog.SchemaFor(&echoRequest{}),
	}, echo.New())

	b.Register(registry.Descriptor{
		Name:        "mcp_local",
		Description: "Execute a local command with sanitised argv",
		Tags:        []string{"exec", "local"},
		LocalExec:   true,
		InputSchema: catalog.SchemaFor(&localExecRequest{}),
	}, localexec.New())
	b.Alias("local_exec", "mcp_local")

	b.Register(registry.Descriptor{
		Name:        "http_call",
		Description: "Issue an HTTP request",
		Tags:        []string{"http", "network"},
		InputSchema: catalog.SchemaFor(&httpRequest{}),
	}, httpcall.New())

	b.Register(registry.Descriptor{
		Name:        "pg_query",
		Description: "Run a parameterised query against a Postgres database",
		Tags:        []string{"database", "postgres"},
		InputSchema: catalog.SchemaFor(&pgRequest{}),
	}, pgquery.New())

	b.Register(registry.Descriptor{
		Name:        "ssh_exec",
		Description: "Run a command on a remote host over SSH",
		Tags:        []string{"exec", "remote", "ssh"},
		LocalExec:   true,
		InputSchema: catalog.SchemaFor(&sshRequest{}),
	}, sshexec.New())
	b.Alias("ssh", "ssh_exec")

	b.Register(registry.Descriptor{
		Name:        "pipeline",
		Description: "Run a sequence of local commands, piping stdout to stdin",
		Tags:        []string{"exec", "local"},
		LocalExec:   true,
		InputSchema: catalog.SchemaFor(&pipelineRequest{}),
	}, pipeline.New())

	b.Register(registry.Descriptor{
		Name:         "profile",
		Description:  "Get, set, list, or export named operator profiles",
		Tags:         []string{"profile"},
		SecretExport: true,
		InputSchema:  catalog.SchemaFor(&profileRequest{}),
	}, profilehandler.New(profiles))

	b.Register(registry.Descriptor{
		Name:        "runbook",
		Description: "Inspect and execute named runbooks",
		Tags:        []string{"runbook", "catalog"},
		InputSchema: catalog.SchemaFor(&runbookRequest{}),
	}, runbookhandler.New(runbooks, runEngine))

	b.Register(registry.Descriptor{
		Name:        "intent",
		Description: "Route an intent to its matching capability and execute it",
		Tags:        []string{"intent", "catalog"},
		InputSchema: catalog.SchemaFor(&intentRequest{}),
	}, intenthandler.New(intentEngine))

	b.Register(registry.Descriptor{
		Name:        "capability",
		Description: "Inspect the intent capability catalog",
		Tags:        []string{"intent", "catalog"},
		InputSchema: catalog.SchemaFor(&capabilityRequest{}),
	}, capabilityhandler.New(capabilities))

	b.Register(registry.Descriptor{
		Name:        "artifact",
		Description: "Retrieve or list stored artifacts",
		Tags:        []string{"artifact", "catalog"},
		InputSchema: catalog.SchemaFor(&artifactRequest{}),
	}, artifacthandler.New(artifacts))

	b.Register(registry.Descriptor{
		Name:        "audit",
		Description: "Query the audit trail",
		Tags:        []string{"audit", "catalog"},
		InputSchema: catalog.SchemaFor(&auditRequest{}),
	}, audithandler.New(auditSink))

	// catalog/help's own Descriptor must be registered before the Registry
	// it describes can be built; its handler starts unbound and is bound to
	// the real, self-inclusive Catalog right after Build, the same
	// deferred-indirection trick as dispatcher above.
	helpHandler := help.New(nil)
	b.Register(registry.Descriptor{
		Name:        "catalog",
		Description: "List, search, and describe every registered tool",
		Tags:        []string{"catalog"},
		InputSchema: catalog.SchemaFor(&catalogRequest{}),
	}, helpHandler)

	reg := b.Build()
	exec := executor.New(reg, gate, auditSink, artifacts, redactor, log)
	dispatcher.bind(exec)

	cat := catalog.New(reg)
	helpHandler.Bind(cat)
	srv, err := transport.New(version, cat, exec, log)
	if err != nil {
		return fmt.Errorf("build transport: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Infof("shutdown signal received")
	}()

	log.Infof("opsgated %s serving over stdio", version)
	return srv.ServeStdio()
}
