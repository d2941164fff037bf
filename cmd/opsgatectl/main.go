// Package main provides opsgatectl, an out-of-band admin CLI for
// inspecting a gateway's on-disk state (profiles, runbooks, capabilities,
// audit trail) without going through the MCP stdio surface. Grounded on
// ormasoftchile-gert/cmd/gert-kernel/main.go's cobra command-tree shape.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsgate/opsgate/internal/audit"
	"github.com/opsgate/opsgate/internal/config"
	"github.com/opsgate/opsgate/internal/store"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "opsgatectl",
	Short: "Inspect an opsgate gateway's on-disk state",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("opsgatectl", version)
	},
}

var profileListCmd = &cobra.Command{
	Use:   "profile-list",
	Short: "List stored profile names",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		profiles, err := store.NewProfileStore(cfg.ProfilesSubdir())
		if err != nil {
			return err
		}
		names, err := profiles.List()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "profile-show [name]",
	Short: "Print a profile's fields as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		profiles, err := store.NewProfileStore(cfg.ProfilesSubdir())
		if err != nil {
			return err
		}
		fields, ok, err := profiles.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no such profile: %s", args[0])
		}
		return printJSON(fields)
	},
}

var runbookListCmd = &cobra.Command{
	Use:   "runbook-list",
	Short: "List runbooks from the configured runbook catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		cat, err := store.LoadRunbookCatalog(cfg.RunbooksPath)
		if err != nil {
			return err
		}
		for _, rb := range cat.List() {
			fmt.Printf("%-24s %-40s %d step(s)\n", rb.Name, rb.Description, len(rb.Steps))
		}
		return nil
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "audit-tail",
	Short: "Print every audit record from the configured audit sink",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromEnv()
		if err != nil {
			return err
		}
		sink, err := audit.New(cfg.AuditDir())
		if err != nil {
			return err
		}
		records, err := sink.List()
		if err != nil {
			return err
		}
		for _, r := range records {
			status := "ok"
			if !r.Success {
				status = "fail"
			}
			fmt.Printf("%s %-6s %-16s %-10s %s\n", r.Timestamp.Format("2006-01-02T15:04:05Z"), status, r.Tool, r.Action, r.TraceID)
		}
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(versionCmd, profileListCmd, profileShowCmd, runbookListCmd, auditTailCmd)
}
