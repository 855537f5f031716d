package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/claimaudit/internal/audit"
	"github.com/gyeh/claimaudit/internal/exitcode"
	"github.com/gyeh/claimaudit/internal/export"
	"github.com/gyeh/claimaudit/internal/logging"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/provider"
	"github.com/gyeh/claimaudit/internal/rules"
)

var auditFlags struct {
	BillPath   string
	PolicyPath string
	AuditID    string
	JSON       bool
	ExportPath string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit a structured bill against a structured policy",
	Long:  "Runs the claim rules and reconciliation on bill and policy JSON documents and prints the findings.",
	RunE:  runAudit,
}

func init() {
	f := auditCmd.Flags()
	f.StringVar(&auditFlags.BillPath, "bill", "", "Path to bill JSON (required)")
	f.StringVar(&auditFlags.PolicyPath, "policy", "", "Path to policy JSON (required)")
	f.StringVar(&auditFlags.AuditID, "id", "AUD-LOCAL", "Audit id recorded in the result")
	f.BoolVar(&auditFlags.JSON, "json", false, "Print the full result as JSON")
	f.StringVar(&auditFlags.ExportPath, "export", "", "Write the flags to this Parquet file")
	_ = auditCmd.MarkFlagRequired("bill")
	_ = auditCmd.MarkFlagRequired("policy")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	structurer, err := provider.NewJSONStructurer()
	if err != nil {
		log.Error().Err(err).Msg("structurer setup failed")
		os.Exit(exitcode.AuditFailed)
	}

	billText, err := os.ReadFile(auditFlags.BillPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read bill")
		os.Exit(exitcode.UsageError)
	}
	policyText, err := os.ReadFile(auditFlags.PolicyPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to read policy")
		os.Exit(exitcode.UsageError)
	}

	bill, err := structurer.StructureBill(ctx, string(billText))
	if err != nil || bill == nil {
		log.Error().Err(err).Str("file", auditFlags.BillPath).Msg("bill is not a valid bill document")
		os.Exit(exitcode.ValidationError)
	}
	policy, err := structurer.StructurePolicy(ctx, string(policyText))
	if err != nil || policy == nil {
		log.Error().Err(err).Str("file", auditFlags.PolicyPath).Msg("policy is not a valid policy document")
		os.Exit(exitcode.ValidationError)
	}

	matchers, err := cfg.Matchers()
	if err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	engine := rules.NewEngine(rules.Options{Matchers: matchers})
	result := audit.Evaluate(engine, auditFlags.AuditID, bill, policy, time.Now().UTC())

	if auditFlags.ExportPath != "" {
		n, err := export.WriteFlagsFile(auditFlags.ExportPath, result)
		if err != nil {
			log.Error().Err(err).Msg("flag export failed")
			os.Exit(exitcode.ExportError)
		}
		log.Info().Int("rows", n).Str("file", auditFlags.ExportPath).Msg("flags exported")
	}

	if auditFlags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println("=== claimaudit ===")
	fmt.Printf("Audit:          %s\n", result.AuditID)
	fmt.Printf("Bill:           %s (%s)\n", result.Bill.ID, result.Bill.HospitalName)
	fmt.Printf("Policy:         %s (%s)\n", result.Policy.ID, result.Policy.InsurerName)
	fmt.Printf("Total billed:   ₹%s\n", normalize.FormatAmount(result.TotalBilled))
	fmt.Printf("Under review:   ₹%s\n", normalize.FormatAmount(result.AmountUnderReview))
	fmt.Printf("Fully covered:  ₹%s\n", normalize.FormatAmount(result.FullyCoveredAmount))
	fmt.Println()
	if len(result.Flags) == 0 {
		fmt.Println("No findings.")
		return nil
	}
	fmt.Printf("Findings (%d):\n", len(result.Flags))
	for i, f := range result.Flags {
		amount := "-"
		if f.AmountAffected != nil {
			amount = "₹" + normalize.FormatAmount(*f.AmountAffected)
		}
		item := f.LineItemID
		if item == "" {
			item = "claim"
		}
		fmt.Printf("  %2d. [%-7s] %-14s %-16s %12s  %s\n", i+1, f.Severity, f.FlagType, item, amount, f.Reason)
	}
	return nil
}
