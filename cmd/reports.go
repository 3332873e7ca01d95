package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/spf13/cobra"
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List saved analysis reports",
	Args:  cobra.NoArgs,
	RunE:  runReportsList,
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the summary of a saved report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsShow,
}

var reportsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Delete a saved report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportsRm,
}

func init() {
	reportsCmd.AddCommand(reportsShowCmd)
	reportsCmd.AddCommand(reportsRmCmd)
	rootCmd.AddCommand(reportsCmd)
}

func reportsDir() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("cannot load config: %w", err)
	}
	return cfg.ReportsDir, nil
}

func runReportsList(_ *cobra.Command, _ []string) error {
	dir, err := reportsDir()
	if err != nil {
		return err
	}
	names, err := report.List(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printSkip("", fmt.Sprintf("No saved reports in %s", dir))
		return nil
	}
	printSection("Saved reports")
	for _, n := range names {
		printInfo("", n)
	}
	return nil
}

func runReportsShow(_ *cobra.Command, args []string) error {
	dir, err := reportsDir()
	if err != nil {
		return err
	}
	rep, err := report.LoadFile(filepath.Join(dir, args[0]))
	if err != nil {
		return err
	}
	printSection(args[0])
	printInfo("", fmt.Sprintf("Created:    %s", rep.CreatedAt.Format("2006-01-02 15:04:05 MST")))
	printInfo("", fmt.Sprintf("Model:      %s (catalog %s)", rep.ModelID, rep.CatalogVersion))
	printInfo("", fmt.Sprintf("Risk level: %s (overall %.2f)", rep.RiskLevel, rep.OverallRiskScore))
	printInfo("", fmt.Sprintf("Clauses:    %d", len(rep.Clauses)))
	for _, c := range catalog.Categories {
		printInfo("", fmt.Sprintf("%-8s %d", c.String()+":", rep.SummaryCounts[c]))
	}
	if rep.Unscored > 0 {
		printWarn("", fmt.Sprintf("Unscored: %d", rep.Unscored))
	}
	return nil
}

func runReportsRm(_ *cobra.Command, args []string) error {
	dir, err := reportsDir()
	if err != nil {
		return err
	}
	if err := report.Delete(dir, args[0]); err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Deleted: %s", args[0]))
	return nil
}
