package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/clauselens/clauselens/internal/analyze"
	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/clauselens/clauselens/internal/embeddings"
	"github.com/clauselens/clauselens/internal/report"
	"github.com/spf13/cobra"
)

var (
	flagAnalyzeJSON    bool
	flagAnalyzeOut     string
	flagAnalyzeSave    bool
	flagAnalyzeNoCache bool
	flagAnalyzeTopN    int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a contract text file and report its risk profile",
	Long: `Analyze reads extracted contract text (plain text; PDF extraction happens
upstream), segments it into clauses, scores every clause against the risk
pattern catalog, and prints the resulting risk profile.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagAnalyzeJSON, "json", false, "Print the full report as JSON to stdout")
	analyzeCmd.Flags().StringVar(&flagAnalyzeOut, "out", "", "Write the full report JSON to a file")
	analyzeCmd.Flags().BoolVar(&flagAnalyzeSave, "save", false, "Persist the report under the reports directory")
	analyzeCmd.Flags().BoolVar(&flagAnalyzeNoCache, "no-cache", false, "Skip the catalog embedding cache")
	analyzeCmd.Flags().IntVar(&flagAnalyzeTopN, "top", 5, "Number of highest-risk clauses to print")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read document %s: %w", args[0], err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'clauselens init' first.", err)
	}

	prov, err := buildProvider()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cmd, prov)
	if err != nil {
		return err
	}

	analyzer := analyze.New(prov, cat, analyze.OptionsFromConfig(cfg.Analysis), log)
	rep, err := analyzer.Run(cmd.Context(), string(raw))
	if err != nil {
		return err
	}

	if flagAnalyzeOut != "" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot marshal report: %w", err)
		}
		if err := os.WriteFile(flagAnalyzeOut, data, 0o644); err != nil {
			return fmt.Errorf("cannot write report %s: %w", flagAnalyzeOut, err)
		}
		printOK("", fmt.Sprintf("Report written: %s", flagAnalyzeOut))
	}
	if flagAnalyzeSave {
		path, err := report.Save(cfg.ReportsDir, rep)
		if err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Report saved: %s", path))
	}
	if flagAnalyzeJSON {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot marshal report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printReportSummary(rep)
	return nil
}

// buildProvider resolves the embedding provider from env / ~/.clauselens/.env.
func buildProvider() (embeddings.Provider, error) {
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return embeddings.NewFromConfig(embCfg)
}

// loadCatalog loads the risk pattern catalog, using the on-disk embedding
// cache keyed by model id unless --no-cache is set.
func loadCatalog(cmd *cobra.Command, prov embeddings.Provider) (*catalog.Catalog, error) {
	cacheDir := ""
	if !flagAnalyzeNoCache {
		dir, err := config.ClauselensDir()
		if err != nil {
			return nil, err
		}
		cacheDir = filepath.Join(dir, "catalog", sanitizeModelID(prov.ModelID()))
	}
	return catalog.Load(cmd.Context(), prov, catalog.LoadOptions{CacheDir: cacheDir})
}

func sanitizeModelID(id string) string {
	r := strings.NewReplacer(":", "-", "/", "-", "\\", "-", " ", "-")
	return r.Replace(id)
}

func printReportSummary(rep *report.Report) {
	printSection("Analysis")
	printInfo("", fmt.Sprintf("Risk level: %s (overall %.2f)", rep.RiskLevel, rep.OverallRiskScore))
	printInfo("", fmt.Sprintf("Clauses: %d", len(rep.Clauses)))
	for _, c := range catalog.Categories {
		printInfo("", fmt.Sprintf("%-8s %d", c.String()+":", rep.SummaryCounts[c]))
	}
	if rep.Unscored > 0 {
		printWarn("", fmt.Sprintf("Unscored clauses (provider failures): %d", rep.Unscored))
	}
	if rep.Partial {
		printWarn("", "Report is partial; some clauses could not be scored.")
	}
	if rep.Projections.Distribution.Degenerate {
		printSkip("", "3D distribution is degenerate (too few clauses); renderers should fall back to 2D.")
	}

	top := flagAnalyzeTopN
	if top <= 0 || len(rep.Scores) == 0 {
		return
	}
	idx := make([]int, len(rep.Scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		sa, sb := rep.Scores[idx[a]], rep.Scores[idx[b]]
		if sa.RawScore == sb.RawScore {
			return sa.ClauseIndex < sb.ClauseIndex
		}
		return sa.RawScore > sb.RawScore
	})
	if top > len(idx) {
		top = len(idx)
	}

	printSection("Highest-risk clauses")
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tSCORE\tCATEGORY\tTEXT")
	for _, i := range idx[:top] {
		s := rep.Scores[i]
		if s.Unknown {
			continue
		}
		text := rep.Clauses[i].Text
		if r := []rune(text); len(r) > 70 {
			text = string(r[:70]) + "…"
		}
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Fprintf(w, "  %d\t%.2f\t%s\t%s\n", s.ClauseIndex, s.RawScore, s.Category, text)
	}
	_ = w.Flush()
}
