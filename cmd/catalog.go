package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/clauselens/clauselens/internal/catalog"
	"github.com/clauselens/clauselens/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagCatalogIndex bool
	flagCatalogForce bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the risk pattern catalog or build its embedding cache",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&flagCatalogIndex, "index", false, "Embed the catalog now and cache the vectors (~/.clauselens/catalog)")
	catalogCmd.Flags().BoolVar(&flagCatalogForce, "force", false, "Discard any existing cache before embedding")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	if flagCatalogIndex {
		return runCatalogIndex(cmd)
	}
	return runCatalogList()
}

// runCatalogList prints the pattern set without touching the provider, so it
// works before credentials are configured.
func runCatalogList() error {
	cat, err := catalog.Parse()
	if err != nil {
		return err
	}
	printSection(fmt.Sprintf("Risk pattern catalog (version %s)", cat.Version))
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tCATEGORY\tDESCRIPTION")
	for i, p := range cat.Patterns {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", i, p.Category, p.Description)
	}
	return w.Flush()
}

func runCatalogIndex(cmd *cobra.Command) error {
	prov, err := buildProvider()
	if err != nil {
		return err
	}
	dir, err := config.ClauselensDir()
	if err != nil {
		return err
	}
	cacheDir := filepath.Join(dir, "catalog", sanitizeModelID(prov.ModelID()))

	if flagCatalogForce {
		if err := os.RemoveAll(cacheDir); err != nil {
			return fmt.Errorf("cannot clear cache %s: %w", cacheDir, err)
		}
		printInfo("", fmt.Sprintf("Cache cleared: %s", cacheDir))
	}

	cat, err := catalog.Load(cmd.Context(), prov, catalog.LoadOptions{CacheDir: cacheDir})
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Catalog embedded: %d patterns, dim %d, model %s", len(cat.Patterns), cat.Dim, cat.ModelID))
	printOK("", fmt.Sprintf("Cache written: %s", cacheDir))
	return nil
}
