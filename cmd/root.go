package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:          "clauselens",
	Short:        "ClauseLens: contract risk analysis from the command line",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `ClauseLens segments a contract into clauses, scores each clause against a
catalog of known risk language via semantic similarity, and projects the
scores into renderable risk views (distribution, matrix, mesh).`,
}

var flagDebug bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
}

// newLogger builds the process logger. Quiet by default; --debug switches to
// a development logger on stderr.
func newLogger() *zap.Logger {
	if !flagDebug {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
