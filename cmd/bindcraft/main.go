package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	protocolPath string
	rootCmd      = &cobra.Command{
		Use:   "bindcraft",
		Short: "BindCraft - De novo protein binder design pipeline",
		Long: `BindCraft designs de novo protein binders against a target structure.
It samples binder trajectories with random seeds and lengths, runs the
hallucination predictor on each, and keeps going until enough designs
pass the acceptance filters.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&protocolPath, "protocol", "", "protocol settings file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
