package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shopsense",
		Short: "Product price, demand, bestseller and rank prediction with catalog recommendations",
		Long: `shopsense trains tree-ensemble and linear models from a product catalog,
persists them as artifacts (file, badger, redis or memory storage) and serves
predictions with heuristic fallbacks when a model is missing.

Configuration is read from defaults, an optional YAML file (--config or
SHOPSENSE_CONFIG) and SHOPSENSE_* environment variables.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	root.AddCommand(newTrainCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newReloadCmd())
	root.AddCommand(newPredictCmd())
	root.AddCommand(newRecommendCmd())
	return root
}

// newTrainCmd creates the 'train' command.
func newTrainCmd() *cobra.Command {
	var productsFile string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train every model from a product catalog",
		Long: `Trains the price, demand, bestseller and rank models plus the preprocessing,
similarity index and catalog artifacts, persists them, then reloads the store.
A model with too little data is reported and skipped; the others still train.`,
		Example: `  shopsense train --products catalog.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				products, err := readProducts(productsFile)
				if err != nil {
					return err
				}
				results := a.trainer().TrainAll(cmd.Context(), products)
				a.models.Reload(cmd.Context())
				return printJSON(cmd.OutOrStdout(), results)
			})
		},
	}
	cmd.Flags().StringVarP(&productsFile, "products", "p", "", "JSON file with the product catalog")
	_ = cmd.MarkFlagRequired("products")
	return cmd
}

// newStatusCmd creates the 'status' command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the model store status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				return printJSON(cmd.OutOrStdout(), a.models.Status())
			})
		},
	}
}

// newReloadCmd creates the 'reload' command.
func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload model artifacts from storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				a.models.Reload(cmd.Context())
				return printJSON(cmd.OutOrStdout(), a.models.Status())
			})
		},
	}
}
