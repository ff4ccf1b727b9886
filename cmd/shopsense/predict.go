package main

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/predict"
)

// newPredictCmd creates the 'predict' command group.
func newPredictCmd() *cobra.Command {
	var file, id string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run price, demand, bestseller or rank prediction for one product",
		Long: `Predicts for the product read from --file (first entry, or the one matching --id)
or looked up by --id in the trained catalog. A missing model never fails the
call: the result falls back to the heuristic and says so in model_used.`,
	}
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "", "JSON file with a product (object or array)")
	cmd.PersistentFlags().StringVar(&id, "id", "", "Product id")

	run := func(fn func(cmd *cobra.Command, a *app, p core.Product) interface{}) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				p, err := a.product(file, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), fn(cmd, a, p))
			})
		}
	}

	var days int
	demand := &cobra.Command{
		Use:   "demand",
		Short: "Predict demand over a horizon with stock urgency",
		RunE: run(func(cmd *cobra.Command, a *app, p core.Product) interface{} {
			return a.predictor.PredictDemand(cmd.Context(), p, days)
		}),
	}
	demand.Flags().IntVarP(&days, "days", "d", predict.DefaultDemandDays, "Forecast horizon in days")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "price",
			Short: "Predict the price with a confidence range",
			RunE: run(func(cmd *cobra.Command, a *app, p core.Product) interface{} {
				return a.predictor.PredictPrice(cmd.Context(), p)
			}),
		},
		demand,
		&cobra.Command{
			Use:   "bestseller",
			Short: "Predict the bestseller probability",
			RunE: run(func(cmd *cobra.Command, a *app, p core.Product) interface{} {
				return a.predictor.PredictBestseller(cmd.Context(), p)
			}),
		},
		&cobra.Command{
			Use:   "rank",
			Short: "Predict the sales rank",
			RunE: run(func(cmd *cobra.Command, a *app, p core.Product) interface{} {
				return a.predictor.PredictRank(cmd.Context(), p)
			}),
		},
		&cobra.Command{
			Use:   "analyze",
			Short: "Run every predictor plus similar products",
			RunE: run(func(cmd *cobra.Command, a *app, p core.Product) interface{} {
				return a.predictor.Analyze(cmd.Context(), p)
			}),
		},
	)
	return cmd
}
