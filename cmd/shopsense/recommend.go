package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/shopsense/core"
	"github.com/rushteam/shopsense/recommend"
)

// newRecommendCmd creates the 'recommend' command group.
func newRecommendCmd() *cobra.Command {
	var productsFile string
	var limit int
	cmd := &cobra.Command{
		Use:     "recommend",
		Aliases: []string{"rec"},
		Short:   "Catalog recommendations",
		Long: `Builds the catalog index from --products (or the catalog saved by the last
training run) and answers one recommendation query.`,
	}
	cmd.PersistentFlags().StringVarP(&productsFile, "products", "p", "", "JSON file with the product catalog")
	cmd.PersistentFlags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (0 uses the query default)")

	query := func(fn func(cmd *cobra.Command, e *recommend.Engine) (interface{}, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				e, err := a.engine(productsFile)
				if err != nil {
					return err
				}
				out, err := fn(cmd, e)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		}
	}
	byID := func(use, short string, fn func(e *recommend.Engine, id string) (interface{}, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <product-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return query(func(_ *cobra.Command, e *recommend.Engine) (interface{}, error) {
					return fn(e, args[0])
				})(cmd, args)
			},
		}
	}

	var allCategories bool
	similar := byID("similar", "Similar products", func(e *recommend.Engine, id string) (interface{}, error) {
		var opts []recommend.SimilarOption
		if allCategories {
			opts = append(opts, recommend.AllCategories())
		}
		return e.Similar(id, limit, opts...)
	})
	similar.Flags().BoolVar(&allCategories, "all-categories", false, "Search the whole catalog instead of the same category")

	var sortBy string
	category := &cobra.Command{
		Use:   "category <name>",
		Short: "Top products of one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return query(func(_ *cobra.Command, e *recommend.Engine) (interface{}, error) {
				return e.Category(args[0], limit, recommend.SortBy(sortBy)), nil
			})(cmd, args)
		},
	}
	category.Flags().StringVar(&sortBy, "sort", string(recommend.SortByRating), "Sort by rating, price or rank")

	cmd.AddCommand(
		similar,
		byID("upsell", "Premium alternatives in the same category", func(e *recommend.Engine, id string) (interface{}, error) {
			return e.Upsell(id, limit)
		}),
		byID("crosssell", "Products from complementary categories", func(e *recommend.Engine, id string) (interface{}, error) {
			return e.Crosssell(id, limit)
		}),
		byID("all", "Similar, up-sell, cross-sell and category top list", func(e *recommend.Engine, id string) (interface{}, error) {
			return e.Comprehensive(id)
		}),
		&cobra.Command{
			Use:   "trending",
			Short: "Trending products across the catalog",
			RunE: query(func(_ *cobra.Command, e *recommend.Engine) (interface{}, error) {
				return e.Trending(limit), nil
			}),
		},
		&cobra.Command{
			Use:   "deals",
			Short: "Well-rated products priced below their category median",
			RunE: query(func(_ *cobra.Command, e *recommend.Engine) (interface{}, error) {
				return e.Deals(limit), nil
			}),
		},
		category,
		newPublishCmd(&productsFile, &limit),
		newHotCmd(&limit),
	)
	return cmd
}

// newPublishCmd writes the trending list to the configured sorted-set store.
func newPublishCmd(productsFile *string, limit *int) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish trending scores to the storage sorted set",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				kv, err := sortedSet(a.store)
				if err != nil {
					return err
				}
				e, err := a.engine(*productsFile)
				if err != nil {
					return err
				}
				n := *limit
				if n <= 0 {
					n = a.cfg.Recommend.TrendingTop
				}
				written, err := e.PublishTrending(cmd.Context(), kv, a.cfg.Recommend.TrendingKey, n)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"key":       a.cfg.Recommend.TrendingKey,
					"published": written,
				})
			})
		},
	}
}

// newHotCmd reads the published trending list back.
func newHotCmd(limit *int) *cobra.Command {
	return &cobra.Command{
		Use:   "hot",
		Short: "Read the published trending list",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				kv, err := sortedSet(a.store)
				if err != nil {
					return err
				}
				ids, err := recommend.HotProducts(cmd.Context(), kv, a.cfg.Recommend.TrendingKey, *limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ids)
			})
		},
	}
}

func sortedSet(s core.Store) (core.KeyValueStore, error) {
	kv, ok := s.(core.KeyValueStore)
	if !ok {
		return nil, fmt.Errorf("storage backend %q has no sorted sets; use redis or memory", s.Name())
	}
	return kv, nil
}
