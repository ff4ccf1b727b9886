/*
Package main is the entry point for the shopsense CLI.

shopsense trains the product models from a JSON catalog, inspects and reloads
the model store, runs predictions and serves catalog recommendations.

Usage:

	shopsense [command]

Available Commands:

	train       Train every model from a product catalog
	status      Show the model store status
	reload      Reload model artifacts from storage
	predict     Run price, demand, bestseller, rank or full analysis
	recommend   Similar, up-sell, cross-sell, trending, deals and category lists

Examples:

	shopsense train --products catalog.json
	shopsense predict demand --id B0001 --days 14
	shopsense recommend upsell --products catalog.json --id B0001
*/
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
