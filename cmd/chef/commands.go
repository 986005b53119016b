package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"lifecode-recipe/internal/app"
	"lifecode-recipe/internal/core/matching"
	"lifecode-recipe/internal/core/recipe"
	"lifecode-recipe/internal/core/session"
	"lifecode-recipe/internal/infrastructure/store"
	"lifecode-recipe/internal/pkg/common"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <dish name>",
	Short: "Look up a recipe, generating and storing it on first request",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.New(cfg, appOptions...)
		if err != nil {
			return err
		}
		defer a.Close()

		sess := session.New("")
		if apiKey != "" {
			sess.SetAPIKey(apiKey)
		}

		res, err := a.Recipes.Lookup(cmd.Context(), sess, strings.Join(args, " "))
		if err != nil && (res == nil || !errors.Is(err, common.ErrStoreWriteFailed)) {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if perr := printJSON(out, res); perr != nil {
				return perr
			}
		} else {
			fmt.Fprint(out, res.Markdown)
		}
		if err != nil {
			printWarning(cmd.ErrOrStderr(), "recipe was not saved: %v", err)
		}
		return nil
	},
}

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List approved grocery SKUs and their prices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := app.LoadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}

		entries := cat.Search(query)
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, entries)
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tPRICE (₹)")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%.2f\n", e.Name, e.Price)
		}
		return tw.Flush()
	},
}

// --- match ---

var matchCmd = &cobra.Command{
	Use:   "match <ingredient line>...",
	Short: "Match ingredient lines against the catalog and estimate per-person cost",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := app.LoadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}

		res := app.NewEstimator(cat, cfg.Catalog).MatchAndCost(args)
		res.Total = matching.Round2(res.Total)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, res)
		}
		printGroceries(out, res)
		return nil
	},
}

// --- parse ---

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Parse a saved LLM response and print the resulting record",
	Long: `Parse a saved LLM response (or stdin with "-") into a recipe record,
matching and costing its ingredients without calling the LLM or writing to the store.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		raw, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := app.LoadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		svc := recipe.NewService(store.NewMemoryStore(), nil, cat,
			recipe.WithEstimator(app.NewEstimator(cat, cfg.Catalog)),
		)

		if strings.TrimSpace(name) == "" {
			name = recipe.Parse(raw, "").Title
		}
		rec := svc.Build(name, svc.Key(name), raw)
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, rec)
		}
		fmt.Fprint(out, recipe.RenderMarkdown(rec, true))
		return nil
	},
}

func init() {
	askCmd.Flags().String("api-key", "", "LLM API key for this lookup (overrides the configured key)")
	catalogCmd.Flags().String("query", "", "only list SKUs whose name contains this text")
	parseCmd.Flags().String("name", "", "dish name the response was generated for")
}

func readInput(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}

func printGroceries(w io.Writer, res matching.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSKU\tSCORE\tCOST (₹)")
	for _, g := range res.Matched {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", g.Line, g.SKU, g.Score, g.Cost)
	}
	for _, g := range res.Unmatched {
		fmt.Fprintf(tw, "%s\t-\t%.2f\t-\n", g.Line, g.Score)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nTotal per person: %s\n", recipe.FormatCost(res.Total))
}
