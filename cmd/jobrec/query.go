package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobrec/internal/service"
	"jobrec/internal/transport/rest"
)

var (
	flagQuerySkills   []string
	flagQueryLimit    int
	flagQueryMinScore float64
	flagQueryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [skills...]",
	Short: "Print recommendations for the given skills",
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringSliceVar(&flagQuerySkills, "skills", nil, "comma-separated skills")
	queryCmd.Flags().IntVarP(&flagQueryLimit, "num", "n", 0, "number of recommendations (default from config)")
	queryCmd.Flags().Float64Var(&flagQueryMinScore, "min-score", 0, "minimum similarity (default from encoder)")
	queryCmd.Flags().BoolVar(&flagQueryJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	skills := append(append([]string(nil), flagQuerySkills...), args...)
	if len(skills) == 0 {
		return cmd.Help()
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.rec.LoadOrBuildIndex(ctx, a.provider); err != nil {
		return err
	}

	opts := a.queryOptions()
	if flagQueryLimit != 0 {
		opts = append(opts, service.WithMaxResults(flagQueryLimit))
	}
	if cmd.Flags().Changed("min-score") {
		opts = append(opts, service.WithMinScore(flagQueryMinScore))
	}

	results, err := a.rec.Recommend(ctx, skills, opts...)
	if err != nil {
		return err
	}

	query := strings.Join(skills, " ")
	if flagQueryJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rest.NewRecommendResponse(results, a.snippets, query))
	}
	if len(results) == 0 {
		fmt.Println("No jobs above the similarity threshold.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSCORE\tDETAILS")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%s\n", r.ID, r.Title, r.Score, a.snippets.Extract(r.DisplayText, query))
	}
	return w.Flush()
}
