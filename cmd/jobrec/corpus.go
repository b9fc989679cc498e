package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagCorpusWidth int

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "List the job corpus and the encoder built from it",
	RunE:  runCorpus,
}

func init() {
	corpusCmd.Flags().IntVar(&flagCorpusWidth, "width", 60, "truncate job text to this many characters (0 disables)")
	rootCmd.AddCommand(corpusCmd)
}

func runCorpus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	idx, err := a.rec.LoadOrBuildIndex(ctx, a.provider)
	if err != nil {
		return err
	}
	enc := idx.Encoder()
	fmt.Printf("source=%s encoder=%s dimension=%d jobs=%d default_min_score=%.2f\n\n",
		a.provider.Name(), enc.Name(), enc.Dimension(), idx.Size(), enc.DefaultMinScore())
	if v, ok := enc.(interface{ Vocabulary() []string }); ok {
		terms := v.Vocabulary()
		fmt.Printf("vocabulary: %d terms, first %s\n\n", len(terms), strings.Join(terms[:min(len(terms), 10)], ", "))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTEXT")
	for _, r := range idx.Records() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Title, truncate(r.Text, flagCorpusWidth))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
