package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"jobrec/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Explore recommendations interactively",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
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
	summary := fmt.Sprintf("%s encoder, %d jobs from %s", idx.Encoder().Name(), idx.Size(), a.provider.Name())

	m := tui.New(a.rec, summary, a.queryOptions()...)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
