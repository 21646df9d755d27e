package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/neuroquiz/internal/explain"
)

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Show the questions nearest to a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, _ := cmd.Flags().GetInt("k")

		ctx := cmd.Context()
		a, err := bootstrap(ctx, cmd, bootstrapOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		hits, err := a.index.Search(ctx, strings.Join(args, " "), k)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(hits) == 0 {
			fmt.Fprintln(out, "No questions indexed.")
			return nil
		}

		fmt.Fprintf(out, "%-4s  %-9s  %-12s  %-20s  %s\n", "Rank", "Distance", "ID", "Topic", "Question")
		fmt.Fprintln(out, strings.Repeat("─", 100))
		for i, h := range hits {
			fmt.Fprintf(out, "%-4d  %-9.4f  %-12s  %-20s  %s\n",
				i+1, h.Distance, truncate(h.Question.ID, 12), truncate(h.Question.Topic, 20), truncate(h.Question.Text, 50))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntP("k", "k", explain.DefaultK, "Number of neighbours")
}
