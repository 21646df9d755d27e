package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/neuroquiz/internal/mastery"
)

var stateCmd = &cobra.Command{
	Use:   "state <user-id>",
	Short: "Show a learner's topic mastery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}

		ctx := cmd.Context()
		a, err := bootstrap(ctx, cmd, bootstrapOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.mastery.State(ctx, userID)
		if errors.Is(err, mastery.ErrNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No learner state recorded for user %d.\n", userID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		printState(cmd.OutOrStdout(), st)
		return nil
	},
}

// printState renders topics weakest first, each with its mastery level.
func printState(out io.Writer, st *mastery.LearnerState) {
	fmt.Fprintf(out, "User:         %d\n", st.UserID)
	if !st.LastUpdated.IsZero() {
		fmt.Fprintf(out, "Updated:      %s\n", st.LastUpdated.Local().Format(timeLayout))
	}
	fmt.Fprintf(out, "Confidence:   %.2f\n", st.ConfidenceAvg)
	if len(st.ErrorPattern) > 0 {
		fmt.Fprintf(out, "Errors:       %s\n", strings.Join(st.ErrorPattern, ", "))
	}
	fmt.Fprintln(out)

	topics := make([]string, 0, len(st.TopicMastery))
	for t := range st.TopicMastery {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool {
		si, sj := st.TopicMastery[topics[i]], st.TopicMastery[topics[j]]
		if si != sj {
			return si < sj
		}
		return topics[i] < topics[j]
	})

	rule := strings.Repeat("─", 52)
	fmt.Fprintf(out, "%-30s  %6s  %s\n", "Topic", "Score", "Level")
	fmt.Fprintln(out, rule)
	for _, t := range topics {
		score := st.TopicMastery[t]
		fmt.Fprintf(out, "%-30s  %6.2f  %s\n", truncate(t, 30), score, mastery.ResolveLevel(score))
	}
}
