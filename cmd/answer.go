package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/neuroquiz/internal/orchestrator"
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Submit one answer event and print the next step as JSON",
	Example: `  neuroquiz answer --payload '{"user_id":1,"question_id":"BIO_001","topic":"Cell Biology","is_correct":false}'
  echo '{"topic":"Genetics","is_correct":true}' | neuroquiz answer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readPayload(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := bootstrap(ctx, cmd, bootstrapOptions{withLLM: true})
		if err != nil {
			return err
		}
		defer a.Close()

		ev, err := orchestrator.ParsePayload(raw, a.log)
		if err != nil {
			return fmt.Errorf("invalid payload: %w", err)
		}

		res := a.orch.HandleAnswer(ctx, ev)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// readPayload takes --payload, falling back to stdin.
func readPayload(cmd *cobra.Command) ([]byte, error) {
	if p, _ := cmd.Flags().GetString("payload"); p != "" {
		return []byte(p), nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read payload from stdin: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no payload: pass --payload or pipe JSON on stdin")
	}
	return raw, nil
}

func init() {
	answerCmd.Flags().StringP("payload", "p", "", "Answer event JSON")
}
