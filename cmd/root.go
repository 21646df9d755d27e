package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/neuroquiz/internal/config"
	"github.com/abhisek/neuroquiz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "neuroquiz",
	Short:        "Adaptive quiz tutor",
	Long:         "NeuroQuiz tracks per-topic mastery, picks the next question and explains wrong answers from similar questions.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides NEUROQUIZ_DB env var)")
	rootCmd.PersistentFlags().String("corpus", "", "Path to the question bank JSON (overrides NEUROQUIZ_CORPUS env var)")
	rootCmd.PersistentFlags().String("env-file", "", "Dotenv file to load before reading the environment (default .env)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}
	if p, _ := cmd.Flags().GetString("corpus"); p != "" {
		cfg.CorpusPath = p
	}
	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return cfg, err
	}
	cfg.DBPath = dbPath
	return cfg, cfg.Validate()
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then NEUROQUIZ_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}
