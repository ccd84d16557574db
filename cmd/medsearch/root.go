package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/config"
	logpkg "github.com/kailas-cloud/medsearch/internal/logger"
	"github.com/kailas-cloud/medsearch/internal/version"
)

func newRootCmd() *cobra.Command {
	a := &app{}
	var configPath string

	root := &cobra.Command{
		Use:   "medsearch",
		Short: "Semantic search and grounded answers over a medical document collection",
		Long: `medsearch serves semantic retrieval over a fixed medical collection:
query embedding, exact inner-product search, optional cross-encoder reranking
and optional grounded answer generation.

Example usage:
  medsearch serve                              # HTTP API on http.port
  medsearch query "what causes glaucoma" --rag # one-off query
  medsearch doc 0000123-1                      # print a document
  medsearch check                              # validate artifacts
  medsearch eval --queries q.csv --qrels r.csv # Recall@K / MRR@K`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			var err error
			if configPath != "" {
				a.cfg, err = config.LoadFile(configPath)
			} else {
				a.cfg, err = config.Load(a.env)
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.logger, err = logpkg.New(a.env, logpkg.Options{Level: a.cfg.Logging.Level, Format: a.cfg.Logging.Format})
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			a.logger.Debug("config loaded",
				zap.String("env", a.env),
				zap.String("command", cmd.Name()),
			)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.env, "env", config.GetEnv(), "environment (selects config/<env>.yaml)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "explicit config file (overrides --env lookup)")

	root.AddCommand(
		newServeCmd(a),
		newQueryCmd(a),
		newDocCmd(a),
		newCheckCmd(a),
		newEvalCmd(a),
	)
	return root
}
