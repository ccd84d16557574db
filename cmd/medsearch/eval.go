package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/usecase/evaluation"
)

func newEvalCmd(a *app) *cobra.Command {
	var (
		queriesPath string
		qrelsPath   string
		k           int
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure Recall@K and MRR@K against relevance judgments (no reranking)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			queries, err := evaluation.LoadQueries(queriesPath)
			if err != nil {
				return err
			}
			qrels, err := evaluation.LoadQrels(qrelsPath)
			if err != nil {
				return err
			}

			holder, err := a.loadEngine(cmd.Context())
			if err != nil {
				return err
			}
			eng, err := holder.Get()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(queries),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Evaluating[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)

			rep, err := evaluation.Evaluate(cmd.Context(), eng.Search(), queries, qrels, k, func() {
				_ = bar.Add(1)
			})
			if err != nil {
				return err
			}

			a.logger.Info("evaluation finished",
				zap.Int("evaluated", rep.Evaluated),
				zap.Int("skipped", rep.Skipped),
			)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "queries evaluated: %d (skipped %d without judgments)\n", rep.Evaluated, rep.Skipped)
			fmt.Fprintf(w, "recall@%d: %.4f\n", rep.K, rep.Recall)
			fmt.Fprintf(w, "mrr@%d:    %.4f\n", rep.K, rep.MRR)
			return nil
		},
	}
	cmd.Flags().StringVar(&queriesPath, "queries", "data/processed/queries.csv", "CSV with query_id,query")
	cmd.Flags().StringVar(&qrelsPath, "qrels", "data/processed/qrels.csv", "CSV with query_id,doc_id")
	cmd.Flags().IntVar(&k, "k", 10, "cutoff K")
	return cmd
}
