package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	queryuc "github.com/kailas-cloud/medsearch/internal/usecase/query"
)

type queryFlags struct {
	topK     int
	noRerank bool
	hybrid   bool
	rag      bool
}

func newQueryCmd(a *app) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run one query against the local artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			holder, err := a.loadEngine(ctx)
			if err != nil {
				return err
			}
			var gen queryuc.Generator
			if f.rag {
				g, err := a.buildGenerator()
				if err != nil {
					return err
				}
				gen = g
			}
			svc := queryuc.New(holder, gen, nil, queryuc.Options{
				MaxDocs:     a.cfg.Generation.MaxDocs,
				SummaryDocs: a.cfg.Generation.SummaryDocs,
			})

			resp, err := svc.Query(ctx, queryuc.Request{
				Query:        strings.Join(args, " "),
				TopK:         f.topK,
				UseReranking: !f.noRerank && *a.cfg.Search.UseReranking,
				Hybrid:       f.hybrid,
				UseRAG:       f.rag,
			})
			if err != nil {
				return err
			}
			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 10, "number of results")
	cmd.Flags().BoolVar(&f.noRerank, "no-rerank", false, "skip cross-encoder reranking")
	cmd.Flags().BoolVar(&f.hybrid, "hybrid", false, "request hybrid retrieval")
	cmd.Flags().BoolVar(&f.rag, "rag", false, "generate a grounded answer and summary")
	return cmd
}

func printResponse(w io.Writer, resp queryuc.Response) {
	fmt.Fprintf(w, "%d results for %q in %s (top_k=%d, reranked=%t)\n\n",
		len(resp.Results), resp.Query, resp.Latency, resp.TopK, resp.Reranked)
	for i := range resp.Results {
		c := &resp.Results[i]
		src, ok := c.Source()
		if !ok {
			src = "-"
		}
		line := fmt.Sprintf("%2d. [%s] score=%.4f", c.Rank(), c.DocID(), c.Score())
		if rs, ok := c.RerankScore(); ok {
			line += fmt.Sprintf(" rerank=%.4f", rs)
		}
		fmt.Fprintf(w, "%s source=%s\n    %s\n", line, src, excerpt(c.Text(), 160))
	}
	if resp.Answer != nil {
		fmt.Fprintf(w, "\nAnswer:\n%s\n", resp.Answer.Text)
		if resp.Answer.Failure != nil {
			fmt.Fprintf(w, "(degraded: %s)\n", resp.Answer.Failure.Reason)
		}
	}
	if resp.Summary != nil {
		fmt.Fprintf(w, "\nSummary:\n%s\n", resp.Summary.Text)
	}
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
