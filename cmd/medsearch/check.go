package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/medsearch/internal/config"
	"github.com/kailas-cloud/medsearch/internal/usecase/engine"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate that the offline artifacts exist, load and line up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			paths := []string{a.cfg.Artifacts.DocsPath}
			if a.cfg.Index.Driver == config.IndexDriverFlat {
				paths = append(paths, a.cfg.Artifacts.EmbeddingsPath)
			}
			for _, p := range paths {
				info, err := os.Stat(p)
				if err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", p, err)
					return fmt.Errorf("missing artifact %s", p)
				}
				fmt.Fprintf(w, "ok   %s (%d bytes)\n", p, info.Size())
			}

			docs, idx, err := a.openArtifacts(cmd.Context())
			if err != nil {
				fmt.Fprintf(w, "FAIL load: %v\n", err)
				return err
			}
			if err := engine.Validate(docs, idx, a.cfg.Embedding.Dimensions); err != nil {
				fmt.Fprintf(w, "FAIL alignment: %v\n", err)
				return err
			}
			fmt.Fprintf(w, "ok   %d documents, %d vectors of dimension %d (%s index)\n",
				docs.Len(), idx.Len(), idx.Dim(), a.cfg.Index.Driver)
			return nil
		},
	}
}
