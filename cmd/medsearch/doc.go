package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/medsearch/internal/repository/docstore"
)

func newDocCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doc <doc_id>",
		Short: "Print a document from the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := docstore.LoadCSV(a.cfg.Artifacts.DocsPath)
			if err != nil {
				return err
			}
			d, err := docs.Get(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "doc_id: %s\n", d.ID())
			if src, ok := d.Source(); ok {
				fmt.Fprintf(w, "source: %s\n", src)
			}
			if topic, ok := d.Topic(); ok {
				fmt.Fprintf(w, "topic:  %s\n", topic)
			}
			fmt.Fprintf(w, "\n%s\n", d.Text())
			return nil
		},
	}
}
