package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/IshaanNene/PostPulse/internal/aggregate"
	"github.com/IshaanNene/PostPulse/internal/storage"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// topCmd creates the "top" subcommand, which ranks list values in a saved run.
func topCmd() *cobra.Command {
	var (
		field string
		n     int
	)

	cmd := &cobra.Command{
		Use:   "top <file>",
		Short: "Rank reactors or hashtags in saved results",
		Long:  "Read a CSV, JSON or JSONL file written by analyze and print the most frequent values of a list field.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := types.ParseField(field)
			if err != nil {
				return err
			}
			posts, err := storage.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}
			counts, err := aggregate.Top(posts, f, n)
			if err != nil {
				return err
			}
			fmt.Printf("%d posts in %s\n", len(posts), args[0])
			renderTop(f, counts)
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", "reactors", "list field to rank: reactors or hashtags")
	cmd.Flags().IntVar(&n, "n", aggregate.DefaultTopN, "number of entries")

	return cmd
}

func renderTop(f types.Field, counts []aggregate.Count) {
	t := newTable()
	t.SetTitle("Top " + f.String())
	t.AppendHeader(table.Row{"#", "Value", "Count"})
	for i, c := range counts {
		t.AppendRow(table.Row{i + 1, c.Value, c.Count})
	}
	if len(counts) == 0 {
		t.AppendRow(table.Row{"", "(none)", ""})
	}
	t.Render()
}
