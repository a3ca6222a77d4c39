package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/spf13/cobra"
)

func merchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Inspect what kakeibo has learned about merchants",
	}

	cmd.AddCommand(merchantsListCmd())

	return cmd
}

func merchantsListCmd() *cobra.Command {
	var events int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned merchants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.ListLearningRecords(ctx, a.userID)
			if err != nil {
				return fmt.Errorf("failed to list learning records: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("Nothing learned yet. Teach kakeibo with: kakeibo correct"))
				return nil
			}

			sort.SliceStable(records, func(i, j int) bool {
				return records[i].LastCorrectedAt.After(records[j].LastCorrectedAt)
			})
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.MerchantName,
					string(r.CategoryID),
					strconv.Itoa(r.CorrectionCount),
					fmt.Sprintf("%.0f%%", r.Confidence()*100),
					r.LastCorrectedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"Merchant", "Category", "Corrections", "Confidence", "Last corrected"}, rows))

			if events <= 0 {
				return nil
			}
			history, err := a.store.ListCorrectionEvents(ctx, a.userID, events)
			if err != nil {
				return fmt.Errorf("failed to list corrections: %w", err)
			}
			rows = rows[:0]
			for _, e := range history {
				rows = append(rows, []string{
					e.At.Local().Format("2006-01-02 15:04"),
					firstNonEmpty(e.MerchantName, e.Description),
					string(e.CategoryID),
					e.Key,
				})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.RenderTable([]string{"When", "Merchant", "Category", "Key"}, rows))
			return nil
		},
	}

	cmd.Flags().IntVar(&events, "events", 0, "also show the N most recent corrections")

	return cmd
}
