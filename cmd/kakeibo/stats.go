package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/spf13/cobra"
)

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Inspect merchant statistics from confirmed history",
	}

	cmd.AddCommand(statsShowCmd())

	return cmd
}

func statsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [merchant]",
		Short: "Show merchant statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				s, err := a.stats.GetMerchantStatistics(ctx, a.userID, args[0])
				if err != nil {
					return err
				}
				if s == nil {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No confirmed history for %s", args[0])))
					return nil
				}
				fmt.Fprintln(out, cli.RenderTable(statsHeaders, statsRows(map[string]*model.MerchantStatistics{s.Merchant: s})))
				return nil
			}

			n, err := a.stats.Refresh(ctx, a.userID)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No confirmed history yet. Record some with: kakeibo confirm"))
				return nil
			}
			all, err := a.store.ComputeMerchantStatistics(ctx, a.userID)
			if err != nil {
				return fmt.Errorf("failed to compute merchant statistics: %w", err)
			}
			fmt.Fprintln(out, cli.RenderTable(statsHeaders, statsRows(all)))
			return nil
		},
	}
}

var statsHeaders = []string{"Merchant", "Total", "Top category", "Share", "Business"}

func statsRows(all map[string]*model.MerchantStatistics) [][]string {
	merchants := make([]string, 0, len(all))
	for m := range all {
		merchants = append(merchants, m)
	}
	sort.Strings(merchants)

	rows := make([][]string, 0, len(merchants))
	for _, m := range merchants {
		s := all[m]
		top, ok := s.MostFrequent()
		if !ok {
			continue
		}
		rows = append(rows, []string{
			strings.TrimSpace(m),
			strconv.Itoa(s.TotalTransactions),
			string(top.Category),
			fmt.Sprintf("%d/%d", top.Count, s.TotalTransactions),
			fmt.Sprintf("%d/%d", top.BusinessCount, top.Count),
		})
	}
	return rows
}
