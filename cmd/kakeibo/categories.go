package main

import (
	"fmt"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the accounting categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats := model.Categories()
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				rows = append(rows, []string{string(c.ID), c.Name, c.JapaneseName, string(c.Type)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"ID", "Name", "勘定科目", "Type"}, rows))
			return nil
		},
	}
}
