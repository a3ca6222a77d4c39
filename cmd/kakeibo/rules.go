package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Veraticus/kakeibo/internal/catalog"
	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage override rules",
		Long: `Override rules always win: when a rule's pattern appears in a transaction
its category is used with full confidence.`,
	}

	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesMatchCmd())

	return cmd
}

func rulesAddCmd() *cobra.Command {
	var personal bool

	cmd := &cobra.Command{
		Use:   "add <pattern> <category>",
		Short: "Add an override rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, err := parseCategory(args[1])
			if err != nil {
				return err
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rule := &model.UserRule{
				UserID:     a.userID,
				Pattern:    args[0],
				Category:   cat.ID,
				IsBusiness: cat.IsBusinessDefault() && !personal,
			}
			if err := a.store.AddUserRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to add rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added rule #%d: %q → %s", rule.ID, rule.Pattern, cat.Name)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&personal, "personal", false, "treat matches as personal spending")

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List override rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.store.GetUserRules(ctx, a.userID)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(rules) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No override rules yet. Add one with: kakeibo rules add <pattern> <category>"))
				return nil
			}

			rows := make([][]string, 0, len(rules))
			for _, r := range rules {
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.Pattern,
					string(r.Category),
					strconv.FormatBool(r.IsBusiness),
					r.CreatedAt.Format("2006-01-02"),
				})
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Pattern", "Category", "Business", "Created"}, rows))
			return nil
		},
	}
}

func rulesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an override rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("invalid rule ID %q", args[0]), err)
			}

			if !yes {
				prompter := cli.NewPrompter(os.Stdin, cmd.OutOrStdout())
				ok, err := prompter.Confirm(ctx, fmt.Sprintf("Delete rule #%d?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Canceled"))
					return nil
				}
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.store.DeleteUserRule(ctx, a.userID, id)
			if errors.Is(err, common.ErrNotFound) {
				return common.NewUserError(fmt.Sprintf("no rule #%d", id), err)
			}
			if err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted rule #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")

	return cmd
}

// rulesMatchCmd shows which override and built-in rules fire for a piece of text.
func rulesMatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "match <text>",
		Short: "Show the rules that match some text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, err := catalog.NewDefault()
			if err != nil {
				return fmt.Errorf("failed to load rule catalog: %w", err)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			userRules, err := a.store.GetUserRules(ctx, a.userID)
			if err != nil {
				return fmt.Errorf("failed to list rules: %w", err)
			}

			out := cmd.OutOrStdout()
			candidates := cat.Lookup(args[0], userRules)
			if len(candidates) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No rule matches"))
				return nil
			}

			rows := make([][]string, 0, len(candidates))
			for _, c := range candidates {
				rows = append(rows, []string{
					string(c.Source),
					string(c.CategoryID),
					fmt.Sprintf("%.0f%%", c.Confidence*100),
					c.Reasoning,
				})
			}
			fmt.Fprintln(out, cli.RenderTable([]string{"Source", "Category", "Confidence", "Reason"}, rows))
			return nil
		},
	}
}
