package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/feedback"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/spf13/cobra"
)

func correctCmd() *cobra.Command {
	var (
		merchant, description, category, key string
		business, personal                   bool
	)

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Teach kakeibo the right category for a merchant",
		Long: `Record a correction. Each distinct correction of the same merchant and
description raises the confidence of that category for future transactions.

Pass --key to make the correction idempotent: resubmitting the same key is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cat, err := parseCategory(category)
			if err != nil {
				return err
			}
			if business && personal {
				return common.NewUserError("--business and --personal are mutually exclusive", nil)
			}
			var isBusiness *bool
			if business || personal {
				isBusiness = &business
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.feedback.RecordCorrection(ctx, feedback.Correction{
				IsBusiness:   isBusiness,
				Key:          key,
				UserID:       a.userID,
				MerchantName: merchant,
				Description:  description,
				CategoryID:   cat.ID,
			})
			if errors.Is(err, common.ErrInvalidCorrection) {
				return common.NewUserError("correction rejected", err)
			}
			if err != nil {
				return err
			}

			rec, err := a.store.GetLearningRecord(ctx, a.userID, model.Fingerprint(merchant, description))
			if err != nil {
				return fmt.Errorf("failed to read back learning record: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"%s → %s (%d corrections, confidence %.0f%%)",
				firstNonEmpty(merchant, description), cat.Name, rec.CorrectionCount, rec.Confidence()*100)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&merchant, "merchant", "m", "", "merchant name")
	cmd.Flags().StringVarP(&description, "description", "d", "", "transaction description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "correct category (ID or name)")
	cmd.Flags().StringVar(&key, "key", "", "idempotency key (default: random)")
	cmd.Flags().BoolVar(&business, "business", false, "mark as a business expense")
	cmd.Flags().BoolVar(&personal, "personal", false, "mark as personal spending")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func confirmCmd() *cobra.Command {
	var (
		merchant, category string
		business           bool
	)

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a reviewed transaction",
		Long: `Add a reviewed transaction to your history. Confirmed history feeds the
merchant statistics used to classify future transactions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cat, err := parseCategory(category)
			if err != nil {
				return err
			}
			isBusiness := cat.IsBusinessDefault()
			if cmd.Flags().Changed("business") {
				isBusiness = business
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.feedback.RecordConfirmation(ctx, feedback.Confirmation{
				UserID:       a.userID,
				MerchantName: merchant,
				CategoryID:   cat.ID,
				IsBusiness:   isBusiness,
			})
			if errors.Is(err, common.ErrInvalidCorrection) {
				return common.NewUserError("confirmation rejected", err)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Confirmed %s as %s", merchant, cat.Name)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&merchant, "merchant", "m", "", "merchant name")
	cmd.Flags().StringVarP(&category, "category", "c", "", "confirmed category (ID or name)")
	cmd.Flags().BoolVar(&business, "business", false, "business use (default: implied by the category)")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
