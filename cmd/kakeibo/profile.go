package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change your profile",
	}

	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileSetIndustryCmd())
	cmd.AddCommand(profileSetPrefCmd())
	cmd.AddCommand(profileSetThresholdCmd())

	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.profile(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if p == nil {
				fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No profile for %s yet. Start with: kakeibo profile set-industry <industry>", a.userID)))
				return nil
			}

			fmt.Fprintln(out, cli.RenderBox("Profile: "+p.UserID, formatProfile(p, a.settings.Engine.Contextual.DepreciationThreshold)))
			return nil
		},
	}
}

func formatProfile(p *model.UserProfile, defaultThreshold decimal.Decimal) string {
	var b strings.Builder

	industry := string(p.Industry)
	if industry == "" {
		industry = "(not set)"
	}
	fmt.Fprintf(&b, "%s %s\n", cli.BoldStyle.Render("Industry:"), industry)

	threshold := "¥" + p.Threshold(defaultThreshold).StringFixed(0)
	if p.DepreciationThreshold == nil {
		threshold += " (default)"
	}
	fmt.Fprintf(&b, "%s %s", cli.BoldStyle.Render("Depreciation threshold:"), threshold)

	names := make([]string, 0, len(p.Preferences))
	for name := range p.Preferences {
		names = append(names, string(name))
	}
	sort.Strings(names)
	if len(names) > 0 {
		b.WriteString("\n" + cli.BoldStyle.Render("Preferences:"))
	}
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %-22s %s", name, p.Preferences[model.PolicyName(name)])
	}

	return b.String()
}

// updateProfile loads the current profile, applies mutate and saves it.
func updateProfile(cmd *cobra.Command, mutate func(*model.UserProfile) error) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.profileOrNew(ctx)
	if err != nil {
		return err
	}
	if err := mutate(p); err != nil {
		return err
	}
	if err := a.store.SaveProfile(ctx, p); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Profile updated"))
	return nil
}

func profileSetIndustryCmd() *cobra.Command {
	industries := make([]string, 0, len(model.Industries()))
	for _, ind := range model.Industries() {
		industries = append(industries, string(ind))
	}

	return &cobra.Command{
		Use:       "set-industry <industry>",
		Short:     "Set your line of business",
		Long:      "Set your line of business. One of: " + strings.Join(industries, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: industries,
		RunE: func(cmd *cobra.Command, args []string) error {
			industry, err := model.ParseIndustry(args[0])
			if err != nil {
				return common.NewUserError(err.Error(), err)
			}
			return updateProfile(cmd, func(p *model.UserProfile) error {
				p.Industry = industry
				return nil
			})
		},
	}
}

func profileSetPrefCmd() *cobra.Command {
	policies := make([]string, 0, len(model.Policies()))
	for _, p := range model.Policies() {
		policies = append(policies, string(p))
	}

	return &cobra.Command{
		Use:   "set-pref <policy> <business|personal|case_by_case|N%>",
		Short: "Set how a kind of spending should be treated",
		Long: `Set a preference policy. Known policies: ` + strings.Join(policies, ", ") + `

Examples:
  kakeibo profile set-pref business_lunch business
  kakeibo profile set-pref phone_business_ratio 60%`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := model.ParsePolicyName(args[0])
			if err != nil {
				return common.NewUserError(err.Error(), err)
			}
			value, err := model.ParsePolicyValue(args[1])
			if err != nil {
				return common.NewUserError(err.Error(), err)
			}
			return updateProfile(cmd, func(p *model.UserProfile) error {
				p.Preferences[name] = value
				return nil
			})
		},
	}
}

func profileSetThresholdCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-threshold <yen>",
		Short: "Set the amount at which equipment is treated as a fixed asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amt, err := decimal.NewFromString(strings.ReplaceAll(args[0], ",", ""))
			if err != nil || !amt.IsPositive() {
				return common.NewUserError(fmt.Sprintf("invalid threshold %q", args[0]), err)
			}
			return updateProfile(cmd, func(p *model.UserProfile) error {
				p.DepreciationThreshold = &amt
				return nil
			})
		},
	}
}
