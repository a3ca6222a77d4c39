package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/kakeibo/internal/cli"
	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/ofx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type classifyOptions struct {
	description string
	merchant    string
	ocr         string
	amount      string
	date        string
	timeOfDay   string
	ofxFile     string
	ofxTimes    bool
	noProgress  bool
}

func classifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify transactions",
		Long: `Classify a single transaction described by flags, or every transaction in
an OFX/QFX statement.

Amounts are in yen; expenses are negative and revenue is positive.

Examples:
  kakeibo classify --description "スターバックス 渋谷店" --amount -550
  kakeibo classify --description "Dell monitor" --amount -50000 --time 15:00
  kakeibo classify --ofx statement.qfx`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.ofxFile != "" {
				return runClassifyOFX(cmd, opts)
			}
			return runClassifyOne(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "transaction description")
	cmd.Flags().StringVarP(&opts.merchant, "merchant", "m", "", "merchant name")
	cmd.Flags().StringVar(&opts.ocr, "ocr", "", "receipt text")
	cmd.Flags().StringVarP(&opts.amount, "amount", "a", "", "signed amount in yen (negative for expenses)")
	cmd.Flags().StringVar(&opts.date, "date", "", "transaction date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.timeOfDay, "time", "", "time of day, HH:MM")
	cmd.Flags().StringVar(&opts.ofxFile, "ofx", "", "classify every transaction in an OFX/QFX file")
	cmd.Flags().BoolVar(&opts.ofxTimes, "ofx-times", false, "use posting times from the OFX file as time of day")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "hide the progress bar")

	return cmd
}

// record builds a transaction record from the single-transaction flags.
func (o *classifyOptions) record(now time.Time) (model.TransactionRecord, error) {
	rec := model.TransactionRecord{
		Description:  o.description,
		MerchantName: o.merchant,
		OCRText:      o.ocr,
		Date:         now,
	}

	if strings.TrimSpace(o.amount) != "" {
		amt, err := decimal.NewFromString(strings.ReplaceAll(o.amount, ",", ""))
		if err != nil {
			return rec, common.NewUserError(fmt.Sprintf("invalid amount %q", o.amount), err)
		}
		rec.Amount = amt
	}

	if o.date != "" {
		d, err := time.ParseInLocation("2006-01-02", o.date, now.Location())
		if err != nil {
			return rec, common.NewUserError(fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", o.date), err)
		}
		rec.Date = d
	}

	if o.timeOfDay != "" {
		tod, err := model.ParseTimeOfDay(o.timeOfDay)
		if err != nil {
			return rec, common.NewUserError(fmt.Sprintf("invalid time %q (use HH:MM)", o.timeOfDay), err)
		}
		rec.TimeOfDay = &tod
	}

	return rec, nil
}

func runClassifyOne(cmd *cobra.Command, opts *classifyOptions) error {
	ctx := cmd.Context()

	rec, err := opts.record(time.Now())
	if err != nil {
		return err
	}
	if !rec.HasText() && rec.Amount.IsZero() {
		return common.NewUserError("nothing to classify: pass --description, --merchant, --ocr or --amount", nil)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := a.profile(ctx)
	if err != nil {
		return err
	}

	result := a.engine.Classify(ctx, a.userID, rec, profile)
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderResult(rec, result, a.engine.ReviewThreshold()))
	return nil
}

func runClassifyOFX(cmd *cobra.Command, opts *classifyOptions) error {
	ctx := cmd.Context()

	f, err := os.Open(opts.ofxFile)
	if err != nil {
		return common.NewUserError(fmt.Sprintf("cannot open %s", opts.ofxFile), err)
	}
	defer func() { _ = f.Close() }()

	entries, err := ofx.NewParser(ofx.WithTimeOfDay(opts.ofxTimes)).ParseFile(ctx, f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", opts.ofxFile, err)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No transactions found"))
		return nil
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	profile, err := a.profile(ctx)
	if err != nil {
		return err
	}

	records := make([]model.TransactionRecord, len(entries))
	for i, e := range entries {
		records[i] = e.Record
	}

	var progress func()
	var bar *cli.Progress
	if !opts.noProgress {
		bar = cli.NewProgress(cmd.ErrOrStderr(), len(records), "Classifying transactions...")
		progress = bar.Increment
	}

	results, summary, err := a.engine.ClassifyBatch(ctx, a.userID, records, profile, progress)
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderResults(records, results, a.engine.ReviewThreshold()))
	fmt.Fprintln(out, cli.RenderSummary(summary))
	return nil
}
