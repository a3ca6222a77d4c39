// Package ofx reads OFX/QFX statements into transaction records for classification.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Entry is one statement line converted for classification.
type Entry struct {
	Record    model.TransactionRecord
	ID        string
	AccountID string
	Type      string
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	location  *time.Location
	timeOfDay bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithLocation sets the zone used to read posting dates and times.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.location = loc }
}

// WithTimeOfDay copies the posting time into the record. Many banks post every
// line at midnight or noon, so this is off by default.
func WithTimeOfDay(enabled bool) Option {
	return func(p *Parser) { p.timeOfDay = enabled }
}

// NewParser creates a new OFX parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{location: time.Local}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be INFO, WARN or ERROR.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket on bare tags.
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its entries in statement order.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Entry, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var (
		entries            []Entry
		bankStmts, ccStmts int
	)

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			entries = append(entries, p.convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			entries = append(entries, p.convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))...)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(entries),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return entries, nil
}

func (p *Parser) convertList(list *ofxgo.TransactionList, accountID string) []Entry {
	if list == nil {
		return nil
	}
	entries := make([]Entry, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		entries = append(entries, p.convertTransaction(ofxTx, accountID))
	}
	return entries
}

// convertTransaction converts an OFX transaction. OFX already signs debits
// negative, which matches the record convention.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string) Entry {
	posted := ofxTx.DtPosted.Time.In(p.location)

	description := strings.TrimSpace(string(ofxTx.Name))
	if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" && !strings.EqualFold(memo, description) {
		description = strings.TrimSpace(description + " " + memo)
	}

	record := model.TransactionRecord{
		Date:         time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, p.location),
		Amount:       decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, 2),
		Description:  description,
		MerchantName: p.extractMerchantName(ofxTx),
	}
	if p.timeOfDay && (posted.Hour() != 0 || posted.Minute() != 0) {
		record.TimeOfDay = &model.TimeOfDay{Hour: posted.Hour(), Minute: posted.Minute()}
	}

	return Entry{
		Record:    record,
		ID:        string(ofxTx.FiTID),
		AccountID: accountID,
		Type:      fmt.Sprintf("%v", ofxTx.TrnType),
	}
}

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
	"VISA ",
	"JCB ",
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " posting dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return strings.TrimSpace(name)
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE", "カード利用", "振替":
		return true
	}
	return false
}

// GetAccounts extracts the sorted unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]struct{})
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accountMap[string(stmt.BankAcctFrom.AcctID)] = struct{}{}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accountMap[string(stmt.CCAcctFrom.AcctID)] = struct{}{}
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts, nil
}
