package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20260315120000[0:GMT]
<LANGUAGE>JPN
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>JPY
<BANKACCTFROM>
<BANKID>0005
<ACCTID>1234567
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260301000000[0:GMT]
<DTEND>20260331000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260305033000[0:GMT]
<TRNAMT>-580
<FITID>B20260305
<NAME>POS PURCHASE STARBUCKS SHIBUYA
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260310000000[0:GMT]
<TRNAMT>330000
<FITID>B20260310
<NAME>PAYMENT
<MEMO>ACME KK INVOICE 2026-02
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260315150000[0:GMT]
<TRNAMT>-49800.50
<FITID>B20260315
<NAME>YODOBASHI CAMERA
<MEMO>monitor
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000000
<DTASOF>20260331000000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260315120000[0:GMT]
<LANGUAGE>JPN
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>JPY
<CCACCTFROM>
<ACCTID>4980000000000000
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20260301000000[0:GMT]
<DTEND>20260331000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260302000000[0:GMT]
<TRNAMT>-1650
<FITID>CC20260302
<NAME>AWS EMEA
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-1650
<DTASOF>20260331000000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

var jst = time.FixedZone("JST", 9*60*60)

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{name: "valid bank statement", ofxData: sampleBankOFX, expectedCount: 3},
		{name: "valid credit card statement", ofxData: sampleCreditCardOFX, expectedCount: 1},
		{name: "invalid OFX data", ofxData: "not valid OFX", expectedError: true},
		{name: "empty OFX", ofxData: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := NewParser(WithLocation(jst)).ParseFile(context.Background(), strings.NewReader(tt.ofxData))
			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.expectedCount)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	entries, err := NewParser(WithLocation(jst), WithTimeOfDay(true)).
		ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	coffee := entries[0]
	assert.Equal(t, "B20260305", coffee.ID)
	assert.Equal(t, "1234567", coffee.AccountID)
	assert.Equal(t, "STARBUCKS SHIBUYA", coffee.Record.MerchantName)
	assert.Equal(t, "POS PURCHASE STARBUCKS SHIBUYA", coffee.Record.Description)
	assert.True(t, coffee.Record.Amount.Equal(decimal.NewFromInt(-580)))
	assert.True(t, coffee.Record.IsExpense())
	require.NotNil(t, coffee.Record.TimeOfDay)
	assert.Equal(t, "12:30", coffee.Record.TimeOfDay.String())
	assert.Equal(t, 5, coffee.Record.Date.Day())

	invoice := entries[1]
	assert.True(t, invoice.Record.IsRevenue())
	assert.Equal(t, "ACME KK INVOICE 2026-02", invoice.Record.MerchantName, "generic NAME falls back to MEMO")
	assert.Equal(t, "PAYMENT ACME KK INVOICE 2026-02", invoice.Record.Description)

	monitor := entries[2]
	assert.True(t, monitor.Record.Amount.Equal(decimal.RequireFromString("-49800.50")))
	assert.Equal(t, "YODOBASHI CAMERA monitor", monitor.Record.Description)
	// 15:00 GMT is midnight in Tokyo, which reads as a date without a time.
	assert.Equal(t, 16, monitor.Record.Date.Day())
	assert.Nil(t, monitor.Record.TimeOfDay)
}

func TestParse_TimeOfDayDisabledByDefault(t *testing.T) {
	entries, err := NewParser(WithLocation(jst)).ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	for _, e := range entries {
		assert.Nil(t, e.Record.TimeOfDay)
	}
}

func TestParseCreditCardTransactions(t *testing.T) {
	entries, err := NewParser(WithLocation(jst)).ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "CC20260302", entries[0].ID)
	assert.Equal(t, "4980000000000000", entries[0].AccountID)
	assert.Equal(t, "AWS EMEA", entries[0].Record.MerchantName)
	assert.True(t, entries[0].Record.Amount.Equal(decimal.NewFromInt(-1650)))
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		memo     string
		expected string
	}{
		{name: "remove POS prefix", input: "POS PURCHASE STARBUCKS", expected: "STARBUCKS"},
		{name: "remove card brand prefix", input: "JCB LAWSON SHINJUKU", expected: "LAWSON SHINJUKU"},
		{name: "remove posting date", input: "03/05 FAMILYMART", expected: "FAMILYMART"},
		{name: "keep clean name", input: "NETFLIX.COM", expected: "NETFLIX.COM"},
		{name: "trim whitespace", input: "  AMAZON.CO.JP  ", expected: "AMAZON.CO.JP"},
		{name: "generic name uses memo", input: "カード利用", memo: "セブンイレブン", expected: "セブンイレブン"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestGetAccounts(t *testing.T) {
	parser := NewParser()

	accounts, err := parser.GetAccounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567"}, accounts)

	accounts, err = parser.GetAccounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4980000000000000"}, accounts)
}
