// Package strategy implements the independent classification strategies run by the engine.
// Each strategy looks at one kind of evidence and either proposes a candidate or
// returns nil; none of them fail.
package strategy

import (
	"context"

	"github.com/Veraticus/kakeibo/internal/model"
)

// Input is everything a strategy may look at for one transaction.
type Input struct {
	Profile *model.UserProfile
	UserID  string
	// Text is the normalized concatenation of description, merchant and OCR text.
	Text   string
	Record model.TransactionRecord
}

// NewInput prepares a record for the strategies. profile may be nil.
func NewInput(userID string, record model.TransactionRecord, profile *model.UserProfile) Input {
	return Input{
		Profile: profile,
		UserID:  userID,
		Text:    record.SearchText(),
		Record:  record,
	}
}

// Strategy proposes a classification from one kind of evidence.
type Strategy interface {
	Name() model.StrategyName
	// Classify returns nil when the strategy has no opinion.
	Classify(ctx context.Context, in Input) *model.ClassificationCandidate
}
