package model

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veraticus/kakeibo/internal/textnorm"
)

// FingerprintPrefixLength is the number of description runes folded into a fingerprint.
const FingerprintPrefixLength = 20

// Fingerprint derives the learning key for a merchant and description.
// Case, width and surrounding whitespace never change the result.
func Fingerprint(merchantName, description string) string {
	merchant := textnorm.Normalize(merchantName)
	prefix := textnorm.Prefix(textnorm.Normalize(description), FingerprintPrefixLength)
	sum := sha256.Sum256([]byte(merchant + "|" + prefix))
	return fmt.Sprintf("%x", sum)
}

// MerchantLearningRecord is what the user has taught the engine about one fingerprint.
type MerchantLearningRecord struct {
	LastCorrectedAt time.Time
	Fingerprint     string
	UserID          string
	MerchantName    string
	CategoryName    string
	CategoryID      CategoryID
	CorrectionCount int
	IsBusiness      bool
}

// LearnedConfidence is min(0.5 + 0.2*count, 1.0).
func LearnedConfidence(correctionCount int) float64 {
	if correctionCount <= 0 {
		return 0
	}
	// Rounded to avoid 0.5+0.2*2 = 0.9000000000000001 style drift at thresholds.
	c := math.Round((0.5+0.2*float64(correctionCount))*100) / 100
	return math.Min(c, 1.0)
}

// Confidence is the confidence presented to the cascade.
func (r MerchantLearningRecord) Confidence() float64 {
	return LearnedConfidence(r.CorrectionCount)
}

// CorrectionEvent is one human edit of an automatically assigned category.
type CorrectionEvent struct {
	At           time.Time
	Key          string
	UserID       string
	Fingerprint  string
	MerchantName string
	Description  string
	CategoryName string
	CategoryID   CategoryID
	IsBusiness   bool
}

// ConfirmedTransaction is a reviewed transaction feeding merchant statistics.
type ConfirmedTransaction struct {
	ConfirmedAt  time.Time
	UserID       string
	MerchantName string
	CategoryID   CategoryID
	IsBusiness   bool
}

// CategoryTally counts confirmed transactions of one category for a merchant.
type CategoryTally struct {
	Category      CategoryID
	Count         int
	BusinessCount int
}

// MerchantStatistics aggregates a user's confirmed history for one merchant.
type MerchantStatistics struct {
	Merchant          string
	Tallies           map[CategoryID]*CategoryTally
	TotalTransactions int
}

// NewMerchantStatistics returns an empty aggregate for merchant.
func NewMerchantStatistics(merchant string) *MerchantStatistics {
	return &MerchantStatistics{
		Merchant: merchant,
		Tallies:  make(map[CategoryID]*CategoryTally),
	}
}

// Add records one confirmed transaction.
func (s *MerchantStatistics) Add(category CategoryID, isBusiness bool) {
	t, ok := s.Tallies[category]
	if !ok {
		t = &CategoryTally{Category: category}
		s.Tallies[category] = t
	}
	t.Count++
	if isBusiness {
		t.BusinessCount++
	}
	s.TotalTransactions++
}

// MostFrequent returns the tally with the highest count. Ties go to the
// lexicographically smallest category ID so the answer never depends on map order.
func (s *MerchantStatistics) MostFrequent() (CategoryTally, bool) {
	if s == nil || len(s.Tallies) == 0 {
		return CategoryTally{}, false
	}
	tallies := make([]CategoryTally, 0, len(s.Tallies))
	for _, t := range s.Tallies {
		tallies = append(tallies, *t)
	}
	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].Count != tallies[j].Count {
			return tallies[i].Count > tallies[j].Count
		}
		return tallies[i].Category < tallies[j].Category
	})
	return tallies[0], true
}
