package model

import (
	"fmt"
	"strings"
	"time"
)

// ClassificationRule maps a keyword set to a category with a base confidence.
// Policy optionally names a profile preference that decides the business flag
// (or the business ratio for percentage policies).
type ClassificationRule struct {
	Name           string
	Category       CategoryID
	Policy         PolicyName
	Keywords       []string
	BaseConfidence float64
	IsBusiness     bool
}

// Validate checks the rule against the category registry.
func (r ClassificationRule) Validate() error {
	if _, ok := LookupCategory(r.Category); !ok {
		return fmt.Errorf("rule %q: %w: %q", r.Name, ErrUnknownCategory, r.Category)
	}
	if len(r.Keywords) == 0 {
		return fmt.Errorf("rule %q: no keywords", r.Name)
	}
	for _, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("rule %q: empty keyword", r.Name)
		}
	}
	if r.BaseConfidence <= 0 || r.BaseConfidence > 1 {
		return fmt.Errorf("rule %q: base confidence %.2f out of range", r.Name, r.BaseConfidence)
	}
	return nil
}

// UserRule is a user-authored override. It always outranks system rules.
type UserRule struct {
	CreatedAt  time.Time
	UserID     string
	Pattern    string
	Category   CategoryID
	ID         int64
	IsBusiness bool
}

// Validate checks the rule pattern and category.
func (r UserRule) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("user rule: empty pattern")
	}
	if _, ok := LookupCategory(r.Category); !ok {
		return fmt.Errorf("user rule %q: %w: %q", r.Pattern, ErrUnknownCategory, r.Category)
	}
	return nil
}
