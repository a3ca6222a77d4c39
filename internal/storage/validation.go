// Package storage provides the persistence layer for profiles, user rules and merchant knowledge.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/kakeibo/internal/common"
	"github.com/Veraticus/kakeibo/internal/model"
)

// Validation errors. All of them match common.ErrValidation.
var (
	ErrNilContext         = validationError("context cannot be nil")
	ErrEmptyString        = validationError("string parameter cannot be empty")
	ErrNilParameter       = validationError("parameter cannot be nil")
	ErrInvalidProfile     = validationError("invalid profile")
	ErrInvalidRule        = validationError("invalid user rule")
	ErrInvalidCorrection  = validationError("invalid correction event")
	ErrInvalidConfirmed   = validationError("invalid confirmed transaction")
	ErrInvalidFingerprint = validationError("invalid fingerprint")
)

type validationErr struct {
	msg string
}

func validationError(msg string) error {
	return &validationErr{msg: msg}
}

func (e *validationErr) Error() string { return e.msg }

func (e *validationErr) Is(target error) bool { return target == common.ErrValidation }

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateProfile(profile *model.UserProfile) error {
	if profile == nil {
		return fmt.Errorf("%w: profile", ErrNilParameter)
	}
	if strings.TrimSpace(profile.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidProfile)
	}
	if profile.Industry != "" {
		if _, err := model.ParseIndustry(string(profile.Industry)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
		}
	}
	if profile.DepreciationThreshold != nil && profile.DepreciationThreshold.IsNegative() {
		return fmt.Errorf("%w: negative depreciation threshold", ErrInvalidProfile)
	}
	for name, v := range profile.Preferences {
		if v.Kind == model.PolicyPercentage && (v.Percent < 0 || v.Percent > 100) {
			return fmt.Errorf("%w: preference %s out of range", ErrInvalidProfile, name)
		}
	}
	return nil
}

func validateUserRule(rule *model.UserRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidRule)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return nil
}

// validateFingerprint accepts only hex SHA-256 digests.
func validateFingerprint(fp string) error {
	if len(fp) != 64 {
		return fmt.Errorf("%w: length %d", ErrInvalidFingerprint, len(fp))
	}
	for _, r := range fp {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("%w: non-hex character %q", ErrInvalidFingerprint, r)
		}
	}
	return nil
}

func validateCorrectionEvent(event model.CorrectionEvent) error {
	if strings.TrimSpace(event.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidCorrection)
	}
	if strings.TrimSpace(event.Key) == "" {
		return fmt.Errorf("%w: missing key", ErrInvalidCorrection)
	}
	if err := validateFingerprint(event.Fingerprint); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCorrection, err)
	}
	if _, err := model.ResolveCategory(event.CategoryID, event.CategoryName); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCorrection, err)
	}
	if event.At.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidCorrection)
	}
	return nil
}

func validateConfirmed(txn model.ConfirmedTransaction) error {
	if strings.TrimSpace(txn.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidConfirmed)
	}
	if strings.TrimSpace(txn.MerchantName) == "" {
		return fmt.Errorf("%w: missing merchant name", ErrInvalidConfirmed)
	}
	if _, ok := model.LookupCategory(txn.CategoryID); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfirmed, model.ErrUnknownCategory, txn.CategoryID)
	}
	return nil
}
