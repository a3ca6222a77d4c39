package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Industry is the user's declared line of business.
type Industry string

// Supported industries.
const (
	IndustrySoftware     Industry = "software"
	IndustryDesign       Industry = "design"
	IndustryWriting      Industry = "writing"
	IndustryConsulting   Industry = "consulting"
	IndustryPhotography  Industry = "photography"
	IndustryECommerce    Industry = "ecommerce"
	IndustryFoodService  Industry = "food_service"
	IndustryConstruction Industry = "construction"
	IndustryEducation    Industry = "education"
	IndustryOther        Industry = "other"
)

// Industries lists every supported industry.
func Industries() []Industry {
	return []Industry{
		IndustrySoftware, IndustryDesign, IndustryWriting, IndustryConsulting,
		IndustryPhotography, IndustryECommerce, IndustryFoodService,
		IndustryConstruction, IndustryEducation, IndustryOther,
	}
}

// ParseIndustry validates an industry name.
func ParseIndustry(s string) (Industry, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, ind := range Industries() {
		if string(ind) == s {
			return ind, nil
		}
	}
	return "", fmt.Errorf("unknown industry %q", s)
}

// PolicyName names a user preference policy.
type PolicyName string

// Known preference policies.
const (
	PolicyTaxiExpense        PolicyName = "taxi_expense"
	PolicyCoffeeWhileWorking PolicyName = "coffee_while_working"
	PolicyPhoneBusinessRatio PolicyName = "phone_business_ratio"
	PolicyBusinessLunch      PolicyName = "business_lunch"
	PolicyTechnicalEducation PolicyName = "technical_education"
	PolicyBooks              PolicyName = "books"
)

// Policies lists every known preference policy.
func Policies() []PolicyName {
	return []PolicyName{
		PolicyTaxiExpense, PolicyCoffeeWhileWorking, PolicyPhoneBusinessRatio,
		PolicyBusinessLunch, PolicyTechnicalEducation, PolicyBooks,
	}
}

// ParsePolicyName validates a preference policy name.
func ParsePolicyName(s string) (PolicyName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Policies() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown policy %q", s)
}

// PolicyKind is the shape of a preference value.
type PolicyKind string

// Policy kinds.
const (
	PolicyBusiness   PolicyKind = "business"
	PolicyPersonal   PolicyKind = "personal"
	PolicyCaseByCase PolicyKind = "case_by_case"
	PolicyPercentage PolicyKind = "percentage"
)

// PolicyValue is one preference setting. Percent is only meaningful for PolicyPercentage.
type PolicyValue struct {
	Kind    PolicyKind
	Percent int
}

// ParsePolicyValue accepts "business", "personal", "case_by_case" or a percentage like "60%" or "60".
func ParsePolicyValue(s string) (PolicyValue, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch PolicyKind(s) {
	case PolicyBusiness, PolicyPersonal, PolicyCaseByCase:
		return PolicyValue{Kind: PolicyKind(s)}, nil
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return PolicyValue{}, fmt.Errorf("invalid policy value %q", s)
	}
	if pct < 0 || pct > 100 {
		return PolicyValue{}, fmt.Errorf("percentage out of range: %d", pct)
	}
	return PolicyValue{Kind: PolicyPercentage, Percent: pct}, nil
}

func (v PolicyValue) String() string {
	if v.Kind == PolicyPercentage {
		return fmt.Sprintf("%d%%", v.Percent)
	}
	return string(v.Kind)
}

// UserProfile is read-only profile data owned by the settings subsystem.
type UserProfile struct {
	Preferences           map[PolicyName]PolicyValue
	DepreciationThreshold *decimal.Decimal
	UserID                string
	Industry              Industry
}

// Policy returns the preference for name, if set.
func (p *UserProfile) Policy(name PolicyName) (PolicyValue, bool) {
	if p == nil || p.Preferences == nil {
		return PolicyValue{}, false
	}
	v, ok := p.Preferences[name]
	return v, ok
}

// BusinessFlag resolves a policy to a business/personal flag.
// Unset and case-by-case policies fall back to def; percentages count as
// business at 50% or more.
func (p *UserProfile) BusinessFlag(name PolicyName, def bool) bool {
	v, ok := p.Policy(name)
	if !ok {
		return def
	}
	switch v.Kind {
	case PolicyBusiness:
		return true
	case PolicyPersonal:
		return false
	case PolicyPercentage:
		return v.Percent >= 50
	default:
		return def
	}
}

// BusinessRatio returns the business share for a percentage policy.
func (p *UserProfile) BusinessRatio(name PolicyName) (float64, bool) {
	v, ok := p.Policy(name)
	if !ok || v.Kind != PolicyPercentage {
		return 0, false
	}
	return float64(v.Percent) / 100, true
}

// Threshold returns the profile's depreciation threshold or def when unset.
func (p *UserProfile) Threshold(def decimal.Decimal) decimal.Decimal {
	if p == nil || p.DepreciationThreshold == nil {
		return def
	}
	return *p.DepreciationThreshold
}
