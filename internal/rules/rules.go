// Package rules derives tags and a category for a parsed transaction from
// ordered keyword tables. Both passes are pure: the same description,
// direction, date and trips always yield the same result.
package rules

import (
	"strings"
	"time"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

const (
	TagTrip     = "Trip"
	TagGift     = "Gift"
	TagFixed    = "Fixed Expense"
	TagVariable = "Variable Expense"

	// UnmatchedConfidence is reported when no category rule fires.
	UnmatchedConfidence = 0.5
	// IncomeConfidence is reported for every credit.
	IncomeConfidence = 1.0
)

// KeywordRule fires when the lowercased description contains any of its
// keywords as a substring.
type KeywordRule struct {
	Keywords   []string
	Category   domain.Category
	Confidence float64
}

// Matches reports whether any keyword occurs in lower.
func (r KeywordRule) Matches(lower string) bool {
	return containsAny(lower, r.Keywords)
}

// TagRule adds Tag when any keyword matches.
type TagRule struct {
	Keywords []string
	Tag      string
}

// CategoryRules is evaluated top to bottom; the first match wins. Several
// keyword sets overlap (blinkit, emi, pearl) so the order is part of the
// contract.
var CategoryRules = []KeywordRule{
	{Keywords: []string{"rent"}, Category: domain.Rent, Confidence: 0.95},
	{Keywords: []string{"maintenance"}, Category: domain.Maintenance, Confidence: 0.95},
	{Keywords: []string{"internet", "broadband"}, Category: domain.Internet, Confidence: 0.95},
	{Keywords: []string{"insurance", "lic", "tata aia"}, Category: domain.Insurance, Confidence: 0.95},
	{Keywords: []string{"sip", "mutual fund", "ppf", "investment"}, Category: domain.Investment, Confidence: 0.95},
	{Keywords: []string{"pearl"}, Category: domain.Shopping, Confidence: 0.95},
	{Keywords: []string{"onam fest"}, Category: domain.Entertainment, Confidence: 0.95},
	{Keywords: []string{"toilet", "iron clothes"}, Category: domain.PersonalCare, Confidence: 0.95},
	{Keywords: []string{"gift", "donation", "charity", "offering", "b'day"}, Category: domain.GiftsDonations, Confidence: 0.95},
	{Keywords: []string{"exam fees", "lend"}, Category: domain.Lending, Confidence: 0.95},
	{Keywords: []string{"repayment", "return money"}, Category: domain.Repayment, Confidence: 0.95},
	{Keywords: []string{"emi", "loan"}, Category: domain.EMI, Confidence: 0.95},
	{
		Keywords: []string{
			"dmart", "vijetha", "ratandeep", "suresh babu", "shop under flat", "milk",
			"vegetables", "grocery", "egg", "bread", "fruits", "blinkit", "instamart",
			"cucumber", "market", "banana",
		},
		Category:   domain.GroceryShopping,
		Confidence: 0.9,
	},
	{
		Keywords: []string{
			"zomato", "swiggy", "butter chicken", "chandramukhi", "biriyani", "restaurant",
			"bakery", "cake", "sweets", "tea", "coffee", "lunch", "woking", "theobroma",
			"punugulu", "snacks", "spices", "semakodi",
		},
		Category:   domain.OutsideFood,
		Confidence: 0.85,
	},
	{Keywords: []string{"redbus", "flight", "train", "trip", "chennai", "hyderabad to"}, Category: domain.Travel, Confidence: 0.9},
	{Keywords: []string{"uber", "rapido", "cab", "petrol", "auto", "metro", "parking"}, Category: domain.Commute, Confidence: 0.9},
	{Keywords: []string{"netflix", "prime", "discovery"}, Category: domain.Entertainment, Confidence: 0.95},
	{Keywords: []string{"amazon", "blinkit", "myntra", "nykaa", "silk emporium", "clothes"}, Category: domain.Shopping, Confidence: 0.8},
	{
		Keywords: []string{
			"pharmacy", "doctor", "meds", "lab", "consultation", "hospital", "sri holistic",
			"tooth", "root canal", "dental", "zirconium",
		},
		Category:   domain.HealthWellness,
		Confidence: 0.9,
	},
	{Keywords: []string{"recharge", "bill", "gas"}, Category: domain.BillsUtilities, Confidence: 0.9},
}

// GiftRule tags presents and birthday spending.
var GiftRule = TagRule{Keywords: []string{"gift", "pearl", "fruit biscuit", "b'day"}, Tag: TagGift}

// ExpenseKindRules are mutually exclusive; the first match wins.
var ExpenseKindRules = []TagRule{
	{
		Keywords: []string{"rent", "maintenance", "internet", "broadband", "insurance", "lic", "tata aia", "emi", "loan"},
		Tag:      TagFixed,
	},
	{
		Keywords: []string{"current bill", "water bill", "gas", "recharge", "mobile"},
		Tag:      TagVariable,
	},
}

// tripExclusions keep phone recharges and subscriptions paid while away
// out of trip totals.
var tripExclusions = []string{"recharge", "subscription"}

// DeriveCategory picks the category for a description. Credits are always
// Income.
func DeriveCategory(desc string, dir domain.Direction) (domain.Category, float64) {
	if dir == domain.Credit {
		return domain.Income, IncomeConfidence
	}
	lower := strings.ToLower(desc)
	for _, r := range CategoryRules {
		if r.Matches(lower) {
			return r.Category, r.Confidence
		}
	}
	return domain.Uncategorized, UnmatchedConfidence
}

// DeriveTags returns the tags a debit earns from its description and date.
// Credits get none. An unparseable date skips trip tagging only.
func DeriveTags(desc string, dir domain.Direction, date string, trips []domain.Trip) []string {
	tags := []string{}
	if dir == domain.Credit {
		return tags
	}
	lower := strings.ToLower(desc)

	add := func(tag string) {
		for _, t := range tags {
			if t == tag {
				return
			}
		}
		tags = append(tags, tag)
	}

	if !containsAny(lower, tripExclusions) {
		if d, err := time.Parse(domain.DateLayout, date); err == nil {
			for _, trip := range trips {
				if trip.Contains(d) {
					add(TagTrip)
					add(trip.Name)
				}
			}
		}
	}

	if containsAny(lower, GiftRule.Keywords) {
		add(GiftRule.Tag)
	}

	for _, r := range ExpenseKindRules {
		if containsAny(lower, r.Keywords) {
			add(r.Tag)
			break
		}
	}

	return tags
}

// Apply runs both passes on tx. Derived tags are merged after any tags the
// draft already carries.
func Apply(tx *domain.Transaction, trips []domain.Trip) {
	for _, tag := range DeriveTags(tx.Description, tx.Type, tx.Date, trips) {
		tx.AddTag(tag)
	}
	if tx.Tags == nil {
		tx.Tags = []string{}
	}
	tx.Category, tx.Confidence = DeriveCategory(tx.Description, tx.Type)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
