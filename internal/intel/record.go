// Package intel implements the Intelligence Record and its two extraction
// channels: a deterministic pattern matcher that never fails, and a
// best-effort model-based extractor. Records are monotonically enriched over
// a session; values are only ever added, never removed.
package intel

import "strings"

// Category is one of the fixed set of intelligence keys. The string values
// double as the JSON wire keys.
type Category string

const (
	Names          Category = "names"
	PhoneNumbers   Category = "phoneNumbers"
	UPIIDs         Category = "upiIds"
	BankAccounts   Category = "bankAccounts"
	BankNames      Category = "bankNames"
	Organizations  Category = "claimedOrganization"
	EmployeeIDs    Category = "employeeId"
	CaseNumbers    Category = "caseNumber"
	Links          Category = "links"
	Locations      Category = "locations"
	Amounts        Category = "amounts"
	Tactics        Category = "tactics"
	CreditCards    Category = "creditCards"
	AllNumbers     Category = "allNumbers"
	SuspiciousKeys Category = "suspiciousKeywords"
)

// Categories lists every key in a stable order.
var Categories = []Category{
	Names, PhoneNumbers, UPIIDs, BankAccounts, BankNames, Organizations,
	EmployeeIDs, CaseNumbers, Links, Locations, Amounts, Tactics,
	CreditCards, AllNumbers, SuspiciousKeys,
}

// Record maps categories to deduplicated sets of non-empty trimmed strings.
// An absent or empty key means "nothing found". Insertion order is preserved
// for readability but is not significant.
type Record map[Category][]string

// NewRecord returns an empty record.
func NewRecord() Record { return Record{} }

// Add inserts values into a category, trimming, dropping empties and
// deduplicating (case-sensitive).
func (r Record) Add(cat Category, values ...string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if contains(r[cat], v) {
			continue
		}
		r[cat] = append(r[cat], v)
	}
}

// Has reports whether a category holds at least one value.
func (r Record) Has(cat Category) bool { return len(r[cat]) > 0 }

// Values returns the set for a category (nil when empty).
func (r Record) Values(cat Category) []string { return r[cat] }

// Count totals the values across every category.
func (r Record) Count() int {
	n := 0
	for _, vs := range r {
		n += len(vs)
	}
	return n
}

// Clone copies the record so the original can keep being enriched safely.
func (r Record) Clone() Record {
	out := NewRecord()
	for cat, vs := range r {
		if len(vs) == 0 {
			continue
		}
		out[cat] = append([]string(nil), vs...)
	}
	return out
}

// Merge unions two records category-wise into a new record. It is idempotent
// and commutative modulo ordering: merging never removes a finding, and
// merging an empty record is a no-op.
func Merge(a, b Record) Record {
	out := a.Clone()
	for cat, vs := range b {
		out.Add(cat, vs...)
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
