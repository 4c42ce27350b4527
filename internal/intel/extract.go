package intel

import (
	"regexp"
	"strings"
	"unicode"
)

// Pattern-matching extraction channel. Deterministic and always available:
// anything not found simply comes back as an empty set.

var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:my name is|i am|i'm|this is|call me|it's|speaking|name is|name's)\s+([A-Za-z][a-zA-Z]+)`),
		regexp.MustCompile(`(?m)^([A-Z][a-z]{2,})\s+(?:here|speaking|calling)`),
	}

	digitRunRe    = regexp.MustCompile(`\b\d+\b`)
	spacedPhoneRe = regexp.MustCompile(`\b\d{3,5}[\s-]?\d{3,4}[\s-]?\d{3,4}\b`)
	creditCardRe  = regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`)
	upiRe         = regexp.MustCompile(`[A-Za-z0-9._-]+@[A-Za-z]+(?:\.[A-Za-z]+)*`)

	employeeIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:(?i:employee|emp|badge|staff|agent))\s*(?:(?i:id|number|no|#))?[:\s]*(?:(?i:is)\s+)?([A-Z0-9-]{2,15})`),
		regexp.MustCompile(`(?:(?i:my id is|id is))\s*([A-Z0-9-]{2,15})`),
	}
	caseNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:(?i:case|reference|ref|ticket|complaint|order))\s*(?:(?i:id|number|no|#))?[:\s]*(?:(?i:is)\s+)?([A-Z0-9-]{2,20})`),
	}

	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://\S+`),
		regexp.MustCompile(`(?i)www\.\S+`),
		regexp.MustCompile(`(?i)[a-z0-9-]+\.(?:com|net|org|in|xyz|io|co|info|online|site)\S*`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:rs\.?|₹|inr|rupees?)\s*[\d,]+(?:\.\d{1,2})?`),
		regexp.MustCompile(`(?i)[\d,]*\d\s*(?:lakhs?|crores?|thousand|rupees?|dollars?)`),
		regexp.MustCompile(`\$[\d,]+(?:\.\d{1,2})?`),
	}
)

// skipNames filters generic words the name patterns tend to catch.
var skipNames = map[string]struct{}{
	"sir": {}, "madam": {}, "mam": {}, "hello": {}, "hi": {}, "yes": {}, "no": {},
	"ok": {}, "okay": {}, "the": {}, "and": {}, "from": {}, "me": {}, "i": {},
	"myself": {}, "we": {}, "us": {}, "this": {}, "that": {}, "there": {},
	"here": {}, "please": {}, "calling": {}, "speaking": {}, "scared": {},
	"afraid": {}, "worried": {}, "confused": {}, "angry": {}, "upset": {},
	"serious": {}, "joking": {}, "fine": {}, "good": {}, "bad": {}, "busy": {},
	"free": {}, "sorry": {}, "sure": {}, "right": {}, "wrong": {}, "true": {},
	"false": {}, "ready": {}, "happy": {}, "sad": {},
}

// bankKeywords maps lowercase substrings to a canonical bank label.
var bankKeywords = []struct {
	keys  []string
	label string
}{
	{[]string{"sbi", "state bank"}, "SBI"},
	{[]string{"hdfc"}, "HDFC"},
	{[]string{"icici"}, "ICICI"},
	{[]string{"axis"}, "Axis Bank"},
	{[]string{"kotak"}, "Kotak"},
	{[]string{"pnb", "punjab national"}, "PNB"},
	{[]string{"bob", "bank of baroda"}, "Bank of Baroda"},
	{[]string{"canara"}, "Canara Bank"},
	{[]string{"paytm"}, "Paytm"},
	{[]string{"phonepe", "phone pe"}, "PhonePe"},
	{[]string{"gpay", "google pay"}, "Google Pay"},
}

var orgKeywords = []struct {
	keys  []string
	label string
}{
	{[]string{"microsoft", "windows support"}, "Microsoft"},
	{[]string{"amazon"}, "Amazon"},
	{[]string{"apple", "icloud"}, "Apple"},
	{[]string{"google", "gmail"}, "Google"},
	{[]string{"facebook", "meta"}, "Meta/Facebook"},
	{[]string{"whatsapp"}, "WhatsApp"},
	{[]string{"cyber cell", "cyber crime"}, "Cyber Police"},
	{[]string{"cbi"}, "CBI"},
	{[]string{"income tax", "tax department"}, "Income Tax"},
	{[]string{"customs"}, "Customs"},
	{[]string{"rbi", "reserve bank"}, "RBI"},
	{[]string{"uidai", "aadhar", "aadhaar"}, "UIDAI/Aadhaar"},
	{[]string{"trai", "telecom"}, "TRAI"},
	{[]string{"police", "officer"}, "Police"},
	{[]string{"court", "legal"}, "Legal/Court"},
	{[]string{"fedex", "dhl", "courier"}, "Courier"},
}

// suspiciousVocabulary is a fixed vocabulary of scam-indicator terms, tested
// by case-insensitive substring membership.
var suspiciousVocabulary = []string{
	"urgent", "immediately", "right now", "asap", "hurry", "final warning",
	"refund", "transfer", "send money", "payment", "transaction", "deposit",
	"blocked", "suspended", "terminated", "compromised", "hacked",
	"verify", "otp", "password", "pin", "cvv", "security code",
	"arrest", "warrant", "legal action", "lawsuit", "court", "police",
	"lottery", "prize", "winner", "jackpot", "congratulations",
	"kyc", "pan card", "aadhar", "passport",
	"remote access", "anydesk", "teamviewer", "screen share", "download app",
	"gift card", "bitcoin", "crypto", "wire transfer",
}

// Extract runs every category recognizer over the concatenated caller text.
func Extract(texts []string) Record {
	r := NewRecord()
	full := strings.Join(texts, "\n")
	if strings.TrimSpace(full) == "" {
		return r
	}
	lower := strings.ToLower(full)

	extractNames(r, full)
	extractNumbers(r, full)
	extractUPIs(r, full)
	extractLookups(r, lower)
	extractLabeledIDs(r, full)
	extractURLs(r, full)
	extractAmounts(r, full)

	for _, kw := range suspiciousVocabulary {
		if strings.Contains(lower, kw) {
			r.Add(SuspiciousKeys, kw)
		}
	}
	return r
}

func extractNames(r Record, full string) {
	for _, pat := range namePatterns {
		for _, m := range pat.FindAllStringSubmatch(full, -1) {
			name := strings.TrimSpace(m[1])
			if len(name) < 2 || !startsUpper(name) {
				continue
			}
			if _, skip := skipNames[strings.ToLower(name)]; skip {
				continue
			}
			r.Add(Names, name)
		}
	}
}

func extractNumbers(r Record, full string) {
	runs := digitRunRe.FindAllString(full, -1)
	r.Add(AllNumbers, runs...)
	for _, n := range runs {
		if len(n) == 10 {
			r.Add(PhoneNumbers, n)
		}
	}
	// spaced/hyphenated phone variants normalize before the length check
	for _, m := range spacedPhoneRe.FindAllString(full, -1) {
		clean := stripSeparators(m)
		if len(clean) >= 10 {
			r.Add(PhoneNumbers, clean)
		}
	}
	// 9-18 digit runs not already tagged as phones become bank-account
	// candidates. Deliberately lossy: dates and amounts will land here too.
	for _, n := range runs {
		if len(n) >= 9 && len(n) <= 18 && !contains(r[PhoneNumbers], n) {
			r.Add(BankAccounts, n)
		}
	}
	for _, m := range creditCardRe.FindAllString(full, -1) {
		r.Add(CreditCards, stripSeparators(m))
	}
}

func extractUPIs(r Record, full string) {
	for _, m := range upiRe.FindAllString(full, -1) {
		lower := strings.ToLower(m)
		if strings.Contains(lower, ".com") || strings.Contains(lower, ".org") || strings.Contains(lower, ".net") {
			continue
		}
		r.Add(UPIIDs, m)
	}
}

func extractLookups(r Record, lower string) {
	for _, b := range bankKeywords {
		for _, k := range b.keys {
			if strings.Contains(lower, k) {
				r.Add(BankNames, b.label)
				break
			}
		}
	}
	for _, o := range orgKeywords {
		for _, k := range o.keys {
			if !strings.Contains(lower, k) {
				continue
			}
			// an organization label that duplicates an extracted name is noise
			if !containsFold(r[Names], o.label) {
				r.Add(Organizations, o.label)
			}
			break
		}
	}
}

func extractLabeledIDs(r Record, full string) {
	for _, pat := range employeeIDPatterns {
		for _, m := range pat.FindAllStringSubmatch(full, -1) {
			if len(m[1]) >= 2 {
				r.Add(EmployeeIDs, m[1])
			}
		}
	}
	for _, pat := range caseNumberPatterns {
		for _, m := range pat.FindAllStringSubmatch(full, -1) {
			if len(m[1]) >= 2 {
				r.Add(CaseNumbers, m[1])
			}
		}
	}
}

func extractURLs(r Record, full string) {
	for _, pat := range urlPatterns {
		r.Add(Links, pat.FindAllString(full, -1)...)
	}
}

func extractAmounts(r Record, full string) {
	for _, pat := range amountPatterns {
		r.Add(Amounts, pat.FindAllString(full, -1)...)
	}
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
