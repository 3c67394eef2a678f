package extract

import "regexp"

// Carrier names as they appear in records.
const (
	CarrierUPS    = "UPS"
	CarrierUSPS   = "USPS"
	CarrierFedEx  = "FedEx"
	CarrierAmazon = "Amazon"
)

// Rule recognizes one carrier's tracking number format. Pattern proposes
// candidates; Validate rejects look-alikes via a checksum or length
// constraint. A nil Validate accepts every pattern match.
type Rule struct {
	Carrier  string
	Pattern  *regexp.Regexp
	Validate func(string) bool
}

// DefaultRules covers the carriers seen in shipment notification mail.
// Rules are independent; adding a carrier means appending a rule.
func DefaultRules() []Rule {
	return []Rule{
		{Carrier: CarrierUPS, Pattern: regexp.MustCompile(`\b1Z[0-9A-Z]{16}\b`), Validate: validUPS},
		{Carrier: CarrierUSPS, Pattern: regexp.MustCompile(`\b9[1-5][0-9]{20}\b`), Validate: validIMpb},
		{Carrier: CarrierUSPS, Pattern: regexp.MustCompile(`\b[A-Z]{2}[0-9]{9}[A-Z]{2}\b`), Validate: validS10},
		{Carrier: CarrierUSPS, Pattern: regexp.MustCompile(`\b[0-9]{20}\b`), Validate: lengthIs(20)},
		{Carrier: CarrierFedEx, Pattern: regexp.MustCompile(`\b[0-9]{12}(?:[0-9]{3})?\b`), Validate: validFedEx},
		{Carrier: CarrierAmazon, Pattern: regexp.MustCompile(`\bTBA[0-9]{12}\b`)},
	}
}

// validUPS checks the UPS mod-10 digit over the 15 characters following
// the 1Z prefix. Letters map to (ch-63) mod 10; characters in even
// positions count double.
func validUPS(s string) bool {
	if len(s) != 18 || s[:2] != "1Z" {
		return false
	}
	sum := 0
	for i, r := range s[2:17] {
		v, ok := charValue(r)
		if !ok {
			return false
		}
		if (i+1)%2 == 0 {
			v *= 2
		}
		sum += v
	}
	check := (10 - sum%10) % 10
	return int(s[17]-'0') == check
}

func charValue(r rune) (int, bool) {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0'), true
	case r >= 'A' && r <= 'Z':
		return int(r-63) % 10, true
	default:
		return 0, false
	}
}

// validIMpb checks the USPS mod-10 digit of a 22-digit IMpb barcode:
// weights alternate 3,1 starting from the digit next to the check digit.
func validIMpb(s string) bool {
	if len(s) != 22 {
		return false
	}
	sum := 0
	weight := 3
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		sum += weight * int(s[i]-'0')
		weight = 4 - weight
	}
	check := (10 - sum%10) % 10
	return int(s[21]-'0') == check
}

// s10Weights are the UPU S10 check-digit weights for the nine-digit
// serial of international items (two letters, nine digits, two letters).
var s10Weights = [8]int{8, 6, 4, 2, 3, 5, 9, 7}

func validS10(s string) bool {
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i, w := range s10Weights {
		d := s[2+i]
		if d < '0' || d > '9' {
			return false
		}
		sum += w * int(d-'0')
	}
	check := 11 - sum%11
	switch check {
	case 10:
		check = 0
	case 11:
		check = 5
	}
	return int(s[10]-'0') == check
}

// FedEx express/ground numbers carry no checksum we can verify offline;
// only the 12 and 15 digit lengths are accepted.
func validFedEx(s string) bool {
	return len(s) == 12 || len(s) == 15
}

func lengthIs(n int) func(string) bool {
	return func(s string) bool { return len(s) == n }
}
