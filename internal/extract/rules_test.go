package extract

import "testing"

// carriersIn runs every default rule against text and returns the
// carriers that produced a validated match.
func carriersIn(text string) []string {
	var out []string
	for _, rule := range DefaultRules() {
		for _, m := range rule.Pattern.FindAllString(text, -1) {
			if rule.Validate != nil && !rule.Validate(m) {
				continue
			}
			out = append(out, rule.Carrier)
		}
	}
	return out
}

func TestDefaultRules(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "ups-valid",
			text: "your package 1Z999AA10123456784 shipped",
			want: []string{CarrierUPS},
		},
		{
			name: "ups-bad-check-digit",
			text: "your package 1Z999AA10123456789 shipped",
			want: nil,
		},
		{
			name: "ups-second-valid",
			text: "1Z999AA20123456782",
			want: []string{CarrierUPS},
		},
		{
			name: "usps-impb-valid",
			text: "tracking number 9400111899223818218247",
			want: []string{CarrierUSPS},
		},
		{
			name: "usps-impb-bad-check-digit",
			text: "tracking number 9400111899223818218240",
			want: nil,
		},
		{
			name: "usps-s10-valid",
			text: "item RB123456785US in transit",
			want: []string{CarrierUSPS},
		},
		{
			name: "usps-s10-check-digit-five-for-remainder-zero",
			text: "item LX111111115DE in transit",
			want: []string{CarrierUSPS},
		},
		{
			name: "usps-s10-bad-check-digit",
			text: "item RB123456780US in transit",
			want: nil,
		},
		{
			name: "usps-legacy-20-digit",
			text: "confirmation 03112660000009203301",
			want: []string{CarrierUSPS},
		},
		{
			name: "fedex-12-digit",
			text: "door tag 986578788855 left",
			want: []string{CarrierFedEx},
		},
		{
			name: "fedex-15-digit",
			text: "ground 061297880713582 scanned",
			want: []string{CarrierFedEx},
		},
		{
			name: "fedex-wrong-length-unmatched",
			text: "order number 9865787888551 placed",
			want: nil,
		},
		{
			name: "amazon-tba",
			text: "TBA123456789012 is out for delivery",
			want: []string{CarrierAmazon},
		},
		{
			name: "amazon-too-short",
			text: "TBA12345 is not a shipment",
			want: nil,
		},
		{
			name: "no-numbers",
			text: "thanks for your order, it will ship soon",
			want: nil,
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			got := carriersIn(tc.text)
			if len(got) != len(tc.want) {
				t.Fatalf("carriers = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("carriers = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestValidUPSRejectsMalformed(t *testing.T) {
	cases := []string{"", "1Z", "1Z999AA1012345678", "2Z999AA10123456784", "1Z999aa10123456784"}
	for _, c := range cases {
		if validUPS(c) {
			t.Fatalf("validUPS(%q) = true, want false", c)
		}
	}
}
