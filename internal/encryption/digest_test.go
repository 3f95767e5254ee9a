package encryption

import "testing"

func TestLastFour(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "full card number", input: "4242424242424242", want: "4242"},
		{name: "account number", input: "000123456789", want: "6789"},
		{name: "exactly four", input: "1234", want: "1234"},
		{name: "three characters", input: "123", want: "****"},
		{name: "empty", input: "", want: "****"},
		{name: "multi-byte tail", input: "12３４５６", want: "３４５６"},
		{name: "three runes multi-byte", input: "４５６", want: "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LastFour(tt.input); got != tt.want {
				t.Errorf("LastFour(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	if got := MaskCardNumber("4242424242424242"); got != "**** **** **** 4242" {
		t.Errorf("MaskCardNumber = %q, want %q", got, "**** **** **** 4242")
	}
	if got := MaskCardNumber(""); got != "**** **** **** ****" {
		t.Errorf("MaskCardNumber on empty = %q, want %q", got, "**** **** **** ****")
	}
}

func TestMaskAccountNumber(t *testing.T) {
	if got := MaskAccountNumber("000123456789"); got != "****6789" {
		t.Errorf("MaskAccountNumber = %q, want %q", got, "****6789")
	}
}
