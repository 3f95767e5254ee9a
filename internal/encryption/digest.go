package encryption

// LastFour returns the last four characters of a card or account number, or
// "****" when the input is shorter than four characters. The result is the
// cleartext digest stored beside the encrypted full value. Counting is by
// rune so a multi-byte tail is never split.
func LastFour(number string) string {
	runes := []rune(number)
	if len(runes) < 4 {
		return "****"
	}
	return string(runes[len(runes)-4:])
}

// MaskCardNumber renders a card number for redacted display. Never stored.
func MaskCardNumber(cardNumber string) string {
	return "**** **** **** " + LastFour(cardNumber)
}

// MaskAccountNumber renders a bank account number for redacted display.
func MaskAccountNumber(accountNumber string) string {
	return "****" + LastFour(accountNumber)
}
