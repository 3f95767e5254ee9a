package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"onboarding-service/internal/util"
)

// PaymentMethod selects which PaymentDetails variant a submission carries.
type PaymentMethod string

const (
	PaymentMethodACH   PaymentMethod = "ACH"
	PaymentMethodCC    PaymentMethod = "CC"
	PaymentMethodNet15 PaymentMethod = "NET15"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodACH, PaymentMethodCC, PaymentMethodNet15:
		return true
	}
	return false
}

// BusinessInfo is the first form section.
type BusinessInfo struct {
	BusinessName            string  `json:"businessName"`
	MainEmail               string  `json:"mainEmail"`
	MainContactRep          string  `json:"mainContactRep"`
	Phone                   string  `json:"phone"`
	ASINumber               string  `json:"asiNumber,omitempty"`
	BusinessType            string  `json:"businessType"`
	YearsInBusiness         int     `json:"yearsInBusiness"`
	EINNumber               string  `json:"einNumber"`
	EstimatedAnnualBusiness float64 `json:"estimatedAnnualBusiness"`
	AverageOrderSize        int     `json:"averageOrderSize"`
}

type BillingInfo struct {
	BillingAddress string `json:"billingAddress"`
	BillingCity    string `json:"billingCity"`
	BillingState   string `json:"billingState"`
	BillingZip     string `json:"billingZip"`
	BillingContact string `json:"billingContact"`
	BillingPhone   string `json:"billingPhone"`
	BillingEmail   string `json:"billingEmail"`
}

type ShippingInfo struct {
	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingZip     string `json:"shippingZip"`
	ShippingContact string `json:"shippingContact"`
	ShippingPhone   string `json:"shippingPhone"`
}

// ACHDetails is the bank-transfer payment variant. All three authorization
// acknowledgements must be true for the submission to be accepted.
type ACHDetails struct {
	AccountHolderName string `json:"accountHolderName"`
	AccountType       string `json:"accountType"`
	RoutingNumber     string `json:"routingNumber"`
	AccountNumber     string `json:"accountNumber"`
	Authorization1    bool   `json:"authorization1"`
	Authorization2    bool   `json:"authorization2"`
	Authorization3    bool   `json:"authorization3"`
}

// CCDetails is the credit-card payment variant (four authorizations).
type CCDetails struct {
	CardholderName string `json:"cardholderName"`
	CardType       string `json:"cardType"`
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CVCNumber      string `json:"cvcNumber"`
	BillingZipCode string `json:"billingZipCode"`
	Authorization1 bool   `json:"authorization1"`
	Authorization2 bool   `json:"authorization2"`
	Authorization3 bool   `json:"authorization3"`
	Authorization4 bool   `json:"authorization4"`
}

// Net15Details is the net-15 terms variant: card on file plus a fifth
// acknowledgement covering the terms themselves.
type Net15Details struct {
	CardholderName string `json:"cardholderName"`
	CardType       string `json:"cardType"`
	CardNumber     string `json:"cardNumber"`
	ExpirationDate string `json:"expirationDate"`
	CVCNumber      string `json:"cvcNumber"`
	BillingZipCode string `json:"billingZipCode"`
	Authorization1 bool   `json:"authorization1"`
	Authorization2 bool   `json:"authorization2"`
	Authorization3 bool   `json:"authorization3"`
	Authorization4 bool   `json:"authorization4"`
	Authorization5 bool   `json:"authorization5"`
}

// PaymentDetails is a tagged union: exactly one variant is non-nil, selected
// by the application's PaymentMethod.
type PaymentDetails struct {
	ACH   *ACHDetails   `json:"-"`
	CC    *CCDetails    `json:"-"`
	Net15 *Net15Details `json:"-"`
}

// Variant returns the active variant as an interface value, or nil.
func (p PaymentDetails) Variant() interface{} {
	switch {
	case p.ACH != nil:
		return p.ACH
	case p.CC != nil:
		return p.CC
	case p.Net15 != nil:
		return p.Net15
	}
	return nil
}

// MarshalJSON flattens the active variant, matching the wire shape the form
// submits and the shape stored inside payment_authorizations_encrypted.
func (p PaymentDetails) MarshalJSON() ([]byte, error) {
	v := p.Variant()
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// DecodePaymentDetails parses a flat payment-details object into the variant
// named by method.
func DecodePaymentDetails(method PaymentMethod, raw []byte) (PaymentDetails, error) {
	var out PaymentDetails
	if len(raw) == 0 || string(raw) == "null" {
		return out, fmt.Errorf("payment details missing")
	}
	switch method {
	case PaymentMethodACH:
		d := &ACHDetails{}
		if err := json.Unmarshal(raw, d); err != nil {
			return out, fmt.Errorf("invalid ACH payment details: %w", err)
		}
		out.ACH = d
	case PaymentMethodCC:
		d := &CCDetails{}
		if err := json.Unmarshal(raw, d); err != nil {
			return out, fmt.Errorf("invalid CC payment details: %w", err)
		}
		out.CC = d
	case PaymentMethodNet15:
		d := &Net15Details{}
		if err := json.Unmarshal(raw, d); err != nil {
			return out, fmt.Errorf("invalid NET15 payment details: %w", err)
		}
		out.Net15 = d
	default:
		return out, fmt.Errorf("unknown payment method %q", method)
	}
	return out, nil
}

type Signature struct {
	Signature string `json:"signature"`
}

// Application is the validated, in-memory shape of one onboarding submission.
type Application struct {
	BusinessInfo   BusinessInfo   `json:"businessInfo"`
	BillingInfo    BillingInfo    `json:"billingInfo"`
	ShippingInfo   ShippingInfo   `json:"shippingInfo"`
	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`
	Signature      Signature      `json:"signature"`
	ResellerPermit string         `json:"resellerPermit,omitempty"`
}

// UnmarshalJSON decodes the submission payload, resolving the paymentDetails
// union against paymentMethod.
func (a *Application) UnmarshalJSON(data []byte) error {
	type alias struct {
		BusinessInfo   BusinessInfo    `json:"businessInfo"`
		BillingInfo    BillingInfo     `json:"billingInfo"`
		ShippingInfo   ShippingInfo    `json:"shippingInfo"`
		PaymentMethod  PaymentMethod   `json:"paymentMethod"`
		PaymentDetails json.RawMessage `json:"paymentDetails"`
		Signature      Signature       `json:"signature"`
		ResellerPermit string          `json:"resellerPermit,omitempty"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.BusinessInfo = raw.BusinessInfo
	a.BillingInfo = raw.BillingInfo
	a.ShippingInfo = raw.ShippingInfo
	a.PaymentMethod = raw.PaymentMethod
	a.Signature = raw.Signature
	a.ResellerPermit = raw.ResellerPermit

	if !raw.PaymentMethod.Valid() {
		// Validation reports the full field error; keep the union empty here.
		a.PaymentDetails = PaymentDetails{}
		return nil
	}

	details, err := DecodePaymentDetails(raw.PaymentMethod, raw.PaymentDetails)
	if err != nil {
		return err
	}
	a.PaymentDetails = details
	return nil
}

var (
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	einPattern     = regexp.MustCompile(`^\d{9}$`)
	routingPattern = regexp.MustCompile(`^\d{9}$`)
	expiryPattern  = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
)

// ValidationError reports one or more rejected submission fields. It is
// raised before any encryption or persistence happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid application"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid application: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, seen := e.Fields[field]; !seen {
		e.Fields[field] = msg
	}
}

// Validate checks every section of the application. All failures are
// collected into a single ValidationError so the form layer can surface them
// together.
func (a *Application) Validate() error {
	verr := &ValidationError{}

	a.validateBusiness(verr)
	a.validateBilling(verr)
	a.validateShipping(verr)
	a.validatePayment(verr)

	if a.Signature.Signature == "" {
		verr.add("signature.signature", "digital signature is required")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (a *Application) validateBusiness(verr *ValidationError) {
	b := a.BusinessInfo
	if b.BusinessName == "" {
		verr.add("businessInfo.businessName", "business name is required")
	}
	if !emailPattern.MatchString(b.MainEmail) {
		verr.add("businessInfo.mainEmail", "valid email is required")
	}
	if b.MainContactRep == "" {
		verr.add("businessInfo.mainContactRep", "main contact rep is required")
	}
	if len(b.Phone) < 10 {
		verr.add("businessInfo.phone", "valid phone number is required")
	}
	switch b.BusinessType {
	case "Corp.", "Partnership", "Sole Prop.", "LLC.", "NA":
	default:
		verr.add("businessInfo.businessType", "business type must be one of Corp., Partnership, Sole Prop., LLC., NA")
	}
	if b.YearsInBusiness < 0 {
		verr.add("businessInfo.yearsInBusiness", "years in business must be 0 or greater")
	}
	if !einPattern.MatchString(b.EINNumber) {
		verr.add("businessInfo.einNumber", "EIN must be 9 digits")
	}
	if b.EstimatedAnnualBusiness < 0 {
		verr.add("businessInfo.estimatedAnnualBusiness", "estimated annual business must be 0 or greater")
	}
	if b.AverageOrderSize < 1 {
		verr.add("businessInfo.averageOrderSize", "average order size must be at least 1")
	}
}

func (a *Application) validateBilling(verr *ValidationError) {
	b := a.BillingInfo
	if b.BillingAddress == "" {
		verr.add("billingInfo.billingAddress", "billing address is required")
	}
	if b.BillingCity == "" {
		verr.add("billingInfo.billingCity", "billing city is required")
	}
	if len(b.BillingState) < 2 {
		verr.add("billingInfo.billingState", "billing state is required")
	}
	if len(b.BillingZip) < 5 {
		verr.add("billingInfo.billingZip", "valid zip code is required")
	}
	if b.BillingContact == "" {
		verr.add("billingInfo.billingContact", "billing contact is required")
	}
	if len(b.BillingPhone) < 10 {
		verr.add("billingInfo.billingPhone", "valid billing phone is required")
	}
	if !emailPattern.MatchString(b.BillingEmail) {
		verr.add("billingInfo.billingEmail", "valid billing email is required")
	}
}

func (a *Application) validateShipping(verr *ValidationError) {
	s := a.ShippingInfo
	if s.ShippingAddress == "" {
		verr.add("shippingInfo.shippingAddress", "shipping address is required")
	}
	if s.ShippingCity == "" {
		verr.add("shippingInfo.shippingCity", "shipping city is required")
	}
	if len(s.ShippingState) < 2 {
		verr.add("shippingInfo.shippingState", "shipping state is required")
	}
	if len(s.ShippingZip) < 5 {
		verr.add("shippingInfo.shippingZip", "valid shipping zip is required")
	}
	if s.ShippingContact == "" {
		verr.add("shippingInfo.shippingContact", "shipping contact is required")
	}
	if len(s.ShippingPhone) < 10 {
		verr.add("shippingInfo.shippingPhone", "valid shipping phone is required")
	}
}

func (a *Application) validatePayment(verr *ValidationError) {
	if !a.PaymentMethod.Valid() {
		verr.add("paymentMethod", "payment method must be one of ACH, CC, NET15")
		return
	}

	switch a.PaymentMethod {
	case PaymentMethodACH:
		d := a.PaymentDetails.ACH
		if d == nil {
			verr.add("paymentDetails", "ACH payment details are required")
			return
		}
		if d.AccountHolderName == "" {
			verr.add("paymentDetails.accountHolderName", "account holder name is required")
		}
		if d.AccountType != "CHECKING" && d.AccountType != "SAVINGS" {
			verr.add("paymentDetails.accountType", "account type must be CHECKING or SAVINGS")
		}
		if !routingPattern.MatchString(d.RoutingNumber) {
			verr.add("paymentDetails.routingNumber", "routing number must be 9 digits")
		}
		if len(d.AccountNumber) < 4 {
			verr.add("paymentDetails.accountNumber", "account number is required")
		}
		if !(d.Authorization1 && d.Authorization2 && d.Authorization3) {
			verr.add("paymentDetails.authorizations", "all ACH authorizations must be acknowledged")
		}
	case PaymentMethodCC:
		d := a.PaymentDetails.CC
		if d == nil {
			verr.add("paymentDetails", "credit card payment details are required")
			return
		}
		validateCardFields(verr, d.CardholderName, d.CardType, d.CardNumber, d.ExpirationDate, d.CVCNumber, d.BillingZipCode)
		if !(d.Authorization1 && d.Authorization2 && d.Authorization3 && d.Authorization4) {
			verr.add("paymentDetails.authorizations", "all credit card authorizations must be acknowledged")
		}
	case PaymentMethodNet15:
		d := a.PaymentDetails.Net15
		if d == nil {
			verr.add("paymentDetails", "NET15 payment details are required")
			return
		}
		validateCardFields(verr, d.CardholderName, d.CardType, d.CardNumber, d.ExpirationDate, d.CVCNumber, d.BillingZipCode)
		if !(d.Authorization1 && d.Authorization2 && d.Authorization3 && d.Authorization4 && d.Authorization5) {
			verr.add("paymentDetails.authorizations", "all NET15 authorizations must be acknowledged")
		}
	}
}

func validateCardFields(verr *ValidationError, holder, cardType, number, expiry, cvc, zip string) {
	if holder == "" {
		verr.add("paymentDetails.cardholderName", "cardholder name is required")
	}
	switch cardType {
	case "VISA", "MC", "AMEX", "DISCOVER", "OTHER":
	default:
		verr.add("paymentDetails.cardType", "card type must be one of VISA, MC, AMEX, DISCOVER, OTHER")
	}
	if len(util.DigitsOnly(number)) < 13 {
		verr.add("paymentDetails.cardNumber", "valid card number is required")
	} else if !LuhnValid(number) {
		verr.add("paymentDetails.cardNumber", "card number failed checksum")
	}
	if !expiryPattern.MatchString(expiry) {
		verr.add("paymentDetails.expirationDate", "valid expiration date (MM/YY) is required")
	}
	if len(cvc) < 3 {
		verr.add("paymentDetails.cvcNumber", "CVC is required")
	}
	if len(zip) < 5 {
		verr.add("paymentDetails.billingZipCode", "billing zip code is required")
	}
}

// LuhnValid reports whether the digits of s pass the Luhn checksum. Non-digit
// characters (spaces, dashes) are ignored.
func LuhnValid(s string) bool {
	sum := 0
	double := false
	digits := 0
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		digits++
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return digits > 0 && sum%10 == 0
}
