package models

import "time"

// Status is the review state of a persisted customer record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CustomerRecord is the flat persisted row for one submitted application.
// The encrypted columns are the only post-submission source of the raw EIN
// and the full payment secrets; the last4/type columns are derived once at
// submission time and stored in cleartext for list views.
type CustomerRecord struct {
	ID              string `json:"id" db:"id"`
	BusinessName    string `json:"business_name" db:"business_name"`
	MainEmail       string `json:"main_email" db:"main_email"`
	MainContactRep  string `json:"main_contact_rep" db:"main_contact_rep"`
	Phone           string `json:"phone" db:"phone"`
	ASINumber       string `json:"asi_number" db:"asi_number"`
	BusinessType    string `json:"business_type" db:"business_type"`
	YearsInBusiness int    `json:"years_in_business" db:"years_in_business"`

	EINNumberEncrypted      string  `json:"-" db:"ein_number_encrypted"`
	EstimatedAnnualBusiness float64 `json:"estimated_annual_business" db:"estimated_annual_business"`
	AverageOrderSize        int     `json:"average_order_size" db:"average_order_size"`

	BillingAddress string `json:"billing_address" db:"billing_address"`
	BillingCity    string `json:"billing_city" db:"billing_city"`
	BillingState   string `json:"billing_state" db:"billing_state"`
	BillingZip     string `json:"billing_zip" db:"billing_zip"`
	BillingContact string `json:"billing_contact" db:"billing_contact"`
	BillingPhone   string `json:"billing_phone" db:"billing_phone"`
	BillingEmail   string `json:"billing_email" db:"billing_email"`

	ShippingAddress string `json:"shipping_address" db:"shipping_address"`
	ShippingCity    string `json:"shipping_city" db:"shipping_city"`
	ShippingState   string `json:"shipping_state" db:"shipping_state"`
	ShippingZip     string `json:"shipping_zip" db:"shipping_zip"`
	ShippingContact string `json:"shipping_contact" db:"shipping_contact"`
	ShippingPhone   string `json:"shipping_phone" db:"shipping_phone"`

	PaymentMethod       PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentCardLast4    string        `json:"payment_card_last4" db:"payment_card_last4"`
	PaymentCardType     string        `json:"payment_card_type" db:"payment_card_type"`
	PaymentAccountLast4 string        `json:"payment_account_last4" db:"payment_account_last4"`
	PaymentAccountType  string        `json:"payment_account_type" db:"payment_account_type"`

	PaymentAuthorizationsEncrypted string `json:"-" db:"payment_authorizations_encrypted"`

	SignatureData  string `json:"signature_data" db:"signature_data"`
	ResellerPermit string `json:"reseller_permit" db:"reseller_permit"`

	Status         Status    `json:"status" db:"status"`
	SubmissionDate time.Time `json:"submission_date" db:"submission_date"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ApplicationView is the reconstructed, displayable form of a stored record.
// EINNumber and PaymentDetails are empty when the encrypted columns could not
// be decrypted with the current key; callers treat that as "unavailable",
// never as a missing record.
type ApplicationView struct {
	ID string `json:"id"`

	BusinessInfo BusinessInfo `json:"businessInfo"`
	BillingInfo  BillingInfo  `json:"billingInfo"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`

	PaymentMethod  PaymentMethod  `json:"paymentMethod"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`

	// Digest fields read through verbatim from the record.
	PaymentCardLast4    string `json:"paymentCardLast4"`
	PaymentCardType     string `json:"paymentCardType"`
	PaymentAccountLast4 string `json:"paymentAccountLast4"`
	PaymentAccountType  string `json:"paymentAccountType"`

	SignatureData  string `json:"signatureData"`
	ResellerPermit string `json:"resellerPermit"`

	Status         Status    `json:"status"`
	SubmissionDate time.Time `json:"submissionDate"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// DecryptionFailed is set when either encrypted column was unreadable.
	DecryptionFailed bool `json:"decryptionFailed,omitempty"`
}
