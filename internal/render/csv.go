package render

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"onboarding-service/internal/models"
)

// exportColumns is the fixed header for CSV export. Method-specific columns
// are present for every row; rows leave the other method's columns empty.
var exportColumns = []string{
	"ID",
	"Business Name",
	"Main Email",
	"Main Contact Rep",
	"Phone",
	"ASI/PPAI/SAGE #",
	"Business Type",
	"Years in Business",
	"EIN Number",
	"Estimated Annual Business",
	"Average Order Size",
	"Billing Address",
	"Billing City",
	"Billing State",
	"Billing Zip",
	"Billing Contact",
	"Billing Phone",
	"Billing Email",
	"Shipping Address",
	"Shipping City",
	"Shipping State",
	"Shipping Zip",
	"Shipping Contact",
	"Shipping Phone",
	"Payment Method",
	"Payment Card Last 4",
	"Payment Card Type",
	"Payment Account Last 4",
	"Payment Account Type",
	"Account Holder Name",
	"Account Type",
	"Routing Number",
	"Account Number",
	"Cardholder Name",
	"Card Type",
	"Card Number",
	"Expiration Date",
	"CVC Number",
	"Billing Zip Code",
	"Status",
	"Submission Date",
	"Created At",
	"Updated At",
}

// Row flattens a view into export column order. Decrypted payment fields are
// included when available; rows whose ciphertext was unreadable carry only
// the digest columns.
func Row(view *models.ApplicationView) []string {
	byName := map[string]string{
		"ID":                        view.ID,
		"Business Name":             view.BusinessInfo.BusinessName,
		"Main Email":                view.BusinessInfo.MainEmail,
		"Main Contact Rep":          view.BusinessInfo.MainContactRep,
		"Phone":                     view.BusinessInfo.Phone,
		"ASI/PPAI/SAGE #":           view.BusinessInfo.ASINumber,
		"Business Type":             view.BusinessInfo.BusinessType,
		"Years in Business":         fmt.Sprintf("%d", view.BusinessInfo.YearsInBusiness),
		"EIN Number":                view.BusinessInfo.EINNumber,
		"Estimated Annual Business": fmt.Sprintf("%.2f", view.BusinessInfo.EstimatedAnnualBusiness),
		"Average Order Size":        fmt.Sprintf("%d", view.BusinessInfo.AverageOrderSize),
		"Billing Address":           view.BillingInfo.BillingAddress,
		"Billing City":              view.BillingInfo.BillingCity,
		"Billing State":             view.BillingInfo.BillingState,
		"Billing Zip":               view.BillingInfo.BillingZip,
		"Billing Contact":           view.BillingInfo.BillingContact,
		"Billing Phone":             view.BillingInfo.BillingPhone,
		"Billing Email":             view.BillingInfo.BillingEmail,
		"Shipping Address":          view.ShippingInfo.ShippingAddress,
		"Shipping City":             view.ShippingInfo.ShippingCity,
		"Shipping State":            view.ShippingInfo.ShippingState,
		"Shipping Zip":              view.ShippingInfo.ShippingZip,
		"Shipping Contact":          view.ShippingInfo.ShippingContact,
		"Shipping Phone":            view.ShippingInfo.ShippingPhone,
		"Payment Method":            string(view.PaymentMethod),
		"Payment Card Last 4":       view.PaymentCardLast4,
		"Payment Card Type":         view.PaymentCardType,
		"Payment Account Last 4":    view.PaymentAccountLast4,
		"Payment Account Type":      view.PaymentAccountType,
		"Status":                    string(view.Status),
		"Submission Date":           view.SubmissionDate.UTC().Format("2006-01-02T15:04:05Z"),
		"Created At":                view.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		"Updated At":                view.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}

	switch {
	case view.PaymentDetails.ACH != nil:
		d := view.PaymentDetails.ACH
		byName["Account Holder Name"] = d.AccountHolderName
		byName["Account Type"] = d.AccountType
		byName["Routing Number"] = d.RoutingNumber
		byName["Account Number"] = d.AccountNumber
	case view.PaymentDetails.CC != nil:
		d := view.PaymentDetails.CC
		byName["Cardholder Name"] = d.CardholderName
		byName["Card Type"] = d.CardType
		byName["Card Number"] = d.CardNumber
		byName["Expiration Date"] = d.ExpirationDate
		byName["CVC Number"] = d.CVCNumber
		byName["Billing Zip Code"] = d.BillingZipCode
	case view.PaymentDetails.Net15 != nil:
		d := view.PaymentDetails.Net15
		byName["Cardholder Name"] = d.CardholderName
		byName["Card Type"] = d.CardType
		byName["Card Number"] = d.CardNumber
		byName["Expiration Date"] = d.ExpirationDate
		byName["CVC Number"] = d.CVCNumber
		byName["Billing Zip Code"] = d.BillingZipCode
	}

	row := make([]string, len(exportColumns))
	for i, col := range exportColumns {
		row[i] = byName[col]
	}
	return row
}

// CSV serializes views into one CSV document with the fixed export header.
func CSV(views []*models.ApplicationView) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	for _, view := range views {
		if err := w.Write(Row(view)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// JSON serializes views as an indented JSON export document.
func JSON(views []*models.ApplicationView) ([]byte, error) {
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return data, nil
}
