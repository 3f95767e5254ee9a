package render

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"onboarding-service/internal/models"
)

func ccView() *models.ApplicationView {
	submitted := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return &models.ApplicationView{
		ID: "7f9c3a10-1111-2222-3333-444455556666",
		BusinessInfo: models.BusinessInfo{
			BusinessName:            "Acme Promotions",
			MainEmail:               "owner@acmepromo.com",
			MainContactRep:          "Dana Smith",
			Phone:                   "5551234567",
			BusinessType:            "LLC.",
			YearsInBusiness:         5,
			EINNumber:               "123456789",
			EstimatedAnnualBusiness: 50000,
			AverageOrderSize:        250,
		},
		BillingInfo: models.BillingInfo{
			BillingAddress: "100 Main St",
			BillingCity:    "Springfield",
			BillingState:   "IL",
			BillingZip:     "62701",
			BillingContact: "Dana Smith",
			BillingPhone:   "5551234567",
			BillingEmail:   "billing@acmepromo.com",
		},
		ShippingInfo: models.ShippingInfo{
			ShippingAddress: "200 Warehouse Rd",
			ShippingCity:    "Springfield",
			ShippingState:   "IL",
			ShippingZip:     "62702",
			ShippingContact: "Pat Jones",
			ShippingPhone:   "5559876543",
		},
		PaymentMethod: models.PaymentMethodCC,
		PaymentDetails: models.PaymentDetails{
			CC: &models.CCDetails{
				CardholderName: "Dana Smith",
				CardType:       "VISA",
				CardNumber:     "4242424242424242",
				ExpirationDate: "12/27",
				CVCNumber:      "123",
				BillingZipCode: "62701",
			},
		},
		PaymentCardLast4: "4242",
		PaymentCardType:  "VISA",
		Status:           models.StatusPending,
		SubmissionDate:   submitted,
		CreatedAt:        submitted,
		UpdatedAt:        submitted,
	}
}

func achView() *models.ApplicationView {
	view := ccView()
	view.PaymentMethod = models.PaymentMethodACH
	view.PaymentDetails = models.PaymentDetails{
		ACH: &models.ACHDetails{
			AccountHolderName: "Acme Promotions",
			AccountType:       "CHECKING",
			RoutingNumber:     "021000021",
			AccountNumber:     "000123456789",
		},
	}
	view.PaymentCardLast4 = ""
	view.PaymentCardType = ""
	view.PaymentAccountLast4 = "6789"
	view.PaymentAccountType = "CHECKING"
	return view
}

func TestPDFProducesDocument(t *testing.T) {
	for _, masked := range []bool{true, false} {
		data, err := PDF(ccView(), masked)
		if err != nil {
			t.Fatalf("PDF(masked=%v): %v", masked, err)
		}
		if !bytes.HasPrefix(data, []byte("%PDF")) {
			t.Errorf("PDF(masked=%v) output missing PDF header", masked)
		}
		if len(data) < 1000 {
			t.Errorf("PDF(masked=%v) suspiciously small: %d bytes", masked, len(data))
		}
	}
}

func TestPDFHandlesAllVariants(t *testing.T) {
	net15 := ccView()
	net15.PaymentMethod = models.PaymentMethodNet15
	net15.PaymentDetails = models.PaymentDetails{
		Net15: &models.Net15Details{
			CardholderName: "Dana Smith",
			CardType:       "AMEX",
			CardNumber:     "378282246310005",
			ExpirationDate: "06/28",
			CVCNumber:      "1234",
			BillingZipCode: "62701",
		},
	}

	for _, view := range []*models.ApplicationView{ccView(), achView(), net15} {
		if _, err := PDF(view, true); err != nil {
			t.Errorf("PDF for %s: %v", view.PaymentMethod, err)
		}
	}
}

func TestPaymentFieldsMasking(t *testing.T) {
	joined := func(fields []paymentField) string {
		var b strings.Builder
		for _, f := range fields {
			b.WriteString(f.label + ": " + f.value + "\n")
		}
		return b.String()
	}

	t.Run("masked card", func(t *testing.T) {
		out := joined(paymentFields(ccView(), true))
		if !strings.Contains(out, "Card Number: **** **** **** 4242") {
			t.Errorf("masked output missing redacted card number:\n%s", out)
		}
		if !strings.Contains(out, "CVC: ***") {
			t.Errorf("masked output missing redacted CVC:\n%s", out)
		}
		if strings.Contains(out, "4242424242424242") {
			t.Errorf("masked output carries the full card number:\n%s", out)
		}
		if strings.Contains(out, "CVC: 123") {
			t.Errorf("masked output carries the CVC:\n%s", out)
		}
	})

	t.Run("unmasked card", func(t *testing.T) {
		out := joined(paymentFields(ccView(), false))
		if !strings.Contains(out, "Card Number: 4242424242424242") {
			t.Errorf("unmasked output missing the full card number:\n%s", out)
		}
		if !strings.Contains(out, "CVC: 123") {
			t.Errorf("unmasked output missing the CVC:\n%s", out)
		}
	})

	t.Run("masked ach", func(t *testing.T) {
		out := joined(paymentFields(achView(), true))
		if !strings.Contains(out, "Account Number: ****6789") {
			t.Errorf("masked output missing redacted account number:\n%s", out)
		}
		if strings.Contains(out, "000123456789") {
			t.Errorf("masked output carries the full account number:\n%s", out)
		}
	})

	t.Run("unmasked ach", func(t *testing.T) {
		out := joined(paymentFields(achView(), false))
		if !strings.Contains(out, "Account Number: 000123456789") {
			t.Errorf("unmasked output missing the full account number:\n%s", out)
		}
	})

	t.Run("degraded view falls back to digests", func(t *testing.T) {
		view := ccView()
		view.PaymentDetails = models.PaymentDetails{}
		out := joined(paymentFields(view, false))
		if !strings.Contains(out, "Card Number: **** **** **** 4242") {
			t.Errorf("degraded output missing digest fallback:\n%s", out)
		}
		if !strings.Contains(out, "Full payment details unavailable") {
			t.Errorf("degraded output missing notice:\n%s", out)
		}
	})
}

func TestPDFToleratesDegradedView(t *testing.T) {
	view := ccView()
	view.PaymentDetails = models.PaymentDetails{}
	view.BusinessInfo.EINNumber = ""
	view.DecryptionFailed = true

	data, err := PDF(view, true)
	if err != nil {
		t.Fatalf("PDF on degraded view: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Error("degraded view output missing PDF header")
	}
}

func TestPDFToleratesCorruptSignature(t *testing.T) {
	view := ccView()
	view.SignatureData = "data:image/png;base64,!!!corrupt!!!"

	if _, err := PDF(view, true); err != nil {
		t.Errorf("PDF with corrupt signature: %v", err)
	}
}

func TestCSVExport(t *testing.T) {
	data, err := CSV([]*models.ApplicationView{ccView(), achView()})
	if err != nil {
		t.Fatalf("CSV: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(records))
	}

	header := records[0]
	if len(header) != len(exportColumns) {
		t.Errorf("header has %d columns, want %d", len(header), len(exportColumns))
	}

	index := func(name string) int {
		for i, col := range header {
			if col == name {
				return i
			}
		}
		t.Fatalf("column %q missing from header", name)
		return -1
	}

	ccRow, achRow := records[1], records[2]
	if got := ccRow[index("Card Number")]; got != "4242424242424242" {
		t.Errorf("cc Card Number = %q", got)
	}
	if got := ccRow[index("Routing Number")]; got != "" {
		t.Errorf("cc row should leave ACH columns empty, got %q", got)
	}
	if got := achRow[index("Routing Number")]; got != "021000021" {
		t.Errorf("ach Routing Number = %q", got)
	}
	if got := achRow[index("Card Number")]; got != "" {
		t.Errorf("ach row should leave card columns empty, got %q", got)
	}
	if got := ccRow[index("EIN Number")]; got != "123456789" {
		t.Errorf("EIN = %q", got)
	}
	if got := ccRow[index("Submission Date")]; got != "2026-03-14T10:30:00Z" {
		t.Errorf("Submission Date = %q", got)
	}
}

func TestJSONExport(t *testing.T) {
	data, err := JSON([]*models.ApplicationView{achView()})
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, `"routingNumber": "021000021"`) {
		t.Errorf("JSON export missing decrypted payment details: %s", out)
	}
	if !strings.Contains(out, `"status": "pending"`) {
		t.Errorf("JSON export missing status: %s", out)
	}
}
