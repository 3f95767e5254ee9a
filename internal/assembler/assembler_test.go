package assembler

import (
	"bytes"
	"testing"

	"onboarding-service/internal/encryption"
	"onboarding-service/internal/models"
)

func newTestAssembler(t *testing.T) *Assembler {
	t.Helper()
	cipher, err := encryption.NewFieldCipher(bytes.Repeat([]byte{0x17}, encryption.KeySize))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}
	return New(cipher)
}

func ccApplication() *models.Application {
	return &models.Application{
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
				Authorization1: true,
				Authorization2: true,
				Authorization3: true,
				Authorization4: true,
			},
		},
		Signature:      models.Signature{Signature: "data:image/png;base64,aGk="},
		ResellerPermit: "data:application/pdf;base64,cGVybWl0",
	}
}

func achApplication() *models.Application {
	app := ccApplication()
	app.PaymentMethod = models.PaymentMethodACH
	app.PaymentDetails = models.PaymentDetails{
		ACH: &models.ACHDetails{
			AccountHolderName: "Acme Promotions",
			AccountType:       "CHECKING",
			RoutingNumber:     "021000021",
			AccountNumber:     "000123456789",
			Authorization1:    true,
			Authorization2:    true,
			Authorization3:    true,
		},
	}
	return app
}

func net15Application() *models.Application {
	app := ccApplication()
	app.PaymentMethod = models.PaymentMethodNet15
	app.PaymentDetails = models.PaymentDetails{
		Net15: &models.Net15Details{
			CardholderName: "Dana Smith",
			CardType:       "AMEX",
			CardNumber:     "378282246310005",
			ExpirationDate: "06/28",
			CVCNumber:      "1234",
			BillingZipCode: "62701",
			Authorization1: true,
			Authorization2: true,
			Authorization3: true,
			Authorization4: true,
			Authorization5: true,
		},
	}
	return app
}

func TestToRecordEncryptsSecrets(t *testing.T) {
	asm := newTestAssembler(t)
	app := ccApplication()

	rec, err := asm.ToRecord(app)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.ID == "" {
		t.Error("record id not assigned")
	}
	if rec.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", rec.Status)
	}
	if rec.EINNumberEncrypted == "" || rec.EINNumberEncrypted == app.BusinessInfo.EINNumber {
		t.Error("EIN not encrypted")
	}
	if rec.PaymentAuthorizationsEncrypted == "" ||
		bytes.Contains([]byte(rec.PaymentAuthorizationsEncrypted), []byte("4242424242424242")) {
		t.Error("payment details not encrypted")
	}
	if rec.PaymentCardLast4 != "4242" || rec.PaymentCardType != "VISA" {
		t.Errorf("card digest = %q/%q", rec.PaymentCardLast4, rec.PaymentCardType)
	}
	if rec.PaymentAccountLast4 != "" || rec.PaymentAccountType != "" {
		t.Error("account digest should be empty for a card payment")
	}
	if rec.SubmissionDate.IsZero() || rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestToRecordACHDigests(t *testing.T) {
	asm := newTestAssembler(t)

	rec, err := asm.ToRecord(achApplication())
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	if rec.PaymentAccountLast4 != "6789" || rec.PaymentAccountType != "CHECKING" {
		t.Errorf("account digest = %q/%q", rec.PaymentAccountLast4, rec.PaymentAccountType)
	}
	if rec.PaymentCardLast4 != "" || rec.PaymentCardType != "" {
		t.Error("card digest should be empty for an ACH payment")
	}
}

func TestToRecordRequiresPaymentDetails(t *testing.T) {
	asm := newTestAssembler(t)
	app := ccApplication()
	app.PaymentDetails = models.PaymentDetails{}

	if _, err := asm.ToRecord(app); err == nil {
		t.Error("ToRecord accepted an application with no payment details")
	}
}

func TestToRecordSanitizesFreeText(t *testing.T) {
	asm := newTestAssembler(t)
	app := ccApplication()
	app.BusinessInfo.BusinessName = "  <script>Acme</script>  "

	rec, err := asm.ToRecord(app)
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	if bytes.Contains([]byte(rec.BusinessName), []byte("<script>")) {
		t.Errorf("business name not sanitized: %q", rec.BusinessName)
	}
}

func TestRoundTripAllVariants(t *testing.T) {
	asm := newTestAssembler(t)

	tests := []struct {
		name string
		app  *models.Application
	}{
		{name: "credit card", app: ccApplication()},
		{name: "ach", app: achApplication()},
		{name: "net15", app: net15Application()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := asm.ToRecord(tt.app)
			if err != nil {
				t.Fatalf("ToRecord: %v", err)
			}

			view := asm.ToView(rec)
			if view.DecryptionFailed {
				t.Fatal("DecryptionFailed set on a freshly assembled record")
			}
			if view.ID != rec.ID {
				t.Errorf("view id = %q, want %q", view.ID, rec.ID)
			}
			if view.BusinessInfo.EINNumber != tt.app.BusinessInfo.EINNumber {
				t.Errorf("EIN = %q, want %q", view.BusinessInfo.EINNumber, tt.app.BusinessInfo.EINNumber)
			}
			if view.SignatureData != tt.app.Signature.Signature {
				t.Errorf("signature = %q", view.SignatureData)
			}
			if view.ResellerPermit != tt.app.ResellerPermit {
				t.Errorf("reseller permit = %q", view.ResellerPermit)
			}

			switch tt.app.PaymentMethod {
			case models.PaymentMethodACH:
				got, want := view.PaymentDetails.ACH, tt.app.PaymentDetails.ACH
				if got == nil {
					t.Fatal("ACH details missing from view")
				}
				if *got != *want {
					t.Errorf("ACH details = %+v, want %+v", *got, *want)
				}
			case models.PaymentMethodCC:
				got, want := view.PaymentDetails.CC, tt.app.PaymentDetails.CC
				if got == nil {
					t.Fatal("CC details missing from view")
				}
				if *got != *want {
					t.Errorf("CC details = %+v, want %+v", *got, *want)
				}
			case models.PaymentMethodNet15:
				got, want := view.PaymentDetails.Net15, tt.app.PaymentDetails.Net15
				if got == nil {
					t.Fatal("NET15 details missing from view")
				}
				if *got != *want {
					t.Errorf("NET15 details = %+v, want %+v", *got, *want)
				}
			}
		})
	}
}

func TestToViewDegradesOnUnreadableCiphertext(t *testing.T) {
	asm := newTestAssembler(t)

	rec, err := asm.ToRecord(ccApplication())
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}

	// Simulate a record written under a key we no longer hold.
	otherCipher, err := encryption.NewFieldCipher(bytes.Repeat([]byte{0x99}, encryption.KeySize))
	if err != nil {
		t.Fatalf("NewFieldCipher: %v", err)
	}
	rec.EINNumberEncrypted, err = otherCipher.Encrypt("123456789")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	view := asm.ToView(rec)
	if !view.DecryptionFailed {
		t.Error("DecryptionFailed not set for unreadable EIN")
	}
	if view.BusinessInfo.EINNumber != "" {
		t.Errorf("EIN should be empty on decryption failure, got %q", view.BusinessInfo.EINNumber)
	}
	// Cleartext columns still come through.
	if view.BusinessInfo.BusinessName != rec.BusinessName {
		t.Error("cleartext fields missing from degraded view")
	}
	if view.PaymentCardLast4 != "4242" {
		t.Errorf("digest should survive decryption failure, got %q", view.PaymentCardLast4)
	}
	// The other encrypted column was readable, so payment details survive.
	if view.PaymentDetails.CC == nil {
		t.Error("readable payment details should still decrypt")
	}
}

func TestToViewDegradesOnCorruptPaymentBlob(t *testing.T) {
	asm := newTestAssembler(t)

	rec, err := asm.ToRecord(ccApplication())
	if err != nil {
		t.Fatalf("ToRecord: %v", err)
	}
	rec.PaymentAuthorizationsEncrypted = "not-even-base64"

	view := asm.ToView(rec)
	if !view.DecryptionFailed {
		t.Error("DecryptionFailed not set for corrupt payment blob")
	}
	if view.PaymentDetails.Variant() != nil {
		t.Error("payment details should be empty on decryption failure")
	}
}
