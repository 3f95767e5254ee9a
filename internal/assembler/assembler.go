package assembler

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"onboarding-service/internal/encryption"
	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

// Assembler maps validated applications to persisted customer records and
// reconstructs displayable views from stored rows. It owns the only code
// paths that touch the field cipher.
type Assembler struct {
	cipher *encryption.FieldCipher
}

func New(cipher *encryption.FieldCipher) *Assembler {
	return &Assembler{cipher: cipher}
}

// ToRecord builds the flat persisted record for a validated application: the
// last4/type digests are computed from the active payment variant, the EIN
// and the serialized variant are encrypted, and the record starts in pending
// status with all timestamps at submission time. ToRecord does not persist.
func (a *Assembler) ToRecord(app *models.Application) (*models.CustomerRecord, error) {
	variant := app.PaymentDetails.Variant()
	if variant == nil {
		return nil, fmt.Errorf("assembler: application has no payment details")
	}

	// Free-text fields are sanitized on the way in; structured fields
	// (emails, numbers, data URLs) are stored as validated.
	rec := &models.CustomerRecord{
		ID:              uuid.New().String(),
		BusinessName:    util.SanitizeInput(app.BusinessInfo.BusinessName),
		MainEmail:       app.BusinessInfo.MainEmail,
		MainContactRep:  util.SanitizeInput(app.BusinessInfo.MainContactRep),
		Phone:           app.BusinessInfo.Phone,
		ASINumber:       util.SanitizeInput(app.BusinessInfo.ASINumber),
		BusinessType:    app.BusinessInfo.BusinessType,
		YearsInBusiness: app.BusinessInfo.YearsInBusiness,

		EstimatedAnnualBusiness: app.BusinessInfo.EstimatedAnnualBusiness,
		AverageOrderSize:        app.BusinessInfo.AverageOrderSize,

		BillingAddress: util.SanitizeInput(app.BillingInfo.BillingAddress),
		BillingCity:    util.SanitizeInput(app.BillingInfo.BillingCity),
		BillingState:   util.SanitizeInput(app.BillingInfo.BillingState),
		BillingZip:     util.SanitizeInput(app.BillingInfo.BillingZip),
		BillingContact: util.SanitizeInput(app.BillingInfo.BillingContact),
		BillingPhone:   app.BillingInfo.BillingPhone,
		BillingEmail:   app.BillingInfo.BillingEmail,

		ShippingAddress: util.SanitizeInput(app.ShippingInfo.ShippingAddress),
		ShippingCity:    util.SanitizeInput(app.ShippingInfo.ShippingCity),
		ShippingState:   util.SanitizeInput(app.ShippingInfo.ShippingState),
		ShippingZip:     util.SanitizeInput(app.ShippingInfo.ShippingZip),
		ShippingContact: util.SanitizeInput(app.ShippingInfo.ShippingContact),
		ShippingPhone:   app.ShippingInfo.ShippingPhone,

		PaymentMethod:  app.PaymentMethod,
		SignatureData:  app.Signature.Signature,
		ResellerPermit: app.ResellerPermit,
		Status:         models.StatusPending,
	}

	// Digest fields: derived exactly once, here.
	switch app.PaymentMethod {
	case models.PaymentMethodACH:
		rec.PaymentAccountLast4 = encryption.LastFour(app.PaymentDetails.ACH.AccountNumber)
		rec.PaymentAccountType = app.PaymentDetails.ACH.AccountType
	case models.PaymentMethodCC:
		rec.PaymentCardLast4 = encryption.LastFour(app.PaymentDetails.CC.CardNumber)
		rec.PaymentCardType = app.PaymentDetails.CC.CardType
	case models.PaymentMethodNet15:
		rec.PaymentCardLast4 = encryption.LastFour(app.PaymentDetails.Net15.CardNumber)
		rec.PaymentCardType = app.PaymentDetails.Net15.CardType
	default:
		return nil, fmt.Errorf("assembler: unknown payment method %q", app.PaymentMethod)
	}

	einCiphertext, err := a.cipher.Encrypt(app.BusinessInfo.EINNumber)
	if err != nil {
		return nil, fmt.Errorf("assembler: encrypt EIN: %w", err)
	}
	rec.EINNumberEncrypted = einCiphertext

	serialized, err := json.Marshal(variant)
	if err != nil {
		return nil, fmt.Errorf("assembler: serialize payment details: %w", err)
	}
	authCiphertext, err := a.cipher.Encrypt(string(serialized))
	if err != nil {
		return nil, fmt.Errorf("assembler: encrypt payment details: %w", err)
	}
	rec.PaymentAuthorizationsEncrypted = authCiphertext

	now := time.Now().UTC()
	rec.SubmissionDate = now
	rec.CreatedAt = now
	rec.UpdatedAt = now

	return rec, nil
}

// ToView reconstructs the structured application view from a stored record.
// Unreadable ciphertext degrades to empty decrypted fields with
// DecryptionFailed set; ToView itself never fails and never mutates rec.
// Digest fields pass through verbatim. Records predating the reseller-permit
// column read as an empty permit.
func (a *Assembler) ToView(rec *models.CustomerRecord) *models.ApplicationView {
	view := a.ToSummary(rec)

	if rec.EINNumberEncrypted != "" {
		ein, err := a.cipher.Decrypt(rec.EINNumberEncrypted)
		if err != nil {
			a.logDecryptFailure(rec.ID, "ein_number_encrypted", err)
			view.DecryptionFailed = true
		} else {
			view.BusinessInfo.EINNumber = ein
		}
	}

	if rec.PaymentAuthorizationsEncrypted != "" {
		serialized, err := a.cipher.Decrypt(rec.PaymentAuthorizationsEncrypted)
		if err != nil {
			a.logDecryptFailure(rec.ID, "payment_authorizations_encrypted", err)
			view.DecryptionFailed = true
		} else if details, derr := models.DecodePaymentDetails(rec.PaymentMethod, []byte(serialized)); derr != nil {
			util.Warn("Stored payment details failed to parse",
				util.String("customer_id", rec.ID),
				util.ErrorField(derr),
			)
			view.DecryptionFailed = true
		} else {
			view.PaymentDetails = details
		}
	}

	return view
}

// ToSummary builds the digest-only view of a stored record: everything ToView
// returns except the decrypted EIN and payment details. This is what list and
// search responses carry, so browsing the dashboard never moves secrets.
func (a *Assembler) ToSummary(rec *models.CustomerRecord) *models.ApplicationView {
	return &models.ApplicationView{
		ID: rec.ID,
		BusinessInfo: models.BusinessInfo{
			BusinessName:            rec.BusinessName,
			MainEmail:               rec.MainEmail,
			MainContactRep:          rec.MainContactRep,
			Phone:                   rec.Phone,
			ASINumber:               rec.ASINumber,
			BusinessType:            rec.BusinessType,
			YearsInBusiness:         rec.YearsInBusiness,
			EstimatedAnnualBusiness: rec.EstimatedAnnualBusiness,
			AverageOrderSize:        rec.AverageOrderSize,
		},
		BillingInfo: models.BillingInfo{
			BillingAddress: rec.BillingAddress,
			BillingCity:    rec.BillingCity,
			BillingState:   rec.BillingState,
			BillingZip:     rec.BillingZip,
			BillingContact: rec.BillingContact,
			BillingPhone:   rec.BillingPhone,
			BillingEmail:   rec.BillingEmail,
		},
		ShippingInfo: models.ShippingInfo{
			ShippingAddress: rec.ShippingAddress,
			ShippingCity:    rec.ShippingCity,
			ShippingState:   rec.ShippingState,
			ShippingZip:     rec.ShippingZip,
			ShippingContact: rec.ShippingContact,
			ShippingPhone:   rec.ShippingPhone,
		},
		PaymentMethod:       rec.PaymentMethod,
		PaymentCardLast4:    rec.PaymentCardLast4,
		PaymentCardType:     rec.PaymentCardType,
		PaymentAccountLast4: rec.PaymentAccountLast4,
		PaymentAccountType:  rec.PaymentAccountType,
		SignatureData:       rec.SignatureData,
		ResellerPermit:      rec.ResellerPermit,
		Status:              rec.Status,
		SubmissionDate:      rec.SubmissionDate,
		CreatedAt:           rec.CreatedAt,
		UpdatedAt:           rec.UpdatedAt,
	}
}

func (a *Assembler) logDecryptFailure(recordID, column string, err error) {
	if errors.Is(err, encryption.ErrDecryptionFailed) {
		util.Warn("Encrypted column unreadable with current key",
			util.String("customer_id", recordID),
			util.String("column", column),
		)
		return
	}
	util.Error("Unexpected decryption failure",
		util.String("customer_id", recordID),
		util.String("column", column),
		util.ErrorField(err),
	)
}
