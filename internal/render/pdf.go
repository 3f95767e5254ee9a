package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"onboarding-service/internal/encryption"
	"onboarding-service/internal/models"
	"onboarding-service/internal/util"
)

var ErrRenderFailed = errors.New("render failed")

// Letter-page layout constants. Two fixed columns: business + billing on the
// left, shipping + payment on the right. Values wrap inside the column width.
const (
	pageLeftX     = 50.0
	pageRightX    = 306.0
	columnWidth   = 256.0
	lineHeight    = 12.0
	sectionGap    = 20.0
	signatureMaxW = 200.0
	signatureMaxH = 80.0
)

const signaturePlaceholder = "Signature data not available"

// PDF renders an application view as a fixed-layout letter PDF. masked
// controls whether payment secrets are redacted (customer-facing copy) or
// shown in full (admin download).
func PDF(view *models.ApplicationView, masked bool) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(true, 50)
	doc.AddPage()

	doc.SetFont("Helvetica", "B", 20)
	doc.SetXY(pageLeftX, 50)
	doc.CellFormat(512, 22, "Contract Client Application", "", 0, "C", false, 0, "")

	doc.SetFont("Helvetica", "", 10)
	doc.SetXY(pageLeftX, 75)
	doc.CellFormat(512, 12, "Submitted: "+view.SubmissionDate.Format("Jan 2, 2006 3:04 PM MST"), "", 0, "C", false, 0, "")

	leftY := 110.0
	writeHeading(doc, pageLeftX, &leftY, "Business Information")
	writeField(doc, pageLeftX, &leftY, "Business Name", view.BusinessInfo.BusinessName)
	writeField(doc, pageLeftX, &leftY, "Main Email", view.BusinessInfo.MainEmail)
	writeField(doc, pageLeftX, &leftY, "Contact Rep", view.BusinessInfo.MainContactRep)
	writeField(doc, pageLeftX, &leftY, "Phone", view.BusinessInfo.Phone)
	if view.BusinessInfo.ASINumber != "" {
		writeField(doc, pageLeftX, &leftY, "ASI/PPAI/SAGE #", view.BusinessInfo.ASINumber)
	}
	writeField(doc, pageLeftX, &leftY, "Business Type", view.BusinessInfo.BusinessType)
	writeField(doc, pageLeftX, &leftY, "Years in Business", fmt.Sprintf("%d", view.BusinessInfo.YearsInBusiness))
	writeField(doc, pageLeftX, &leftY, "EIN Number", view.BusinessInfo.EINNumber)
	writeField(doc, pageLeftX, &leftY, "Estimated Annual Business", fmt.Sprintf("$%.2f", view.BusinessInfo.EstimatedAnnualBusiness))
	writeField(doc, pageLeftX, &leftY, "Average Order Size", fmt.Sprintf("%d pieces", view.BusinessInfo.AverageOrderSize))
	leftY += sectionGap - lineHeight

	writeHeading(doc, pageLeftX, &leftY, "Billing Information")
	writeField(doc, pageLeftX, &leftY, "Address", view.BillingInfo.BillingAddress)
	writeLine(doc, pageLeftX, &leftY, fmt.Sprintf("%s, %s %s", view.BillingInfo.BillingCity, view.BillingInfo.BillingState, view.BillingInfo.BillingZip))
	writeField(doc, pageLeftX, &leftY, "Contact", view.BillingInfo.BillingContact)
	writeField(doc, pageLeftX, &leftY, "Phone", view.BillingInfo.BillingPhone)
	writeField(doc, pageLeftX, &leftY, "Email", view.BillingInfo.BillingEmail)

	rightY := 110.0
	writeHeading(doc, pageRightX, &rightY, "Shipping Information")
	writeField(doc, pageRightX, &rightY, "Address", view.ShippingInfo.ShippingAddress)
	writeLine(doc, pageRightX, &rightY, fmt.Sprintf("%s, %s %s", view.ShippingInfo.ShippingCity, view.ShippingInfo.ShippingState, view.ShippingInfo.ShippingZip))
	writeField(doc, pageRightX, &rightY, "Contact", view.ShippingInfo.ShippingContact)
	writeField(doc, pageRightX, &rightY, "Phone", view.ShippingInfo.ShippingPhone)
	rightY += sectionGap - lineHeight

	writeHeading(doc, pageRightX, &rightY, "Payment Information")
	writeField(doc, pageRightX, &rightY, "Payment Method", string(view.PaymentMethod))
	writePaymentDetails(doc, &rightY, view, masked)

	signatureY := leftY
	if rightY > signatureY {
		signatureY = rightY
	}
	signatureY += 30

	doc.SetFont("Helvetica", "B", 10)
	doc.SetXY(pageLeftX, signatureY)
	doc.CellFormat(columnWidth, lineHeight, "Digital Signature:", "", 0, "L", false, 0, "")
	signatureY += 20

	signatureY = embedSignature(doc, view.SignatureData, signatureY)

	doc.SetFont("Helvetica", "", 8)
	doc.SetXY(pageLeftX, signatureY)
	doc.CellFormat(512, 10, "Generated: "+time.Now().UTC().Format(time.RFC1123), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

func writePaymentDetails(doc *fpdf.Fpdf, y *float64, view *models.ApplicationView, masked bool) {
	for _, f := range paymentFields(view, masked) {
		if f.label == "" {
			writeLine(doc, pageRightX, y, f.value)
			continue
		}
		writeField(doc, pageRightX, y, f.label, f.value)
	}
}

type paymentField struct {
	label string
	value string
}

// paymentFields resolves the payment section lines for one view. The masked
// selection lives here, away from the page layout, so the redaction rule is
// a plain string property: masked output carries only digests, unmasked
// carries the full values.
func paymentFields(view *models.ApplicationView, masked bool) []paymentField {
	switch {
	case view.PaymentDetails.ACH != nil:
		d := view.PaymentDetails.ACH
		account := d.AccountNumber
		if masked {
			account = encryption.MaskAccountNumber(d.AccountNumber)
		}
		return []paymentField{
			{"Account Holder", d.AccountHolderName},
			{"Account Type", d.AccountType},
			{"Routing Number", d.RoutingNumber},
			{"Account Number", account},
		}
	case view.PaymentDetails.CC != nil:
		d := view.PaymentDetails.CC
		return cardFields(d.CardholderName, d.CardType, d.CardNumber, d.ExpirationDate, d.CVCNumber, d.BillingZipCode, masked)
	case view.PaymentDetails.Net15 != nil:
		d := view.PaymentDetails.Net15
		return cardFields(d.CardholderName, d.CardType, d.CardNumber, d.ExpirationDate, d.CVCNumber, d.BillingZipCode, masked)
	default:
		// Decryption unavailable: fall back to the cleartext digests.
		var fields []paymentField
		if view.PaymentAccountLast4 != "" {
			fields = append(fields,
				paymentField{"Account Number", "****" + view.PaymentAccountLast4},
				paymentField{"Account Type", view.PaymentAccountType})
		} else if view.PaymentCardLast4 != "" {
			fields = append(fields,
				paymentField{"Card Number", "**** **** **** " + view.PaymentCardLast4},
				paymentField{"Card Type", view.PaymentCardType})
		}
		return append(fields, paymentField{"", "Full payment details unavailable"})
	}
}

func cardFields(holder, cardType, number, expiry, cvc, zip string, masked bool) []paymentField {
	display := number
	cvcDisplay := cvc
	if masked {
		display = encryption.MaskCardNumber(number)
		cvcDisplay = "***"
	}
	return []paymentField{
		{"Cardholder Name", holder},
		{"Card Type", cardType},
		{"Card Number", display},
		{"Expiration", expiry},
		{"CVC", cvcDisplay},
		{"Billing Zip", zip},
	}
}

func writeHeading(doc *fpdf.Fpdf, x float64, y *float64, title string) {
	doc.SetFont("Helvetica", "B", 12)
	doc.SetXY(x, *y)
	doc.CellFormat(columnWidth, 14, title, "", 0, "L", false, 0, "")
	*y += sectionGap
	doc.SetFont("Helvetica", "", 9)
}

func writeField(doc *fpdf.Fpdf, x float64, y *float64, label, value string) {
	writeLine(doc, x, y, label+": "+value)
}

// writeLine emits one wrapped line inside the fixed column width and advances
// the caller's y cursor past however many lines it took.
func writeLine(doc *fpdf.Fpdf, x float64, y *float64, text string) {
	doc.SetFont("Helvetica", "", 9)
	doc.SetXY(x, *y)
	doc.MultiCell(columnWidth, lineHeight, text, "", "L", false)
	*y = doc.GetY()
}

// embedSignature draws the stored signature image at a fixed scale, or a
// textual placeholder when the data URL is absent or undecodable. A bad
// signature is a data-quality issue, never a render failure.
func embedSignature(doc *fpdf.Fpdf, dataURL string, y float64) float64 {
	img, imageType, ok := decodeSignature(dataURL)
	if !ok {
		doc.SetFont("Helvetica", "", 9)
		doc.SetXY(pageLeftX, y)
		doc.CellFormat(columnWidth, lineHeight, signaturePlaceholder, "", 0, "L", false, 0, "")
		return y + 15
	}

	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	doc.RegisterImageOptionsReader("signature", opts, bytes.NewReader(img))
	doc.ImageOptions("signature", pageLeftX, y, signatureMaxW, signatureMaxH, false, opts, 0, "")
	return y + signatureMaxH + 10
}

// decodeSignature parses a data-URL signature into raw image bytes. The bytes
// are verified with an image decode first so a corrupt payload cannot poison
// the document builder.
func decodeSignature(dataURL string) ([]byte, string, bool) {
	if !strings.HasPrefix(dataURL, "data:image") {
		return nil, "", false
	}

	idx := strings.Index(dataURL, ",")
	if idx < 0 {
		return nil, "", false
	}

	raw, err := base64.StdEncoding.DecodeString(dataURL[idx+1:])
	if err != nil {
		util.Warn("Signature data URL is not valid base64", util.ErrorField(err))
		return nil, "", false
	}

	_, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		util.Warn("Signature image failed to decode", util.ErrorField(err))
		return nil, "", false
	}

	switch format {
	case "png":
		return raw, "PNG", true
	case "jpeg":
		return raw, "JPG", true
	}
	return nil, "", false
}
