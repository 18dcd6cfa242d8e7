// Package pii defines the closed PII kind taxonomy and the Detection
// value type shared by every detector, fusion, and the audit trail.
package pii

// Kind is a closed enumeration of PII categories. Each has a stable string
// tag used in profiles, logs, and on-wire audit records.
type Kind string

const (
	// Visual kinds: produced by a raster-only detector.
	KindFace             Kind = "face"
	KindSignature        Kind = "signature"
	KindBarcode          Kind = "barcode"
	KindQRCode           Kind = "qr_code"
	KindPhotoIDPortrait  Kind = "photo_id_portrait"

	// Textual kinds: produced from a text layer or OCR.
	KindPersonName          Kind = "person_name"
	KindEmail               Kind = "email"
	KindPhone               Kind = "phone"
	KindPostalAddress       Kind = "postal_address"
	KindNationalID          Kind = "national_id"
	KindMedicalRecordNumber Kind = "medical_record_number"
	KindFinancialAccount    Kind = "financial_account"
	KindDateOfBirth         Kind = "date_of_birth"
	KindIPAddress           Kind = "ip_address"
	KindLicensePlate        Kind = "license_plate"
)

var visualKinds = map[Kind]bool{
	KindFace:            true,
	KindSignature:       true,
	KindBarcode:         true,
	KindQRCode:          true,
	KindPhotoIDPortrait: true,
}

var textualKinds = map[Kind]bool{
	KindPersonName:          true,
	KindEmail:               true,
	KindPhone:               true,
	KindPostalAddress:       true,
	KindNationalID:          true,
	KindMedicalRecordNumber: true,
	KindFinancialAccount:    true,
	KindDateOfBirth:         true,
	KindIPAddress:           true,
	KindLicensePlate:        true,
}

// IsVisual reports whether k belongs to the visual group.
func (k Kind) IsVisual() bool { return visualKinds[k] }

// IsTextual reports whether k belongs to the textual group.
func (k Kind) IsTextual() bool { return textualKinds[k] }

// Known reports whether k is a recognized tag in either group.
func (k Kind) Known() bool { return visualKinds[k] || textualKinds[k] }

// AllKinds returns every recognized kind, visual then textual, in a
// stable declaration order. Profile validation checks kinds with Known,
// not with this list.
func AllKinds() []Kind {
	return []Kind{
		KindFace, KindSignature, KindBarcode, KindQRCode, KindPhotoIDPortrait,
		KindPersonName, KindEmail, KindPhone, KindPostalAddress, KindNationalID,
		KindMedicalRecordNumber, KindFinancialAccount, KindDateOfBirth,
		KindIPAddress, KindLicensePlate,
	}
}
