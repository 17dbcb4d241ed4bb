package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxpayerKind distinguishes individuals from companies.
type TaxpayerKind string

const (
	KindIndividual TaxpayerKind = "individual"
	KindCompany    TaxpayerKind = "company"
)

// Valid reports whether the kind is a known value.
func (k TaxpayerKind) Valid() bool {
	return k == KindIndividual || k == KindCompany
}

// TaxCategory is the tax or fee a taxpayer is assessed for.
type TaxCategory string

const (
	TaxBusinessLicense   TaxCategory = "business_license"
	TaxOperatingPermit   TaxCategory = "operating_permit"
	TaxBuiltProperty     TaxCategory = "built_property"
	TaxUnbuiltProperty   TaxCategory = "unbuilt_property"
	TaxTransferDuty      TaxCategory = "transfer_duty"
	TaxParking           TaxCategory = "parking"
	TaxWasteCollection   TaxCategory = "waste_collection"
	TaxAdvertising       TaxCategory = "advertising"
	TaxPublicDomainUse   TaxCategory = "public_domain_use"
)

// Valid reports whether the category is a known value.
func (t TaxCategory) Valid() bool {
	switch t {
	case TaxBusinessLicense, TaxOperatingPermit, TaxBuiltProperty,
		TaxUnbuiltProperty, TaxTransferDuty, TaxParking,
		TaxWasteCollection, TaxAdvertising, TaxPublicDomainUse:
		return true
	}
	return false
}

// Taxpayer is a registered contribuable. TotalPaid is a denormalized
// aggregate recomputed from payments inside each payment transaction.
type Taxpayer struct {
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	FiscalID        *string         `json:"fiscalId,omitempty"`
	Reference       string          `json:"reference"`
	Kind            TaxpayerKind    `json:"kind"`
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	Phone           string          `json:"phone"`
	Email           *string         `json:"email,omitempty"`
	TaxCategory     *TaxCategory    `json:"taxCategory,omitempty"`
	DueDate         *time.Time      `json:"dueDate,omitempty"`
	AmountDue       decimal.Decimal `json:"amountDue"`
	TotalPaid       decimal.Decimal `json:"totalPaid"`
	ID              int64           `json:"id"`
	Active          bool            `json:"active"`
	NotifyLate      bool            `json:"notifyLate"`
}
