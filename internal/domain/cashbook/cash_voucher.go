package cashbook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/shared"
	"github.com/siteworks/backend/internal/domain/shared/valueobject"
)

// VoucherType distinguishes money paid out from money received
type VoucherType string

const (
	VoucherTypePayment VoucherType = "PAYMENT"
	VoucherTypeReceipt VoucherType = "RECEIPT"
)

// IsValid checks if the type is a valid VoucherType
func (t VoucherType) IsValid() bool {
	return t == VoucherTypePayment || t == VoucherTypeReceipt
}

// CashVoucherCapabilities names the permissions guarding voucher workflow
// actions. Vouchers take a single sign-off: approve2 and complete are left
// unset so those actions are unavailable.
var CashVoucherCapabilities = approval.Capabilities{
	Approve1: "cash_voucher:approve",
	Suspend:  "cash_voucher:suspend",
}

// CashVoucher is a cashbook entry, optionally settling a challan bill.
// It runs the shared approval workflow with a single approval level.
type CashVoucher struct {
	shared.BaseAggregateRoot
	Approval      approval.State       `gorm:"embedded"`
	VoucherNumber string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	VoucherType   VoucherType          `gorm:"type:varchar(20);not null"`
	SiteID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	PayeeName     string               `gorm:"type:varchar(200);not null"`
	VendorID      *uuid.UUID           `gorm:"type:uuid;index"`
	ChallanID     *uuid.UUID           `gorm:"type:uuid;index"`
	VoucherDate   time.Time            `gorm:"not null"`
	Amount        decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'INR'"`
	Narration     string               `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CashVoucher) TableName() string {
	return "cash_vouchers"
}

// NewCashVoucher creates a new voucher in draft
func NewCashVoucher(voucherNumber string, voucherType VoucherType, siteID, createdByID uuid.UUID, payeeName string, amount valueobject.Money, voucherDate time.Time) (*CashVoucher, error) {
	if voucherNumber == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER_NUMBER", "Voucher number cannot be empty")
	}
	if !voucherType.IsValid() {
		return nil, shared.NewDomainError("INVALID_VOUCHER_TYPE", "Voucher type must be PAYMENT or RECEIPT")
	}
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Site ID cannot be empty")
	}
	if payeeName == "" {
		return nil, shared.NewDomainError("INVALID_PAYEE", "Payee name cannot be empty")
	}
	if amount.IsZero() || amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Voucher amount must be positive")
	}
	return &CashVoucher{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Approval:          approval.NewState(createdByID),
		VoucherNumber:     voucherNumber,
		VoucherType:       voucherType,
		SiteID:            siteID,
		PayeeName:         payeeName,
		VoucherDate:       voucherDate,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
	}, nil
}

// Money returns the voucher amount as a Money value object
func (v *CashVoucher) Money() valueobject.Money {
	m, err := valueobject.NewMoney(v.Amount, v.Currency)
	if err != nil {
		return valueobject.NewMoneyINR(v.Amount)
	}
	return m
}

// LinkChallan ties a payment voucher to the challan bill it settles
// Only allowed in DRAFT status
func (v *CashVoucher) LinkChallan(challanID, vendorID uuid.UUID) error {
	if v.Approval.Status != approval.StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot link a challan to a non-draft voucher")
	}
	if v.VoucherType != VoucherTypePayment {
		return shared.NewDomainError("INVALID_STATE", "Only payment vouchers settle challan bills")
	}
	if challanID == uuid.Nil {
		return shared.NewDomainError("INVALID_CHALLAN", "Challan ID cannot be empty")
	}
	v.ChallanID = &challanID
	if vendorID != uuid.Nil {
		v.VendorID = &vendorID
	}
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// Act applies a workflow action to the voucher
func (v *CashVoucher) Act(action approval.Action, actorID uuid.UUID, checker approval.CapabilityChecker) error {
	if err := v.Approval.Transition(action, actorID, checker, CashVoucherCapabilities); err != nil {
		return err
	}
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// IsApproved returns true once the voucher's single sign-off is granted,
// making its amount eligible to count against a linked bill
func (v *CashVoucher) IsApproved() bool {
	return v.Approval.IsApproved1() && !v.Approval.IsSuspended()
}

// VoucherRepository persists cash vouchers
type VoucherRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CashVoucher, error)
	FindBySite(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[CashVoucher], error)
	// SumApprovedByChallan totals approved payment voucher amounts against a
	// challan, feeding the bill's paid amount
	SumApprovedByChallan(ctx context.Context, challanID uuid.UUID) (decimal.Decimal, error)
	ExistsByNumber(ctx context.Context, voucherNumber string) (bool, error)
	Save(ctx context.Context, voucher *CashVoucher) error
	Delete(ctx context.Context, id uuid.UUID) error
}
