package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/inventory"
	"github.com/siteworks/backend/internal/domain/shared"
)

// PaymentStatus tracks the bill settlement of a challan, independent of any
// approval workflow
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "UNPAID"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// ChallanLineBatch is one expiry-dated sub-lot of a received line.
// Expiry carries year-month granularity.
type ChallanLineBatch struct {
	shared.BaseEntity
	LineID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchNumber string          `gorm:"type:varchar(50);not null"`
	ExpiryMonth string          `gorm:"type:varchar(7);not null"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ChallanLineBatch) TableName() string {
	return "challan_line_batches"
}

// ChallanLine records the quantity received against one purchase order line.
// Rate is derived from the order line at creation time and never entered.
type ChallanLine struct {
	shared.BaseEntity
	ChallanID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	POLineID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	ItemID       uuid.UUID          `gorm:"type:uuid;not null"`
	ReceivingQty decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Rate         decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Batches      []ChallanLineBatch `gorm:"foreignKey:LineID;references:ID"`
}

// TableName returns the table name for GORM
func (ChallanLine) TableName() string {
	return "challan_lines"
}

// BatchSplit is the incoming description of one expiry batch within a line
type BatchSplit struct {
	BatchNumber string
	ExpiryMonth string
	Qty         decimal.Decimal
}

// NewChallanLine builds a receipt line against an order line, deriving the
// rate from the order line amount over its ordered quantity. When batch
// splits are given they must sum to the receiving quantity.
func NewChallanLine(challanID uuid.UUID, poLine *PurchaseOrderLine, receivingQty decimal.Decimal, splits []BatchSplit) (*ChallanLine, error) {
	if receivingQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Receiving quantity must be positive")
	}

	rate := poLine.DerivedRate()
	line := &ChallanLine{
		BaseEntity:   shared.NewBaseEntity(),
		ChallanID:    challanID,
		POLineID:     poLine.ID,
		ItemID:       poLine.ItemID,
		ReceivingQty: receivingQty,
		Rate:         rate.Round(4),
		Amount:       rate.Mul(receivingQty).Round(4),
		Batches:      make([]ChallanLineBatch, 0, len(splits)),
	}

	if len(splits) == 0 {
		return line, nil
	}

	splitTotal := decimal.Zero
	seen := make(map[string]bool, len(splits))
	for _, split := range splits {
		if split.BatchNumber == "" {
			return nil, shared.NewDomainError("INVALID_BATCH", "Batch number cannot be empty")
		}
		if seen[split.BatchNumber] {
			return nil, shared.NewDomainError("INVALID_BATCH", fmt.Sprintf("Batch %q appears more than once in the line", split.BatchNumber))
		}
		seen[split.BatchNumber] = true
		if !inventory.ValidExpiryMonth(split.ExpiryMonth) {
			return nil, shared.NewDomainError("INVALID_EXPIRY", fmt.Sprintf("Expiry %q is not a YYYY-MM month", split.ExpiryMonth))
		}
		if split.Qty.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
		}
		line.Batches = append(line.Batches, ChallanLineBatch{
			BaseEntity:  shared.NewBaseEntity(),
			LineID:      line.ID,
			BatchNumber: split.BatchNumber,
			ExpiryMonth: split.ExpiryMonth,
			Qty:         split.Qty,
			Amount:      rate.Mul(split.Qty).Round(4),
		})
		splitTotal = splitTotal.Add(split.Qty)
	}

	if splitTotal.Sub(receivingQty).Abs().GreaterThan(QtyEpsilon) {
		return nil, shared.NewDomainError("INVALID_BATCH",
			fmt.Sprintf("Batch quantities sum to %s but the line receives %s", splitTotal.String(), receivingQty.String()))
	}

	return line, nil
}

// DeliveryChallan is the inward goods-receipt document for a purchase order.
// Its lines drive the site inventory ledger through the reconciliation
// engine; the bill fields carry an independent payment sub-status.
type DeliveryChallan struct {
	shared.BaseAggregateRoot
	ChallanNumber   string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_challan_site_number,priority:2"`
	SiteID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_challan_site_number,priority:1"`
	VendorID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ChallanDate     time.Time       `gorm:"not null"`
	CreatedByID     uuid.UUID       `gorm:"type:uuid;not null"`
	Lines           []ChallanLine   `gorm:"foreignKey:ChallanID;references:ID"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Remark          string          `gorm:"type:text"`

	BillNo        string          `gorm:"type:varchar(50)"`
	BillDate      *time.Time      `gorm:""`
	BillAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DueDays       int             `gorm:"not null;default:0"`
	DueDate       *time.Time      `gorm:""`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	DueAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:'UNPAID'"`
}

// TableName returns the table name for GORM
func (DeliveryChallan) TableName() string {
	return "delivery_challans"
}

// NewDeliveryChallan creates a new challan without lines; lines are attached
// by the reconciliation engine
func NewDeliveryChallan(challanNumber string, siteID, vendorID, purchaseOrderID, createdByID uuid.UUID, challanDate time.Time) (*DeliveryChallan, error) {
	if challanNumber == "" {
		return nil, shared.NewDomainError("INVALID_CHALLAN_NUMBER", "Challan number cannot be empty")
	}
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Site ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Purchase order ID cannot be empty")
	}
	return &DeliveryChallan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ChallanNumber:     challanNumber,
		SiteID:            siteID,
		VendorID:          vendorID,
		PurchaseOrderID:   purchaseOrderID,
		ChallanDate:       challanDate,
		CreatedByID:       createdByID,
		Lines:             make([]ChallanLine, 0),
		TotalAmount:       decimal.Zero,
		BillAmount:        decimal.Zero,
		PaidAmount:        decimal.Zero,
		DueAmount:         decimal.Zero,
		PaymentStatus:     PaymentStatusUnpaid,
	}, nil
}

// SetLines replaces the challan's lines and recomputes the total
func (c *DeliveryChallan) SetLines(lines []ChallanLine) {
	c.Lines = lines
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	c.TotalAmount = total
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// SetBill records or updates the vendor bill attached to this challan and
// recomputes the payment sub-status
func (c *DeliveryChallan) SetBill(billNo string, billDate time.Time, billAmount decimal.Decimal, dueDays int) error {
	if billAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Bill amount cannot be negative")
	}
	if dueDays < 0 {
		return shared.NewDomainError("INVALID_DUE_DAYS", "Due days cannot be negative")
	}
	c.BillNo = billNo
	c.BillDate = &billDate
	c.BillAmount = billAmount
	c.DueDays = dueDays
	due := billDate.AddDate(0, 0, dueDays)
	c.DueDate = &due
	c.RecomputePayment()
	return nil
}

// SetPaidAmount records the cumulative amount paid against the bill and
// recomputes the payment sub-status
func (c *DeliveryChallan) SetPaidAmount(paid decimal.Decimal) error {
	if paid.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount cannot be negative")
	}
	c.PaidAmount = paid
	c.RecomputePayment()
	return nil
}

// RecomputePayment derives the due amount and payment status from the bill
// and paid amounts: dueAmount = max(0, billAmount - paidAmount)
func (c *DeliveryChallan) RecomputePayment() {
	due := c.BillAmount.Sub(c.PaidAmount)
	if due.IsNegative() {
		due = decimal.Zero
	}
	c.DueAmount = due

	switch {
	case c.PaidAmount.LessThanOrEqual(decimal.Zero):
		c.PaymentStatus = PaymentStatusUnpaid
	case c.PaidAmount.LessThan(c.BillAmount):
		c.PaymentStatus = PaymentStatusPartiallyPaid
	default:
		c.PaymentStatus = PaymentStatusPaid
	}
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// LineQtyByPOLine aggregates the challan's receiving quantities per order line
func (c *DeliveryChallan) LineQtyByPOLine() map[uuid.UUID]decimal.Decimal {
	totals := make(map[uuid.UUID]decimal.Decimal, len(c.Lines))
	for _, line := range c.Lines {
		totals[line.POLineID] = totals[line.POLineID].Add(line.ReceivingQty)
	}
	return totals
}

// ItemIDs returns the distinct item ids referenced by the challan's lines
func (c *DeliveryChallan) ItemIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(c.Lines))
	ids := make([]uuid.UUID, 0, len(c.Lines))
	for _, line := range c.Lines {
		if !seen[line.ItemID] {
			seen[line.ItemID] = true
			ids = append(ids, line.ItemID)
		}
	}
	return ids
}
