package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/shared"
)

// QtyEpsilon absorbs floating error carried in from quantity arithmetic done
// upstream of the decimal conversion
var QtyEpsilon = decimal.New(1, -9) // 1e-9

// PurchaseOrderCapabilities names the permissions guarding purchase order
// workflow actions
var PurchaseOrderCapabilities = approval.Capabilities{
	Approve1: "purchase_order:approve1",
	Approve2: "purchase_order:approve2",
	Complete: "purchase_order:complete",
	Suspend:  "purchase_order:suspend",
}

// LineEdit carries the editable line fields an approver may change alongside
// a status action. ApprovedQty lands in the stage field matching the action.
type LineEdit struct {
	LineID      uuid.UUID
	Quantity    *decimal.Decimal
	Remark      *string
	ApprovedQty *decimal.Decimal
}

// PurchaseOrderLine is one item row of a purchase order. ReceivedQty is
// cumulative and adjusted only by the receipt reconciliation engine;
// 0 <= ReceivedQty <= OrderedQty holds after every committed reconciliation.
type PurchaseOrderLine struct {
	shared.BaseEntity
	OrderID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	ItemID       uuid.UUID        `gorm:"type:uuid;not null"`
	OrderedQty   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ReceivedQty  decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Rate         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Remark       string           `gorm:"type:varchar(500)"`
	Approved1Qty *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Approved2Qty *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}

// NewPurchaseOrderLine creates a new order line
func NewPurchaseOrderLine(orderID, itemID uuid.UUID, qty, rate decimal.Decimal) (*PurchaseOrderLine, error) {
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Rate cannot be negative")
	}
	return &PurchaseOrderLine{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     orderID,
		ItemID:      itemID,
		OrderedQty:  qty,
		ReceivedQty: decimal.Zero,
		Rate:        rate,
		Amount:      qty.Mul(rate).Round(4),
	}, nil
}

// RemainingQty returns the quantity still orderable against this line
func (l *PurchaseOrderLine) RemainingQty() decimal.Decimal {
	remaining := l.OrderedQty.Sub(l.ReceivedQty)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// DerivedRate returns the per-unit rate receipts are valued at:
// line amount over ordered quantity, zero when the quantity is zero
func (l *PurchaseOrderLine) DerivedRate() decimal.Decimal {
	if l.OrderedQty.IsZero() {
		return decimal.Zero
	}
	return l.Amount.Div(l.OrderedQty)
}

// AddReceived increments the cumulative received quantity.
// The increment may not exceed the remaining quantity beyond QtyEpsilon.
func (l *PurchaseOrderLine) AddReceived(qty decimal.Decimal) error {
	if qty.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}
	remaining := l.RemainingQty()
	if qty.Sub(remaining).GreaterThan(QtyEpsilon) {
		return shared.NewDomainError("QUANTITY_EXCEEDED",
			fmt.Sprintf("Cannot receive %s against order line %s, only %s remaining",
				qty.String(), l.ID, remaining.String()))
	}
	l.ReceivedQty = l.ReceivedQty.Add(qty)
	if l.ReceivedQty.GreaterThan(l.OrderedQty) {
		l.ReceivedQty = l.OrderedQty
	}
	l.UpdatedAt = time.Now()
	return nil
}

// RemoveReceived decrements the cumulative received quantity during a
// reconciliation reversal, clamping at zero
func (l *PurchaseOrderLine) RemoveReceived(qty decimal.Decimal) {
	l.ReceivedQty = l.ReceivedQty.Sub(qty)
	if l.ReceivedQty.IsNegative() {
		l.ReceivedQty = decimal.Zero
	}
	l.UpdatedAt = time.Now()
}

// PurchaseOrder is an approvable purchase document. Line quantities may be
// adjusted by approvers stage by stage; goods can be received only once both
// approval levels are granted.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	Approval    approval.State      `gorm:"embedded"`
	OrderNumber string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SiteID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	VendorID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	IndentID    *uuid.UUID          `gorm:"type:uuid;index"`
	OrderDate   time.Time           `gorm:"not null"`
	Lines       []PurchaseOrderLine `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Remark      string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new purchase order in draft
func NewPurchaseOrder(orderNumber string, siteID, vendorID, createdByID uuid.UUID, orderDate time.Time) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Site ID cannot be empty")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Approval:          approval.NewState(createdByID),
		OrderNumber:       orderNumber,
		SiteID:            siteID,
		VendorID:          vendorID,
		OrderDate:         orderDate,
		Lines:             make([]PurchaseOrderLine, 0),
		TotalAmount:       decimal.Zero,
	}, nil
}

// AddLine adds an item line to the order
// Only allowed in DRAFT status
func (o *PurchaseOrder) AddLine(itemID uuid.UUID, qty, rate decimal.Decimal, remark string) (*PurchaseOrderLine, error) {
	if o.Approval.Status != approval.StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft order")
	}
	for _, line := range o.Lines {
		if line.ItemID == itemID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Item already exists in order")
		}
	}

	line, err := NewPurchaseOrderLine(o.ID, itemID, qty, rate)
	if err != nil {
		return nil, err
	}
	line.Remark = remark

	o.Lines = append(o.Lines, *line)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	return line, nil
}

// GetLine returns a line by its ID, nil if absent
func (o *PurchaseOrder) GetLine(lineID uuid.UUID) *PurchaseOrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].ID == lineID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// Act applies a workflow action together with any line edits the approver
// submitted. Status change and line data are committed together by the
// caller; neither may land without the other.
func (o *PurchaseOrder) Act(action approval.Action, actorID uuid.UUID, checker approval.CapabilityChecker, edits []LineEdit) error {
	if err := o.Approval.Transition(action, actorID, checker, PurchaseOrderCapabilities); err != nil {
		return err
	}
	if err := o.applyLineEdits(action, edits); err != nil {
		return err
	}
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// AutoEscalate grants level-2 approval in the same transaction as a
// successful level-1 approval, stamping the same actor for both levels and
// carrying each line's level-1 quantity forward where level 2 is unset.
func (o *PurchaseOrder) AutoEscalate(actorID uuid.UUID) error {
	if err := o.Approval.Escalate(actorID); err != nil {
		return err
	}
	for idx := range o.Lines {
		if o.Lines[idx].Approved2Qty == nil {
			o.Lines[idx].Approved2Qty = o.Lines[idx].Approved1Qty
		}
	}
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// CanReceiveGoods returns true once both approval levels are granted
func (o *PurchaseOrder) CanReceiveGoods() bool {
	return o.Approval.Status == approval.StatusApprovedLevel2 || o.Approval.Status == approval.StatusCompleted
}

// applyLineEdits persists the editable line fields for the stage being acted on
func (o *PurchaseOrder) applyLineEdits(action approval.Action, edits []LineEdit) error {
	for _, edit := range edits {
		line := o.GetLine(edit.LineID)
		if line == nil {
			return shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Order line %s not found", edit.LineID))
		}
		if edit.Quantity != nil {
			if edit.Quantity.LessThanOrEqual(decimal.Zero) {
				return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
			}
			if edit.Quantity.LessThan(line.ReceivedQty) {
				return shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity cannot be less than received quantity")
			}
			line.OrderedQty = *edit.Quantity
			line.Amount = line.OrderedQty.Mul(line.Rate).Round(4)
		}
		if edit.Remark != nil {
			line.Remark = *edit.Remark
		}
		if edit.ApprovedQty != nil {
			switch action {
			case approval.ActionApprove1:
				qty := *edit.ApprovedQty
				line.Approved1Qty = &qty
			case approval.ActionApprove2:
				qty := *edit.ApprovedQty
				line.Approved2Qty = &qty
			}
		}
		line.UpdatedAt = time.Now()
	}
	return nil
}

// recalculateTotal recalculates the order total from its lines
func (o *PurchaseOrder) recalculateTotal() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Amount)
	}
	o.TotalAmount = total
}
