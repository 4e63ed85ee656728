package procurement

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/procurement"
)

// --- Requests ---

// IndentLineRequest is one requested item row
type IndentLineRequest struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Remark   string          `json:"remark"`
}

// CreateIndentRequest creates a material indent
type CreateIndentRequest struct {
	SiteID       uuid.UUID           `json:"site_id"`
	DepartmentID *uuid.UUID          `json:"department_id"`
	IndentDate   time.Time           `json:"indent_date"`
	Remark       string              `json:"remark"`
	Lines        []IndentLineRequest `json:"lines"`
}

// OrderLineRequest is one item row of a purchase order
type OrderLineRequest struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`
	Remark   string          `json:"remark"`
}

// CreateOrderRequest creates a purchase order, optionally raised from an
// approved indent
type CreateOrderRequest struct {
	SiteID    uuid.UUID          `json:"site_id"`
	VendorID  uuid.UUID          `json:"vendor_id"`
	IndentID  *uuid.UUID         `json:"indent_id"`
	OrderDate time.Time          `json:"order_date"`
	Remark    string             `json:"remark"`
	Lines     []OrderLineRequest `json:"lines"`
}

// LineEditRequest carries the editable line fields submitted alongside a
// status action
type LineEditRequest struct {
	LineID      uuid.UUID        `json:"line_id"`
	Quantity    *decimal.Decimal `json:"quantity"`
	Remark      *string          `json:"remark"`
	ApprovedQty *decimal.Decimal `json:"approved_qty"`
}

// StatusActionRequest applies a workflow action to a document
type StatusActionRequest struct {
	StatusAction string            `json:"status_action"`
	LineEdits    []LineEditRequest `json:"line_edits"`
}

// ChallanBatchRequest is one expiry batch split within a challan line
type ChallanBatchRequest struct {
	BatchNumber  string          `json:"batch_number"`
	ExpiryMonth  string          `json:"expiry_month"`
	ReceivingQty decimal.Decimal `json:"receiving_qty"`
}

// ChallanLineRequest is one received row referencing a purchase order line
type ChallanLineRequest struct {
	POLineID     uuid.UUID             `json:"po_line_id"`
	ReceivingQty decimal.Decimal       `json:"receiving_qty"`
	Batches      []ChallanBatchRequest `json:"batches"`
}

// CreateChallanRequest creates a delivery challan against a purchase order
type CreateChallanRequest struct {
	SiteID          uuid.UUID            `json:"site_id"`
	VendorID        uuid.UUID            `json:"vendor_id"`
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id"`
	ChallanDate     time.Time            `json:"challan_date"`
	Remark          string               `json:"remark"`
	Lines           []ChallanLineRequest `json:"lines"`
}

// UpdateChallanRequest replaces a challan's lines; the ledger reflects only
// the submitted version after the update commits
type UpdateChallanRequest struct {
	ChallanDate *time.Time           `json:"challan_date"`
	Remark      *string              `json:"remark"`
	Lines       []ChallanLineRequest `json:"lines"`
}

// UpdateBillRequest records the vendor bill on a challan
type UpdateBillRequest struct {
	BillNo     string          `json:"bill_no"`
	BillDate   time.Time       `json:"bill_date"`
	BillAmount decimal.Decimal `json:"bill_amount"`
	DueDays    int             `json:"due_days"`
}

// toLineEdits converts request line edits into domain line edits
func toLineEdits(edits []LineEditRequest) []procurement.LineEdit {
	if len(edits) == 0 {
		return nil
	}
	out := make([]procurement.LineEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, procurement.LineEdit{
			LineID:      e.LineID,
			Quantity:    e.Quantity,
			Remark:      e.Remark,
			ApprovedQty: e.ApprovedQty,
		})
	}
	return out
}

// --- Responses ---

// ApprovalResponse projects the embedded workflow state
type ApprovalResponse struct {
	Status        string     `json:"status"`
	CreatedByID   uuid.UUID  `json:"created_by_id"`
	Approved1ByID *uuid.UUID `json:"approved1_by_id,omitempty"`
	Approved1At   *time.Time `json:"approved1_at,omitempty"`
	Approved2ByID *uuid.UUID `json:"approved2_by_id,omitempty"`
	Approved2At   *time.Time `json:"approved2_at,omitempty"`
	CompletedByID *uuid.UUID `json:"completed_by_id,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	SuspendedByID *uuid.UUID `json:"suspended_by_id,omitempty"`
	SuspendedAt   *time.Time `json:"suspended_at,omitempty"`
}

func toApprovalResponse(s approval.State) ApprovalResponse {
	return ApprovalResponse{
		Status:        s.Status.String(),
		CreatedByID:   s.CreatedByID,
		Approved1ByID: s.Approved1ByID,
		Approved1At:   s.Approved1At,
		Approved2ByID: s.Approved2ByID,
		Approved2At:   s.Approved2At,
		CompletedByID: s.CompletedByID,
		CompletedAt:   s.CompletedAt,
		SuspendedByID: s.SuspendedByID,
		SuspendedAt:   s.SuspendedAt,
	}
}

// IndentLineResponse projects an indent line
type IndentLineResponse struct {
	ID           uuid.UUID        `json:"id"`
	ItemID       uuid.UUID        `json:"item_id"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Remark       string           `json:"remark,omitempty"`
	Approved1Qty *decimal.Decimal `json:"approved1_qty,omitempty"`
	Approved2Qty *decimal.Decimal `json:"approved2_qty,omitempty"`
}

// IndentResponse projects an indent
type IndentResponse struct {
	ID           uuid.UUID            `json:"id"`
	IndentNumber string               `json:"indent_number"`
	SiteID       uuid.UUID            `json:"site_id"`
	DepartmentID *uuid.UUID           `json:"department_id,omitempty"`
	IndentDate   time.Time            `json:"indent_date"`
	Remark       string               `json:"remark,omitempty"`
	Approval     ApprovalResponse     `json:"approval"`
	Lines        []IndentLineResponse `json:"lines"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ToIndentResponse converts an indent to its response form
func ToIndentResponse(i *procurement.Indent) IndentResponse {
	lines := make([]IndentLineResponse, 0, len(i.Lines))
	for _, l := range i.Lines {
		lines = append(lines, IndentLineResponse{
			ID:           l.ID,
			ItemID:       l.ItemID,
			Quantity:     l.Quantity,
			Remark:       l.Remark,
			Approved1Qty: l.Approved1Qty,
			Approved2Qty: l.Approved2Qty,
		})
	}
	return IndentResponse{
		ID:           i.ID,
		IndentNumber: i.IndentNumber,
		SiteID:       i.SiteID,
		DepartmentID: i.DepartmentID,
		IndentDate:   i.IndentDate,
		Remark:       i.Remark,
		Approval:     toApprovalResponse(i.Approval),
		Lines:        lines,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// OrderLineResponse projects a purchase order line
type OrderLineResponse struct {
	ID           uuid.UUID        `json:"id"`
	ItemID       uuid.UUID        `json:"item_id"`
	OrderedQty   decimal.Decimal  `json:"ordered_qty"`
	ReceivedQty  decimal.Decimal  `json:"received_qty"`
	RemainingQty decimal.Decimal  `json:"remaining_qty"`
	Rate         decimal.Decimal  `json:"rate"`
	Amount       decimal.Decimal  `json:"amount"`
	Remark       string           `json:"remark,omitempty"`
	Approved1Qty *decimal.Decimal `json:"approved1_qty,omitempty"`
	Approved2Qty *decimal.Decimal `json:"approved2_qty,omitempty"`
}

// OrderResponse projects a purchase order
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderNumber string              `json:"order_number"`
	SiteID      uuid.UUID           `json:"site_id"`
	VendorID    uuid.UUID           `json:"vendor_id"`
	IndentID    *uuid.UUID          `json:"indent_id,omitempty"`
	OrderDate   time.Time           `json:"order_date"`
	Remark      string              `json:"remark,omitempty"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	Approval    ApprovalResponse    `json:"approval"`
	Lines       []OrderLineResponse `json:"lines"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ToOrderResponse converts a purchase order to its response form
func ToOrderResponse(o *procurement.PurchaseOrder) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:           l.ID,
			ItemID:       l.ItemID,
			OrderedQty:   l.OrderedQty,
			ReceivedQty:  l.ReceivedQty,
			RemainingQty: l.RemainingQty(),
			Rate:         l.Rate,
			Amount:       l.Amount,
			Remark:       l.Remark,
			Approved1Qty: l.Approved1Qty,
			Approved2Qty: l.Approved2Qty,
		})
	}
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		SiteID:      o.SiteID,
		VendorID:    o.VendorID,
		IndentID:    o.IndentID,
		OrderDate:   o.OrderDate,
		Remark:      o.Remark,
		TotalAmount: o.TotalAmount,
		Approval:    toApprovalResponse(o.Approval),
		Lines:       lines,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// ChallanBatchResponse projects a challan line batch
type ChallanBatchResponse struct {
	ID          uuid.UUID       `json:"id"`
	BatchNumber string          `json:"batch_number"`
	ExpiryMonth string          `json:"expiry_month"`
	Qty         decimal.Decimal `json:"qty"`
	Amount      decimal.Decimal `json:"amount"`
}

// ChallanLineResponse projects a challan line with its computed valuation
type ChallanLineResponse struct {
	ID           uuid.UUID              `json:"id"`
	POLineID     uuid.UUID              `json:"po_line_id"`
	ItemID       uuid.UUID              `json:"item_id"`
	ReceivingQty decimal.Decimal        `json:"receiving_qty"`
	Rate         decimal.Decimal        `json:"rate"`
	Amount       decimal.Decimal        `json:"amount"`
	Batches      []ChallanBatchResponse `json:"batches,omitempty"`
}

// ChallanResponse projects a delivery challan. ClosingStockByItemID is a
// read-only projection filled on GET.
type ChallanResponse struct {
	ID                   uuid.UUID                  `json:"id"`
	ChallanNumber        string                     `json:"challan_number"`
	SiteID               uuid.UUID                  `json:"site_id"`
	VendorID             uuid.UUID                  `json:"vendor_id"`
	PurchaseOrderID      uuid.UUID                  `json:"purchase_order_id"`
	ChallanDate          time.Time                  `json:"challan_date"`
	Remark               string                     `json:"remark,omitempty"`
	TotalAmount          decimal.Decimal            `json:"total_amount"`
	Lines                []ChallanLineResponse      `json:"lines"`
	BillNo               string                     `json:"bill_no,omitempty"`
	BillDate             *time.Time                 `json:"bill_date,omitempty"`
	BillAmount           decimal.Decimal            `json:"bill_amount"`
	DueDays              int                        `json:"due_days"`
	DueDate              *time.Time                 `json:"due_date,omitempty"`
	PaidAmount           decimal.Decimal            `json:"paid_amount"`
	DueAmount            decimal.Decimal            `json:"due_amount"`
	PaymentStatus        string                     `json:"payment_status"`
	ClosingStockByItemID map[string]decimal.Decimal `json:"closing_stock_by_item_id,omitempty"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}

// ToChallanResponse converts a challan to its response form
func ToChallanResponse(c *procurement.DeliveryChallan) ChallanResponse {
	lines := make([]ChallanLineResponse, 0, len(c.Lines))
	for _, l := range c.Lines {
		batches := make([]ChallanBatchResponse, 0, len(l.Batches))
		for _, b := range l.Batches {
			batches = append(batches, ChallanBatchResponse{
				ID:          b.ID,
				BatchNumber: b.BatchNumber,
				ExpiryMonth: b.ExpiryMonth,
				Qty:         b.Qty,
				Amount:      b.Amount,
			})
		}
		lines = append(lines, ChallanLineResponse{
			ID:           l.ID,
			POLineID:     l.POLineID,
			ItemID:       l.ItemID,
			ReceivingQty: l.ReceivingQty,
			Rate:         l.Rate,
			Amount:       l.Amount,
			Batches:      batches,
		})
	}
	return ChallanResponse{
		ID:              c.ID,
		ChallanNumber:   c.ChallanNumber,
		SiteID:          c.SiteID,
		VendorID:        c.VendorID,
		PurchaseOrderID: c.PurchaseOrderID,
		ChallanDate:     c.ChallanDate,
		Remark:          c.Remark,
		TotalAmount:     c.TotalAmount,
		Lines:           lines,
		BillNo:          c.BillNo,
		BillDate:        c.BillDate,
		BillAmount:      c.BillAmount,
		DueDays:         c.DueDays,
		DueDate:         c.DueDate,
		PaidAmount:      c.PaidAmount,
		DueAmount:       c.DueAmount,
		PaymentStatus:   c.PaymentStatus.String(),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}
