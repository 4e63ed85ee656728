package procurement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/shared"
)

// IndentCapabilities names the permissions guarding indent workflow actions
var IndentCapabilities = approval.Capabilities{
	Approve1: "indent:approve1",
	Approve2: "indent:approve2",
	Complete: "indent:complete",
	Suspend:  "indent:suspend",
}

// IndentLine is one requested item row of a material indent
type IndentLine struct {
	shared.BaseEntity
	IndentID     uuid.UUID        `gorm:"type:uuid;not null;index"`
	ItemID       uuid.UUID        `gorm:"type:uuid;not null"`
	Quantity     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Remark       string           `gorm:"type:varchar(500)"`
	Approved1Qty *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Approved2Qty *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (IndentLine) TableName() string {
	return "indent_lines"
}

// Indent is a site's material requisition, subject to two-level approval
// before it may feed a purchase order
type Indent struct {
	shared.BaseAggregateRoot
	Approval     approval.State `gorm:"embedded"`
	IndentNumber string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	SiteID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	DepartmentID *uuid.UUID     `gorm:"type:uuid"`
	IndentDate   time.Time      `gorm:"not null"`
	Lines        []IndentLine   `gorm:"foreignKey:IndentID;references:ID"`
	Remark       string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Indent) TableName() string {
	return "indents"
}

// NewIndent creates a new indent in draft
func NewIndent(indentNumber string, siteID, createdByID uuid.UUID, indentDate time.Time) (*Indent, error) {
	if indentNumber == "" {
		return nil, shared.NewDomainError("INVALID_INDENT_NUMBER", "Indent number cannot be empty")
	}
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Site ID cannot be empty")
	}
	return &Indent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Approval:          approval.NewState(createdByID),
		IndentNumber:      indentNumber,
		SiteID:            siteID,
		IndentDate:        indentDate,
		Lines:             make([]IndentLine, 0),
	}, nil
}

// AddLine adds a requested item line
// Only allowed in DRAFT status
func (i *Indent) AddLine(itemID uuid.UUID, qty decimal.Decimal, remark string) (*IndentLine, error) {
	if i.Approval.Status != approval.StatusDraft {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a non-draft indent")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if qty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	for _, line := range i.Lines {
		if line.ItemID == itemID {
			return nil, shared.NewDomainError("DUPLICATE_ITEM", "Item already exists in indent")
		}
	}

	line := &IndentLine{
		BaseEntity: shared.NewBaseEntity(),
		IndentID:   i.ID,
		ItemID:     itemID,
		Quantity:   qty,
		Remark:     remark,
	}
	i.Lines = append(i.Lines, *line)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	return line, nil
}

// GetLine returns a line by its ID, nil if absent
func (i *Indent) GetLine(lineID uuid.UUID) *IndentLine {
	for idx := range i.Lines {
		if i.Lines[idx].ID == lineID {
			return &i.Lines[idx]
		}
	}
	return nil
}

// Act applies a workflow action together with any line edits submitted by
// the approver; both are persisted by the caller in the same transaction
func (i *Indent) Act(action approval.Action, actorID uuid.UUID, checker approval.CapabilityChecker, edits []LineEdit) error {
	if err := i.Approval.Transition(action, actorID, checker, IndentCapabilities); err != nil {
		return err
	}
	if err := i.applyLineEdits(action, edits); err != nil {
		return err
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// IsActionable returns true once both approval levels are granted, making
// the indent usable to raise a purchase order
func (i *Indent) IsActionable() bool {
	return i.Approval.Status == approval.StatusApprovedLevel2 || i.Approval.Status == approval.StatusCompleted
}

func (i *Indent) applyLineEdits(action approval.Action, edits []LineEdit) error {
	for _, edit := range edits {
		line := i.GetLine(edit.LineID)
		if line == nil {
			return shared.NewDomainError("LINE_NOT_FOUND", fmt.Sprintf("Indent line %s not found", edit.LineID))
		}
		if edit.Quantity != nil {
			if edit.Quantity.LessThanOrEqual(decimal.Zero) {
				return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
			}
			line.Quantity = *edit.Quantity
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
