package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/shared"
)

// SiteItemBalance is the running closing balance for one item at one site.
// It is the aggregate for ledger mutations: all quantity and value changes
// flow through ApplyDelta with a signed delta, never direct field writes.
// Rows are created lazily on first receipt and live for the life of the site.
type SiteItemBalance struct {
	shared.BaseAggregateRoot
	SiteID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_site_item_balance,priority:1"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_site_item_balance,priority:2"`
	ClosingQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ClosingValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SiteItemBalance) TableName() string {
	return "site_item_balances"
}

// NewSiteItemBalance creates a zero balance for a site-item combination
func NewSiteItemBalance(siteID, itemID uuid.UUID) (*SiteItemBalance, error) {
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Site ID cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	return &SiteItemBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SiteID:            siteID,
		ItemID:            itemID,
		ClosingQty:        decimal.Zero,
		ClosingValue:      decimal.Zero,
	}, nil
}

// ApplyDelta adds a signed quantity/value delta to the running balance.
// Reversals may momentarily push past zero due to prior clamping; the result
// is clamped at zero so a balance never goes negative.
func (b *SiteItemBalance) ApplyDelta(qty, value decimal.Decimal) {
	b.ClosingQty = clampZero(b.ClosingQty.Add(qty))
	b.ClosingValue = clampZero(b.ClosingValue.Add(value))
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// UnitRate returns closing value per unit, zero when the quantity is zero
func (b *SiteItemBalance) UnitRate() decimal.Decimal {
	if b.ClosingQty.IsZero() {
		return decimal.Zero
	}
	return b.ClosingValue.Div(b.ClosingQty).Round(4)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
