package inventory

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/siteworks/backend/internal/domain/shared"
)

// expiry months carry year-month granularity only
var expiryMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidExpiryMonth reports whether value is a YYYY-MM month
func ValidExpiryMonth(value string) bool {
	return expiryMonthPattern.MatchString(value)
}

// SiteItemBatchBalance is the running closing balance for one expiry batch of
// an item at a site. A batch number is unique per (site, item) and keeps the
// expiry month it was first received with for its whole lifetime; a receipt
// reusing the number with a different expiry is a conflict.
type SiteItemBatchBalance struct {
	shared.BaseAggregateRoot
	SiteID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_site_item_batch_balance,priority:1"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_site_item_batch_balance,priority:2"`
	BatchNumber  string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_site_item_batch_balance,priority:3"`
	ExpiryMonth  string          `gorm:"type:varchar(7);not null"`
	ClosingQty   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ClosingValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (SiteItemBatchBalance) TableName() string {
	return "site_item_batch_balances"
}

// NewSiteItemBatchBalance creates a zero balance for a batch of an item at a site
func NewSiteItemBatchBalance(siteID, itemID uuid.UUID, batchNumber, expiryMonth string) (*SiteItemBatchBalance, error) {
	if siteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SITE", "Site ID cannot be empty")
	}
	if itemID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_BATCH", "Batch number cannot be empty")
	}
	if !ValidExpiryMonth(expiryMonth) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", fmt.Sprintf("Expiry %q is not a YYYY-MM month", expiryMonth))
	}
	return &SiteItemBatchBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SiteID:            siteID,
		ItemID:            itemID,
		BatchNumber:       batchNumber,
		ExpiryMonth:       expiryMonth,
		ClosingQty:        decimal.Zero,
		ClosingValue:      decimal.Zero,
	}, nil
}

// CheckExpiry verifies an incoming receipt's expiry month against the one the
// batch was created with
func (b *SiteItemBatchBalance) CheckExpiry(expiryMonth string) error {
	if b.ExpiryMonth != expiryMonth {
		return shared.NewDomainError("BATCH_CONFLICT",
			fmt.Sprintf("Batch %q already exists with expiry %s, cannot receive with expiry %s",
				b.BatchNumber, b.ExpiryMonth, expiryMonth))
	}
	return nil
}

// ApplyDelta adds a signed quantity/value delta to the batch balance,
// clamping the result at zero
func (b *SiteItemBatchBalance) ApplyDelta(qty, value decimal.Decimal) {
	b.ClosingQty = clampZero(b.ClosingQty.Add(qty))
	b.ClosingValue = clampZero(b.ClosingValue.Add(value))
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// UnitRate returns closing value per unit, zero when the quantity is zero
func (b *SiteItemBatchBalance) UnitRate() decimal.Decimal {
	if b.ClosingQty.IsZero() {
		return decimal.Zero
	}
	return b.ClosingValue.Div(b.ClosingQty).Round(4)
}
