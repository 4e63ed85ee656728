package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

type allowAll struct{}

func (allowAll) HasCapability(uuid.UUID, string) bool { return true }

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

// approvedOrder seeds the scope with a purchase order carrying one line of
// 100 units at rate 10, approved through level 2
func approvedOrder(t *testing.T, scope *fakeTxScope) *procurement.PurchaseOrder {
	t.Helper()
	order, err := procurement.NewPurchaseOrder("0001-0001", uuid.New(), uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	_, err = order.AddLine(uuid.New(), decimal.NewFromInt(100), decimal.NewFromInt(10), "")
	require.NoError(t, err)
	require.NoError(t, order.Act(approval.ActionApprove1, uuid.New(), allowAll{}, nil))
	require.NoError(t, order.Act(approval.ActionApprove2, uuid.New(), allowAll{}, nil))
	require.NoError(t, scope.orders.Save(context.Background(), order))
	return order
}

func challanRequest(order *procurement.PurchaseOrder, qty int64, batches ...ChallanBatchRequest) CreateChallanRequest {
	return CreateChallanRequest{
		SiteID:          order.SiteID,
		VendorID:        order.VendorID,
		PurchaseOrderID: order.ID,
		ChallanDate:     time.Now(),
		Lines: []ChallanLineRequest{
			{POLineID: order.Lines[0].ID, ReceivingQty: decimal.NewFromInt(qty), Batches: batches},
		},
	}
}

func orderReceived(t *testing.T, scope *fakeTxScope, orderID, lineID uuid.UUID) decimal.Decimal {
	t.Helper()
	order, err := scope.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	line := order.GetLine(lineID)
	require.NotNil(t, line)
	return line.ReceivedQty
}

func itemBalance(t *testing.T, scope *fakeTxScope, siteID, itemID uuid.UUID) (decimal.Decimal, decimal.Decimal) {
	t.Helper()
	b, err := scope.balances.Find(context.Background(), siteID, itemID)
	if err != nil {
		require.ErrorIs(t, err, shared.ErrNotFound)
		return decimal.Zero, decimal.Zero
	}
	return b.ClosingQty, b.ClosingValue
}

func TestChallanService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("applies receipt to order and balance", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		resp, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
		require.NoError(t, err)

		assert.Equal(t, "0001-0001", resp.ChallanNumber)
		require.Len(t, resp.Lines, 1)
		assert.True(t, resp.Lines[0].Rate.Equal(decimal.NewFromInt(10)))
		assert.True(t, resp.Lines[0].Amount.Equal(decimal.NewFromInt(600)))
		assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(600)))

		assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).Equal(decimal.NewFromInt(60)))
		qty, value := itemBalance(t, scope, order.SiteID, order.Lines[0].ItemID)
		assert.True(t, qty.Equal(decimal.NewFromInt(60)))
		assert.True(t, value.Equal(decimal.NewFromInt(600)))
	})

	t.Run("numbers increment per site", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		first, err := svc.Create(ctx, uuid.New(), challanRequest(order, 30))
		require.NoError(t, err)
		second, err := svc.Create(ctx, uuid.New(), challanRequest(order, 30))
		require.NoError(t, err)

		assert.Equal(t, "0001-0001", first.ChallanNumber)
		assert.Equal(t, "0001-0002", second.ChallanNumber)
	})

	t.Run("rejects over-receipt without mutation", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		_, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
		require.NoError(t, err)

		_, err = svc.Create(ctx, uuid.New(), challanRequest(order, 50))
		assert.Equal(t, "QUANTITY_EXCEEDED", domainCode(t, err))

		assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).Equal(decimal.NewFromInt(60)))
		qty, _ := itemBalance(t, scope, order.SiteID, order.Lines[0].ItemID)
		assert.True(t, qty.Equal(decimal.NewFromInt(60)))
	})

	t.Run("rejects receipt against unapproved order", func(t *testing.T) {
		scope := newFakeTxScope()
		order, err := procurement.NewPurchaseOrder("0001-0001", uuid.New(), uuid.New(), uuid.New(), time.Now())
		require.NoError(t, err)
		_, err = order.AddLine(uuid.New(), decimal.NewFromInt(100), decimal.NewFromInt(10), "")
		require.NoError(t, err)
		require.NoError(t, scope.orders.Save(ctx, order))
		svc := NewChallanService(scope, zap.NewNop())

		_, err = svc.Create(ctx, uuid.New(), challanRequest(order, 10))
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})

	t.Run("drops zero quantity lines", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		req := challanRequest(order, 40)
		req.Lines = append(req.Lines, ChallanLineRequest{POLineID: order.Lines[0].ID, ReceivingQty: decimal.Zero})

		resp, err := svc.Create(ctx, uuid.New(), req)
		require.NoError(t, err)
		assert.Len(t, resp.Lines, 1)
	})

	t.Run("batch splits land in batch balances", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		resp, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60,
			ChallanBatchRequest{BatchNumber: "B1", ExpiryMonth: "2026-06", ReceivingQty: decimal.NewFromInt(40)},
			ChallanBatchRequest{BatchNumber: "B2", ExpiryMonth: "2026-09", ReceivingQty: decimal.NewFromInt(20)},
		))
		require.NoError(t, err)
		require.Len(t, resp.Lines[0].Batches, 2)

		itemID := order.Lines[0].ItemID
		b1, err := scope.balances.FindBatch(ctx, order.SiteID, itemID, "B1")
		require.NoError(t, err)
		assert.True(t, b1.ClosingQty.Equal(decimal.NewFromInt(40)))
		assert.True(t, b1.ClosingValue.Equal(decimal.NewFromInt(400)))

		b2, err := scope.balances.FindBatch(ctx, order.SiteID, itemID, "B2")
		require.NoError(t, err)
		assert.True(t, b2.ClosingQty.Equal(decimal.NewFromInt(20)))

		// batch-tracked lines do not touch the item-level row
		_, err = scope.balances.Find(ctx, order.SiteID, itemID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("batch expiry conflict rejects and rolls back", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		_, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60,
			ChallanBatchRequest{BatchNumber: "B1", ExpiryMonth: "2026-06", ReceivingQty: decimal.NewFromInt(60)},
		))
		require.NoError(t, err)

		_, err = svc.Create(ctx, uuid.New(), challanRequest(order, 40,
			ChallanBatchRequest{BatchNumber: "B1", ExpiryMonth: "2026-07", ReceivingQty: decimal.NewFromInt(40)},
		))
		assert.Equal(t, "BATCH_CONFLICT", domainCode(t, err))

		itemID := order.Lines[0].ItemID
		b1, findErr := scope.balances.FindBatch(ctx, order.SiteID, itemID, "B1")
		require.NoError(t, findErr)
		assert.True(t, b1.ClosingQty.Equal(decimal.NewFromInt(60)))
		assert.Equal(t, "2026-06", b1.ExpiryMonth)
		assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).Equal(decimal.NewFromInt(60)))
	})
}

func TestChallanService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("edit from 60 to 40 reflects only the new version", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
		require.NoError(t, err)

		updated, err := svc.Update(ctx, created.ID, UpdateChallanRequest{
			Lines: []ChallanLineRequest{
				{POLineID: order.Lines[0].ID, ReceivingQty: decimal.NewFromInt(40)},
			},
		})
		require.NoError(t, err)
		assert.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(400)))

		assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).Equal(decimal.NewFromInt(40)))
		qty, value := itemBalance(t, scope, order.SiteID, order.Lines[0].ItemID)
		assert.True(t, qty.Equal(decimal.NewFromInt(40)))
		assert.True(t, value.Equal(decimal.NewFromInt(400)))
	})

	t.Run("resubmitting the same lines nets to zero delta", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
		require.NoError(t, err)

		_, err = svc.Update(ctx, created.ID, UpdateChallanRequest{
			Lines: []ChallanLineRequest{
				{POLineID: order.Lines[0].ID, ReceivingQty: decimal.NewFromInt(60)},
			},
		})
		require.NoError(t, err)

		assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).Equal(decimal.NewFromInt(60)))
		qty, value := itemBalance(t, scope, order.SiteID, order.Lines[0].ItemID)
		assert.True(t, qty.Equal(decimal.NewFromInt(60)))
		assert.True(t, value.Equal(decimal.NewFromInt(600)))
	})

	t.Run("failed update restores the prior state", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
		require.NoError(t, err)

		_, err = svc.Update(ctx, created.ID, UpdateChallanRequest{
			Lines: []ChallanLineRequest{
				{POLineID: order.Lines[0].ID, ReceivingQty: decimal.NewFromInt(200)},
			},
		})
		assert.Equal(t, "QUANTITY_EXCEEDED", domainCode(t, err))

		assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).Equal(decimal.NewFromInt(60)))
		qty, _ := itemBalance(t, scope, order.SiteID, order.Lines[0].ItemID)
		assert.True(t, qty.Equal(decimal.NewFromInt(60)))

		challan, err := scope.challans.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, challan.Lines, 1)
		assert.True(t, challan.Lines[0].ReceivingQty.Equal(decimal.NewFromInt(60)))
	})

	t.Run("same batch number with a new quantity", func(t *testing.T) {
		scope := newFakeTxScope()
		order := approvedOrder(t, scope)
		svc := NewChallanService(scope, zap.NewNop())

		created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60,
			ChallanBatchRequest{BatchNumber: "B1", ExpiryMonth: "2026-06", ReceivingQty: decimal.NewFromInt(60)},
		))
		require.NoError(t, err)

		_, err = svc.Update(ctx, created.ID, UpdateChallanRequest{
			Lines: []ChallanLineRequest{
				{POLineID: order.Lines[0].ID, ReceivingQty: decimal.NewFromInt(40), Batches: []ChallanBatchRequest{
					{BatchNumber: "B1", ExpiryMonth: "2026-06", ReceivingQty: decimal.NewFromInt(40)},
				}},
			},
		})
		require.NoError(t, err)

		b1, err := scope.balances.FindBatch(ctx, order.SiteID, order.Lines[0].ItemID, "B1")
		require.NoError(t, err)
		assert.True(t, b1.ClosingQty.Equal(decimal.NewFromInt(40)))
		assert.True(t, b1.ClosingValue.Equal(decimal.NewFromInt(400)))
	})
}

func TestChallanService_Delete(t *testing.T) {
	ctx := context.Background()
	scope := newFakeTxScope()
	order := approvedOrder(t, scope)
	svc := NewChallanService(scope, zap.NewNop())

	created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	assert.True(t, orderReceived(t, scope, order.ID, order.Lines[0].ID).IsZero())
	qty, value := itemBalance(t, scope, order.SiteID, order.Lines[0].ItemID)
	assert.True(t, qty.IsZero())
	assert.True(t, value.IsZero())

	_, err = scope.challans.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestChallanService_GetByID(t *testing.T) {
	ctx := context.Background()
	scope := newFakeTxScope()
	order := approvedOrder(t, scope)
	svc := NewChallanService(scope, zap.NewNop())

	created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60,
		ChallanBatchRequest{BatchNumber: "B1", ExpiryMonth: "2026-06", ReceivingQty: decimal.NewFromInt(40)},
		ChallanBatchRequest{BatchNumber: "B2", ExpiryMonth: "2026-09", ReceivingQty: decimal.NewFromInt(20)},
	))
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)

	// batch rows fold into the item's closing stock
	itemID := order.Lines[0].ItemID
	require.Contains(t, got.ClosingStockByItemID, itemID.String())
	assert.True(t, got.ClosingStockByItemID[itemID.String()].Equal(decimal.NewFromInt(60)))
}

func TestChallanService_UpdateBill(t *testing.T) {
	ctx := context.Background()
	scope := newFakeTxScope()
	order := approvedOrder(t, scope)
	svc := NewChallanService(scope, zap.NewNop())

	created, err := svc.Create(ctx, uuid.New(), challanRequest(order, 60))
	require.NoError(t, err)

	resp, err := svc.UpdateBill(ctx, created.ID, UpdateBillRequest{
		BillNo:     "INV-7",
		BillDate:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		BillAmount: decimal.NewFromInt(600),
		DueDays:    15,
	})
	require.NoError(t, err)

	assert.Equal(t, "UNPAID", resp.PaymentStatus)
	assert.True(t, resp.DueAmount.Equal(decimal.NewFromInt(600)))
	require.NotNil(t, resp.DueDate)
	assert.Equal(t, time.Date(2026, 4, 16, 0, 0, 0, 0, time.UTC), *resp.DueDate)
}
