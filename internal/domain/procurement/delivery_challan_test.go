package procurement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPOLine(t *testing.T, qty, rate int64) *PurchaseOrderLine {
	t.Helper()
	line, err := NewPurchaseOrderLine(uuid.New(), uuid.New(), decimal.NewFromInt(qty), decimal.NewFromInt(rate))
	require.NoError(t, err)
	return line
}

func newTestChallan(t *testing.T) *DeliveryChallan {
	t.Helper()
	challan, err := NewDeliveryChallan("0001-0001", uuid.New(), uuid.New(), uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	return challan
}

func TestNewChallanLine(t *testing.T) {
	t.Run("derives rate and amount from order line", func(t *testing.T) {
		poLine := newTestPOLine(t, 100, 10)
		line, err := NewChallanLine(uuid.New(), poLine, decimal.NewFromInt(60), nil)
		require.NoError(t, err)

		assert.Equal(t, poLine.ID, line.POLineID)
		assert.Equal(t, poLine.ItemID, line.ItemID)
		assert.True(t, line.Rate.Equal(decimal.NewFromInt(10)))
		assert.True(t, line.Amount.Equal(decimal.NewFromInt(600)))
		assert.Empty(t, line.Batches)
	})

	t.Run("splits into batches summing to line quantity", func(t *testing.T) {
		poLine := newTestPOLine(t, 100, 10)
		line, err := NewChallanLine(uuid.New(), poLine, decimal.NewFromInt(60), []BatchSplit{
			{BatchNumber: "B1", ExpiryMonth: "2026-06", Qty: decimal.NewFromInt(40)},
			{BatchNumber: "B2", ExpiryMonth: "2026-09", Qty: decimal.NewFromInt(20)},
		})
		require.NoError(t, err)

		require.Len(t, line.Batches, 2)
		assert.True(t, line.Batches[0].Amount.Equal(decimal.NewFromInt(400)))
		assert.True(t, line.Batches[1].Amount.Equal(decimal.NewFromInt(200)))

		total := decimal.Zero
		for _, b := range line.Batches {
			total = total.Add(b.Qty)
		}
		assert.True(t, total.Equal(line.ReceivingQty))
	})

	t.Run("rejects splits not summing to line quantity", func(t *testing.T) {
		poLine := newTestPOLine(t, 100, 10)
		_, err := NewChallanLine(uuid.New(), poLine, decimal.NewFromInt(60), []BatchSplit{
			{BatchNumber: "B1", ExpiryMonth: "2026-06", Qty: decimal.NewFromInt(40)},
			{BatchNumber: "B2", ExpiryMonth: "2026-09", Qty: decimal.NewFromInt(19)},
		})
		assert.Equal(t, "INVALID_BATCH", domainCode(t, err))
	})

	t.Run("rejects duplicate batch number in one line", func(t *testing.T) {
		poLine := newTestPOLine(t, 100, 10)
		_, err := NewChallanLine(uuid.New(), poLine, decimal.NewFromInt(60), []BatchSplit{
			{BatchNumber: "B1", ExpiryMonth: "2026-06", Qty: decimal.NewFromInt(30)},
			{BatchNumber: "B1", ExpiryMonth: "2026-06", Qty: decimal.NewFromInt(30)},
		})
		assert.Equal(t, "INVALID_BATCH", domainCode(t, err))
	})

	t.Run("rejects malformed expiry month", func(t *testing.T) {
		poLine := newTestPOLine(t, 100, 10)
		_, err := NewChallanLine(uuid.New(), poLine, decimal.NewFromInt(60), []BatchSplit{
			{BatchNumber: "B1", ExpiryMonth: "06/2026", Qty: decimal.NewFromInt(60)},
		})
		assert.Equal(t, "INVALID_EXPIRY", domainCode(t, err))
	})

	t.Run("rejects non-positive receiving quantity", func(t *testing.T) {
		poLine := newTestPOLine(t, 100, 10)
		_, err := NewChallanLine(uuid.New(), poLine, decimal.Zero, nil)
		assert.Equal(t, "INVALID_QUANTITY", domainCode(t, err))
	})
}

func TestDeliveryChallan_SetLines(t *testing.T) {
	challan := newTestChallan(t)
	poLine := newTestPOLine(t, 100, 10)

	line1, err := NewChallanLine(challan.ID, poLine, decimal.NewFromInt(60), nil)
	require.NoError(t, err)
	line2, err := NewChallanLine(challan.ID, newTestPOLine(t, 10, 5), decimal.NewFromInt(4), nil)
	require.NoError(t, err)

	challan.SetLines([]ChallanLine{*line1, *line2})
	assert.True(t, challan.TotalAmount.Equal(decimal.NewFromInt(620)))

	challan.SetLines([]ChallanLine{*line2})
	assert.True(t, challan.TotalAmount.Equal(decimal.NewFromInt(20)))
}

func TestDeliveryChallan_Payment(t *testing.T) {
	t.Run("unpaid until a payment lands", func(t *testing.T) {
		challan := newTestChallan(t)
		require.NoError(t, challan.SetBill("INV-42", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(1000), 30))

		assert.Equal(t, PaymentStatusUnpaid, challan.PaymentStatus)
		assert.True(t, challan.DueAmount.Equal(decimal.NewFromInt(1000)))
		require.NotNil(t, challan.DueDate)
		assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), *challan.DueDate)
	})

	t.Run("partial payment", func(t *testing.T) {
		challan := newTestChallan(t)
		require.NoError(t, challan.SetBill("INV-42", time.Now(), decimal.NewFromInt(1000), 0))
		require.NoError(t, challan.SetPaidAmount(decimal.NewFromInt(400)))

		assert.Equal(t, PaymentStatusPartiallyPaid, challan.PaymentStatus)
		assert.True(t, challan.DueAmount.Equal(decimal.NewFromInt(600)))
	})

	t.Run("full payment", func(t *testing.T) {
		challan := newTestChallan(t)
		require.NoError(t, challan.SetBill("INV-42", time.Now(), decimal.NewFromInt(1000), 0))
		require.NoError(t, challan.SetPaidAmount(decimal.NewFromInt(1000)))

		assert.Equal(t, PaymentStatusPaid, challan.PaymentStatus)
		assert.True(t, challan.DueAmount.IsZero())
	})

	t.Run("overpayment clamps due at zero", func(t *testing.T) {
		challan := newTestChallan(t)
		require.NoError(t, challan.SetBill("INV-42", time.Now(), decimal.NewFromInt(1000), 0))
		require.NoError(t, challan.SetPaidAmount(decimal.NewFromInt(1200)))

		assert.Equal(t, PaymentStatusPaid, challan.PaymentStatus)
		assert.True(t, challan.DueAmount.IsZero())
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		challan := newTestChallan(t)
		assert.Error(t, challan.SetBill("INV-42", time.Now(), decimal.NewFromInt(-1), 0))
		assert.Error(t, challan.SetBill("INV-42", time.Now(), decimal.NewFromInt(1), -1))
		assert.Error(t, challan.SetPaidAmount(decimal.NewFromInt(-1)))
	})
}

func TestDeliveryChallan_LineQtyByPOLine(t *testing.T) {
	challan := newTestChallan(t)
	poLine := newTestPOLine(t, 100, 10)

	line1, err := NewChallanLine(challan.ID, poLine, decimal.NewFromInt(30), nil)
	require.NoError(t, err)
	line2, err := NewChallanLine(challan.ID, poLine, decimal.NewFromInt(20), nil)
	require.NoError(t, err)
	challan.SetLines([]ChallanLine{*line1, *line2})

	totals := challan.LineQtyByPOLine()
	require.Len(t, totals, 1)
	assert.True(t, totals[poLine.ID].Equal(decimal.NewFromInt(50)))
}
