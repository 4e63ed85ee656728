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
)

func indentRequest(qty int64) CreateIndentRequest {
	return CreateIndentRequest{
		SiteID:     uuid.New(),
		IndentDate: time.Now(),
		Lines: []IndentLineRequest{
			{ItemID: uuid.New(), Quantity: decimal.NewFromInt(qty)},
		},
	}
}

func TestIndentService_CreateAndAct(t *testing.T) {
	ctx := context.Background()
	scope := newFakeTxScope()
	svc := NewIndentService(scope, allowAll{}, zap.NewNop())

	created, err := svc.Create(ctx, uuid.New(), indentRequest(50))
	require.NoError(t, err)
	assert.Equal(t, "0001-0001", created.IndentNumber)

	resp, err := svc.Act(ctx, uuid.New(), created.ID, StatusActionRequest{StatusAction: "approve1"})
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApprovedLevel1.String(), resp.Approval.Status)
}

func TestIndentService_Delete(t *testing.T) {
	ctx := context.Background()
	scope := newFakeTxScope()
	svc := NewIndentService(scope, allowAll{}, zap.NewNop())

	t.Run("removes draft", func(t *testing.T) {
		created, err := svc.Create(ctx, uuid.New(), indentRequest(5))
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, created.ID))
		_, err = svc.GetByID(ctx, created.ID)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})

	t.Run("rejects non-draft", func(t *testing.T) {
		created, err := svc.Create(ctx, uuid.New(), indentRequest(5))
		require.NoError(t, err)
		_, err = svc.Act(ctx, uuid.New(), created.ID, StatusActionRequest{StatusAction: "approve1"})
		require.NoError(t, err)

		err = svc.Delete(ctx, created.ID)
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})
}
