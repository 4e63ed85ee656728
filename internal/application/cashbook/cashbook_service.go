package cashbook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/cashbook"
	"github.com/siteworks/backend/internal/domain/shared"
	"github.com/siteworks/backend/internal/domain/shared/valueobject"
)

// CreateVoucherRequest creates a cash voucher
type CreateVoucherRequest struct {
	VoucherNumber string          `json:"voucher_number"`
	VoucherType   string          `json:"voucher_type"`
	SiteID        uuid.UUID       `json:"site_id"`
	PayeeName     string          `json:"payee_name"`
	VendorID      *uuid.UUID      `json:"vendor_id"`
	ChallanID     *uuid.UUID      `json:"challan_id"`
	VoucherDate   time.Time       `json:"voucher_date"`
	Amount        decimal.Decimal `json:"amount"`
	Narration     string          `json:"narration"`
}

// StatusActionRequest applies a workflow action to a voucher
type StatusActionRequest struct {
	StatusAction string `json:"status_action"`
}

// VoucherResponse projects a cash voucher
type VoucherResponse struct {
	ID            uuid.UUID       `json:"id"`
	VoucherNumber string          `json:"voucher_number"`
	VoucherType   string          `json:"voucher_type"`
	SiteID        uuid.UUID       `json:"site_id"`
	PayeeName     string          `json:"payee_name"`
	VendorID      *uuid.UUID      `json:"vendor_id,omitempty"`
	ChallanID     *uuid.UUID      `json:"challan_id,omitempty"`
	VoucherDate   time.Time       `json:"voucher_date"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Narration     string          `json:"narration,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToVoucherResponse converts a voucher to its response form
func ToVoucherResponse(v *cashbook.CashVoucher) VoucherResponse {
	return VoucherResponse{
		ID:            v.ID,
		VoucherNumber: v.VoucherNumber,
		VoucherType:   string(v.VoucherType),
		SiteID:        v.SiteID,
		PayeeName:     v.PayeeName,
		VendorID:      v.VendorID,
		ChallanID:     v.ChallanID,
		VoucherDate:   v.VoucherDate,
		Amount:        v.Amount,
		Currency:      string(v.Currency),
		Narration:     v.Narration,
		Status:        v.Approval.Status.String(),
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

// CashbookService handles cash voucher operations
type CashbookService struct {
	scope   TransactionScope
	checker approval.CapabilityChecker
	logger  *zap.Logger
}

// NewCashbookService creates a new CashbookService
func NewCashbookService(scope TransactionScope, checker approval.CapabilityChecker, logger *zap.Logger) *CashbookService {
	return &CashbookService{
		scope:   scope,
		checker: checker,
		logger:  logger,
	}
}

// Create creates a new voucher in draft, optionally linked to a challan bill
func (s *CashbookService) Create(ctx context.Context, actorID uuid.UUID, req CreateVoucherRequest) (*VoucherResponse, error) {
	var response VoucherResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.VoucherRepo().ExistsByNumber(ctx, req.VoucherNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("CONFLICT", "Voucher number already in use")
		}

		voucher, err := cashbook.NewCashVoucher(
			req.VoucherNumber,
			cashbook.VoucherType(req.VoucherType),
			req.SiteID,
			actorID,
			req.PayeeName,
			valueobject.NewMoneyINR(req.Amount),
			req.VoucherDate,
		)
		if err != nil {
			return err
		}
		voucher.Narration = req.Narration

		if req.ChallanID != nil {
			challan, err := repos.ChallanRepo().FindByID(ctx, *req.ChallanID)
			if err != nil {
				return err
			}
			if err := voucher.LinkChallan(challan.ID, challan.VendorID); err != nil {
				return err
			}
		}

		if err := repos.VoucherRepo().Save(ctx, voucher); err != nil {
			return err
		}
		response = ToVoucherResponse(voucher)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voucher created",
		zap.String("voucher_number", req.VoucherNumber),
		zap.String("site_id", req.SiteID.String()))
	return &response, nil
}

// GetByID retrieves a voucher by ID
func (s *CashbookService) GetByID(ctx context.Context, id uuid.UUID) (*VoucherResponse, error) {
	var response VoucherResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		voucher, err := repos.VoucherRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		response = ToVoucherResponse(voucher)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves vouchers for a site with pagination
func (s *CashbookService) List(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[VoucherResponse], error) {
	var page *shared.Paginated[cashbook.CashVoucher]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		page, err = repos.VoucherRepo().FindBySite(ctx, siteID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]VoucherResponse, 0, len(page.Items))
	for idx := range page.Items {
		items = append(items, ToVoucherResponse(&page.Items[idx]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Act applies a workflow action to a voucher. When the action settles or
// unsettles a linked challan bill, the challan's paid amount and payment
// status are recomputed in the same transaction.
func (s *CashbookService) Act(ctx context.Context, actorID, voucherID uuid.UUID, req StatusActionRequest) (*VoucherResponse, error) {
	action := approval.Action(req.StatusAction)

	var response VoucherResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		voucher, err := repos.VoucherRepo().FindByID(ctx, voucherID)
		if err != nil {
			return err
		}
		if err := voucher.Act(action, actorID, s.checker); err != nil {
			return err
		}
		if err := repos.VoucherRepo().Save(ctx, voucher); err != nil {
			return err
		}

		if voucher.ChallanID != nil && voucher.VoucherType == cashbook.VoucherTypePayment {
			if err := s.recomputeChallanPayment(ctx, repos, *voucher.ChallanID); err != nil {
				return err
			}
		}
		response = ToVoucherResponse(voucher)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("voucher action applied",
		zap.String("voucher_id", voucherID.String()),
		zap.String("action", req.StatusAction),
		zap.String("status", response.Status))
	return &response, nil
}

// recomputeChallanPayment refreshes the challan's paid amount from the sum of
// approved payment vouchers against it
func (s *CashbookService) recomputeChallanPayment(ctx context.Context, repos TransactionalRepositories, challanID uuid.UUID) error {
	paid, err := repos.VoucherRepo().SumApprovedByChallan(ctx, challanID)
	if err != nil {
		return err
	}
	challan, err := repos.ChallanRepo().FindByID(ctx, challanID)
	if err != nil {
		return err
	}
	if err := challan.SetPaidAmount(paid); err != nil {
		return err
	}
	return repos.ChallanRepo().Save(ctx, challan)
}
