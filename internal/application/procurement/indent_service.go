package procurement

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siteworks/backend/internal/domain/approval"
	"github.com/siteworks/backend/internal/domain/docnum"
	"github.com/siteworks/backend/internal/domain/procurement"
	"github.com/siteworks/backend/internal/domain/shared"
)

// numberRetries bounds the retry loop when a concurrently generated document
// number collides on the unique index
const numberRetries = 3

// IndentService handles material indent operations
type IndentService struct {
	scope   TransactionScope
	checker approval.CapabilityChecker
	logger  *zap.Logger
}

// NewIndentService creates a new IndentService
func NewIndentService(scope TransactionScope, checker approval.CapabilityChecker, logger *zap.Logger) *IndentService {
	return &IndentService{
		scope:   scope,
		checker: checker,
		logger:  logger,
	}
}

// Create creates a new indent in draft with its requested lines
func (s *IndentService) Create(ctx context.Context, actorID uuid.UUID, req CreateIndentRequest) (*IndentResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Indent needs at least one line")
	}

	var response IndentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := nextIndentNumber(ctx, repos.IndentRepo())
		if err != nil {
			return err
		}

		indent, err := procurement.NewIndent(number, req.SiteID, actorID, req.IndentDate)
		if err != nil {
			return err
		}
		indent.DepartmentID = req.DepartmentID
		indent.Remark = req.Remark

		for _, line := range req.Lines {
			if _, err := indent.AddLine(line.ItemID, line.Quantity, line.Remark); err != nil {
				return err
			}
		}

		if err := repos.IndentRepo().Save(ctx, indent); err != nil {
			return err
		}
		response = ToIndentResponse(indent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent created",
		zap.String("indent_number", response.IndentNumber),
		zap.String("site_id", req.SiteID.String()))
	return &response, nil
}

// GetByID retrieves an indent by ID
func (s *IndentService) GetByID(ctx context.Context, id uuid.UUID) (*IndentResponse, error) {
	var response IndentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		indent, err := repos.IndentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		response = ToIndentResponse(indent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List retrieves indents for a site with pagination
func (s *IndentService) List(ctx context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[IndentResponse], error) {
	var page *shared.Paginated[procurement.Indent]
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		page, err = repos.IndentRepo().FindBySite(ctx, siteID, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	items := make([]IndentResponse, 0, len(page.Items))
	for idx := range page.Items {
		items = append(items, ToIndentResponse(&page.Items[idx]))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// Act applies a status action and any submitted line edits in one transaction
func (s *IndentService) Act(ctx context.Context, actorID, indentID uuid.UUID, req StatusActionRequest) (*IndentResponse, error) {
	action := approval.Action(req.StatusAction)

	var response IndentResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		indent, err := repos.IndentRepo().FindByID(ctx, indentID)
		if err != nil {
			return err
		}
		if err := indent.Act(action, actorID, s.checker, toLineEdits(req.LineEdits)); err != nil {
			return err
		}
		if err := repos.IndentRepo().Save(ctx, indent); err != nil {
			return err
		}
		response = ToIndentResponse(indent)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("indent action applied",
		zap.String("indent_id", indentID.String()),
		zap.String("action", req.StatusAction),
		zap.String("status", response.Approval.Status))
	return &response, nil
}

// Delete removes a draft indent
func (s *IndentService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		indent, err := repos.IndentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if indent.Approval.Status != approval.StatusDraft {
			return shared.NewDomainError("INVALID_STATE", "Only draft indents can be deleted")
		}
		return repos.IndentRepo().Delete(ctx, id)
	})
}

// nextIndentNumber generates the next indent number from the highest existing
// one. The generator's read-then-increment is not transactionally safe on its
// own; the unique index on the number column plus this bounded exists-probe
// retry backstops concurrent creations.
func nextIndentNumber(ctx context.Context, repo procurement.IndentRepository) (string, error) {
	numbers, err := repo.ListNumbers(ctx)
	if err != nil {
		return "", err
	}
	candidate := docnum.Next(numbers)
	for attempt := 0; attempt < numberRetries; attempt++ {
		exists, err := repo.ExistsByNumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if candidate, err = docnum.Increment(candidate); err != nil {
			return "", err
		}
	}
	return "", shared.ErrConcurrencyConflict
}

// notFound reports whether the error is the shared not-found sentinel
func notFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
