package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/permissions"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/api"
	"github.com/vilanovax/dangi-sub000/pkg/api/apiconnect"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store    storage.Store
	notifier *LedgerNotifier
	logger   *slog.Logger
}

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

func NewExpenseService(store storage.Store, notifier *LedgerNotifier, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{store: store, notifier: notifier, logger: logger}
}

// resolveSplit turns a split request into shares. Without an explicit mode
// the caller's default split mode applies, then equal.
func (s *ExpenseService) resolveSplit(ctx context.Context, actor permissions.Actor, project *models.Project, amount int64, spec *api.SplitSpec) (calculator.SplitMode, []calculator.Share, error) {
	if spec == nil {
		spec = &api.SplitSpec{}
	}

	mode, err := calculator.ParseSplitMode(spec.Mode)
	if err != nil {
		return "", nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if mode == "" {
		prefs, err := preferencesFor(ctx, s.store, actor)
		if err != nil {
			return "", nil, err
		}
		// A stale preference falls back to equal rather than failing the request.
		if m, err := calculator.ParseSplitMode(prefs.DefaultSplitMode); err == nil && m != "" {
			mode = m
		} else {
			mode = calculator.SplitEqual
		}
	}

	in := calculator.SplitInput{Mode: mode, Amount: amount}
	switch mode {
	case calculator.SplitExact:
		if len(spec.Shares) == 0 {
			return "", nil, invalidArgument("exact split needs shares")
		}
		for _, share := range spec.Shares {
			if _, err := activeParticipant(project, share.ParticipantID); err != nil {
				return "", nil, err
			}
			in.Exact = append(in.Exact, calculator.Share{ParticipantID: share.ParticipantID, Amount: share.Amount})
		}
	default:
		ids := spec.ParticipantIDs
		if len(ids) == 0 {
			for _, p := range project.Participants {
				if p.Active() {
					ids = append(ids, p.ID)
				}
			}
		}
		for _, id := range ids {
			p, err := activeParticipant(project, id)
			if err != nil {
				return "", nil, err
			}
			in.Participants = append(in.Participants, p.ID)
			in.Weights = append(in.Weights, max(p.Weight, 1))
		}
	}

	shares, err := calculator.CalculateSplit(in)
	if err != nil {
		return "", nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return mode, shares, nil
}

// PreviewSplit computes shares without storing anything.
func (s *ExpenseService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	if req.Msg.Amount <= 0 {
		return nil, invalidArgument("amount must be positive")
	}

	mode, shares, err := s.resolveSplit(ctx, actor, project, req.Msg.Amount, req.Msg.Split)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.PreviewSplitResponse{
		Mode:   string(mode),
		Shares: toAPISplitShares(shares),
	}), nil
}

// CreateExpense records an expense. Any member may record one.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateExpense request received",
		"project_id", req.Msg.ProjectID,
		"amount", req.Msg.Amount,
		"paid_by", req.Msg.PaidByID,
	)

	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Msg.Title)
	if title == "" {
		return nil, invalidArgument("title required")
	}
	if req.Msg.Amount <= 0 {
		return nil, invalidArgument("amount must be positive")
	}
	if _, err := activeParticipant(project, req.Msg.PaidByID); err != nil {
		return nil, err
	}
	_, shares, err := s.resolveSplit(ctx, actor, project, req.Msg.Amount, req.Msg.Split)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		ProjectID: project.ID,
		Title:     title,
		Amount:    req.Msg.Amount,
		PaidByID:  req.Msg.PaidByID,
		Date:      req.Msg.Date,
		Shares:    toModelShares(shares),
		CreatedBy: actor.UserID,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.Error("CreateExpense failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ExpenseCreated)

	s.logger.Info("Expense created", "expense_id", expense.ID, "project_id", project.ID)
	return connect.NewResponse(&api.CreateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// expenseInProject loads an expense and the project it belongs to.
func (s *ExpenseService) expenseInProject(ctx context.Context, actor permissions.Actor, expenseID string) (*models.Expense, *models.Project, error) {
	if expenseID == "" {
		return nil, nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, toConnectError(err)
	}
	project, err := loadProject(ctx, s.store, actor, expense.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return expense, project, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, req *connect.Request[api.GetExpenseRequest]) (*connect.Response[api.GetExpenseResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	expense, _, err := s.expenseInProject(ctx, actor, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

// UpdateExpense replaces an expense. Empty fields keep their stored value;
// the shares are kept when neither the split nor the amount changes.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	expense, project, err := s.expenseInProject(ctx, actor, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanEdit(actor, permissions.ForExpense(expense), project) {
		return nil, permissionDenied(errCannotEdit)
	}
	if touchesRemoved(project, expenseParticipants(expense)...) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errRemovedReference)
	}

	if title := strings.TrimSpace(req.Msg.Title); title != "" {
		expense.Title = title
	}
	if req.Msg.Amount < 0 {
		return nil, invalidArgument("amount must be positive")
	}
	amountChanged := req.Msg.Amount != 0 && req.Msg.Amount != expense.Amount
	if amountChanged {
		expense.Amount = req.Msg.Amount
	}
	if req.Msg.PaidByID != "" {
		if _, err := activeParticipant(project, req.Msg.PaidByID); err != nil {
			return nil, err
		}
		expense.PaidByID = req.Msg.PaidByID
	}
	if req.Msg.Date != 0 {
		expense.Date = req.Msg.Date
	}
	if req.Msg.Split != nil || amountChanged {
		_, shares, err := s.resolveSplit(ctx, actor, project, expense.Amount, req.Msg.Split)
		if err != nil {
			return nil, err
		}
		expense.Shares = toModelShares(shares)
	}

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		s.logger.Error("UpdateExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ExpenseUpdated)

	s.logger.Info("Expense updated", "expense_id", expense.ID, "user_id", actor.UserID)
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: toAPIExpense(expense)}), nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	expense, project, err := s.expenseInProject(ctx, actor, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanEdit(actor, permissions.ForExpense(expense), project) {
		return nil, permissionDenied(errCannotEdit)
	}
	if touchesRemoved(project, expenseParticipants(expense)...) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errRemovedReference)
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		s.logger.Error("DeleteExpense failed", "expense_id", expense.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ExpenseDeleted)

	s.logger.Info("Expense deleted", "expense_id", expense.ID, "user_id", actor.UserID)
	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// ListExpenses returns a project's expenses, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByProject(ctx, project.ID)
	if err != nil {
		s.logger.Error("ListExpenses failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toAPIExpense(e)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

func expenseParticipants(e *models.Expense) []string {
	ids := []string{e.PaidByID}
	for _, share := range e.Shares {
		ids = append(ids, share.ParticipantID)
	}
	return ids
}
