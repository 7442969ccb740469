package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/permissions"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/api"
	"github.com/vilanovax/dangi-sub000/pkg/api/apiconnect"
)

// SettlementService implements the Connect SettlementService.
type SettlementService struct {
	store    storage.Store
	notifier *LedgerNotifier
	logger   *slog.Logger
}

var _ apiconnect.SettlementServiceHandler = (*SettlementService)(nil)

func NewSettlementService(store storage.Store, notifier *LedgerNotifier, logger *slog.Logger) *SettlementService {
	return &SettlementService{store: store, notifier: notifier, logger: logger}
}

// RecordSettlement records a direct payment from one participant to another.
func (s *SettlementService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
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
	if req.Msg.FromID == req.Msg.ToID {
		return nil, invalidArgument("cannot settle with oneself")
	}
	if _, err := activeParticipant(project, req.Msg.FromID); err != nil {
		return nil, err
	}
	if _, err := activeParticipant(project, req.Msg.ToID); err != nil {
		return nil, err
	}

	settlement := &models.Settlement{
		ProjectID: project.ID,
		FromID:    req.Msg.FromID,
		ToID:      req.Msg.ToID,
		Amount:    req.Msg.Amount,
		Date:      req.Msg.Date,
		Note:      strings.TrimSpace(req.Msg.Note),
		CreatedBy: actor.UserID,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		s.logger.Error("RecordSettlement failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.SettlementRecorded)

	s.logger.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"project_id", project.ID,
		"from", settlement.FromID,
		"to", settlement.ToID,
		"amount", settlement.Amount,
	)
	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ListSettlements returns a project's settlements, newest first.
func (s *SettlementService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByProject(ctx, project.ID)
	if err != nil {
		s.logger.Error("ListSettlements failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toAPISettlement(st)
	}
	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// DeleteSettlement removes a settlement. The owner, its recorder and the
// sending participant may delete it.
func (s *SettlementService) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.SettlementID == "" {
		return nil, invalidArgument("settlement_id required")
	}
	settlement, err := s.store.GetSettlement(ctx, req.Msg.SettlementID)
	if err != nil {
		return nil, toConnectError(err)
	}
	project, err := loadProject(ctx, s.store, actor, settlement.ProjectID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanEdit(actor, permissions.ForSettlement(settlement), project) {
		return nil, permissionDenied(errCannotEdit)
	}
	if touchesRemoved(project, settlement.FromID, settlement.ToID) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errRemovedReference)
	}

	if err := s.store.DeleteSettlement(ctx, settlement.ID); err != nil {
		s.logger.Error("DeleteSettlement failed", "settlement_id", settlement.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.SettlementDeleted)

	s.logger.Info("Settlement deleted", "settlement_id", settlement.ID, "user_id", actor.UserID)
	return connect.NewResponse(&api.DeleteSettlementResponse{}), nil
}
