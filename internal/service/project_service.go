package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/internal/calculator"
	"github.com/vilanovax/dangi-sub000/internal/events"
	"github.com/vilanovax/dangi-sub000/internal/models"
	"github.com/vilanovax/dangi-sub000/internal/permissions"
	"github.com/vilanovax/dangi-sub000/internal/storage"
	"github.com/vilanovax/dangi-sub000/pkg/api"
	"github.com/vilanovax/dangi-sub000/pkg/api/apiconnect"
)

// DefaultCurrency is used when a project is created without one.
const DefaultCurrency = "IRR"

// ProjectService implements the Connect ProjectService.
type ProjectService struct {
	store     storage.Store
	summaries *Summarizer
	notifier  *LedgerNotifier
	logger    *slog.Logger
	now       func() time.Time
}

var _ apiconnect.ProjectServiceHandler = (*ProjectService)(nil)

// NewProjectService creates a ProjectService over the given store.
func NewProjectService(store storage.Store, summaries *Summarizer, notifier *LedgerNotifier, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		store:     store,
		summaries: summaries,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func newParticipant(in *api.NewParticipant) (models.Participant, error) {
	if in == nil {
		return models.Participant{}, invalidArgument("participant required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Participant{}, invalidArgument("participant name required")
	}
	if in.Weight < 0 || in.Weight > calculator.MaxWeight {
		return models.Participant{}, invalidArgument("participant weight must be between 0 and %d", calculator.MaxWeight)
	}
	return models.Participant{
		Name:   name,
		Weight: max(in.Weight, 1),
		Role:   models.RoleMember,
		UserID: in.UserID,
	}, nil
}

// CreateProject creates a project owned by the caller. The caller joins as
// the first participant.
func (s *ProjectService) CreateProject(ctx context.Context, req *connect.Request[api.CreateProjectRequest]) (*connect.Response[api.CreateProjectResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateProject request received",
		"user_id", actor.UserID,
		"template", req.Msg.Template,
		"participants_count", len(req.Msg.Participants),
	)

	template, err := models.ParseTemplate(req.Msg.Template)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Msg.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	ownerName := strings.TrimSpace(req.Msg.OwnerName)
	if ownerName == "" {
		user, err := s.store.GetUserByID(ctx, actor.UserID)
		if err != nil {
			s.logger.Error("CreateProject failed to load owner", "user_id", actor.UserID, "error", err)
			return nil, toConnectError(err)
		}
		ownerName = user.DisplayName
	}
	if req.Msg.OwnerWeight < 0 || req.Msg.OwnerWeight > calculator.MaxWeight {
		return nil, invalidArgument("owner weight must be between 0 and %d", calculator.MaxWeight)
	}

	project := &models.Project{
		Name:     strings.TrimSpace(req.Msg.Name),
		Template: template,
		Currency: currency,
		OwnerID:  actor.UserID,
		Participants: []models.Participant{{
			Name:   ownerName,
			Weight: max(req.Msg.OwnerWeight, 1),
			Role:   models.RoleOwner,
			UserID: actor.UserID,
		}},
	}
	linked := map[string]bool{actor.UserID: true}
	for _, in := range req.Msg.Participants {
		p, err := newParticipant(in)
		if err != nil {
			return nil, err
		}
		if p.UserID != "" {
			if linked[p.UserID] {
				return nil, invalidArgument("user %q is linked to more than one participant", p.UserID)
			}
			linked[p.UserID] = true
		}
		project.Participants = append(project.Participants, p)
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		s.logger.Error("CreateProject failed", "error", err)
		return nil, toConnectError(err)
	}

	s.logger.Info("Project created", "project_id", project.ID, "template", project.Template)
	return connect.NewResponse(&api.CreateProjectResponse{Project: toAPIProject(project)}), nil
}

// GetProject returns a project the caller is a member of.
func (s *ProjectService) GetProject(ctx context.Context, req *connect.Request[api.GetProjectRequest]) (*connect.Response[api.GetProjectResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		s.logger.Warn("GetProject failed", "project_id", req.Msg.ProjectID, "error", err)
		return nil, err
	}
	return connect.NewResponse(&api.GetProjectResponse{Project: toAPIProject(project)}), nil
}

// ListProjects returns every project the caller owns or participates in.
func (s *ProjectService) ListProjects(ctx context.Context, req *connect.Request[api.ListProjectsRequest]) (*connect.Response[api.ListProjectsResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	projects, err := s.store.ListProjectsForUser(ctx, actor.UserID)
	if err != nil {
		s.logger.Error("ListProjects failed", "user_id", actor.UserID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Project, len(projects))
	for i, p := range projects {
		out[i] = toAPIProject(p)
	}
	s.logger.Info("ListProjects successful", "user_id", actor.UserID, "count", len(out))
	return connect.NewResponse(&api.ListProjectsResponse{Projects: out}), nil
}

// UpdateProject renames a project or changes its display currency.
func (s *ProjectService) UpdateProject(ctx context.Context, req *connect.Request[api.UpdateProjectRequest]) (*connect.Response[api.UpdateProjectResponse], error) {
	actor, project, err := s.managedProject(ctx, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Msg.Name); name != "" {
		project.Name = name
	}
	if currency := strings.TrimSpace(req.Msg.Currency); currency != "" {
		project.Currency = strings.ToUpper(currency)
	}

	if err := s.store.UpdateProject(ctx, project); err != nil {
		s.logger.Error("UpdateProject failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ProjectUpdated)

	s.logger.Info("Project updated", "project_id", project.ID, "user_id", actor.UserID)
	return connect.NewResponse(&api.UpdateProjectResponse{Project: toAPIProject(project)}), nil
}

// DeleteProject removes a project and its whole ledger.
func (s *ProjectService) DeleteProject(ctx context.Context, req *connect.Request[api.DeleteProjectRequest]) (*connect.Response[api.DeleteProjectResponse], error) {
	actor, project, err := s.managedProject(ctx, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteProject(ctx, project.ID); err != nil {
		s.logger.Error("DeleteProject failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ProjectDeleted)

	s.logger.Info("Project deleted", "project_id", project.ID, "user_id", actor.UserID)
	return connect.NewResponse(&api.DeleteProjectResponse{}), nil
}

// AddParticipant adds a participant to a project.
func (s *ProjectService) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	_, project, err := s.managedProject(ctx, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	participant, err := newParticipant(req.Msg.Participant)
	if err != nil {
		return nil, err
	}
	if participant.UserID != "" {
		if _, taken := project.ParticipantForUser(participant.UserID); taken {
			return nil, connect.NewError(connect.CodeAlreadyExists,
				fmt.Errorf("user %q already participates in this project", participant.UserID))
		}
	}
	participant.ProjectID = project.ID

	if err := s.store.AddParticipant(ctx, &participant); err != nil {
		s.logger.Error("AddParticipant failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ParticipantAdded)

	s.logger.Info("Participant added", "project_id", project.ID, "participant_id", participant.ID)
	return connect.NewResponse(&api.AddParticipantResponse{Participant: toAPIParticipant(&participant)}), nil
}

// RemoveParticipant soft-removes a participant whose balance is exactly zero.
func (s *ProjectService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	_, project, err := s.managedProject(ctx, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	participant, err := activeParticipant(project, req.Msg.ParticipantID)
	if err != nil {
		return nil, err
	}
	if participant.Role == models.RoleOwner {
		return nil, failedPrecondition("the owner cannot be removed")
	}

	now := s.now()
	settled := func(snap *storage.Snapshot) error {
		return settledUp(snap, participant.ID, calculator.PeriodOf(now))
	}
	if err := s.store.RemoveParticipant(ctx, project.ID, participant.ID, now.Unix(), settled); err != nil {
		s.logger.Warn("RemoveParticipant failed", "project_id", project.ID, "participant_id", participant.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ParticipantRemoved)

	s.logger.Info("Participant removed", "project_id", project.ID, "participant_id", participant.ID)
	return connect.NewResponse(&api.RemoveParticipantResponse{}), nil
}

// settledUp fails unless the participant's balance and charge debt are both
// zero in snap.
func settledUp(snap *storage.Snapshot, participantID string, period calculator.Period) error {
	summary, err := ComputeSummary(snap, period)
	if err != nil {
		return err
	}
	for _, b := range summary.Balances {
		if b.ParticipantID == participantID && b.Balance != 0 {
			return failedPrecondition("participant balance is %d; settle it before removal", b.Balance)
		}
	}
	for _, d := range summary.ChargeDebts {
		if d.ParticipantID == participantID && d.ChargeDebt != 0 {
			return failedPrecondition("participant owes %d in charges", d.ChargeDebt)
		}
	}
	return nil
}

// SetChargeRule configures the monthly due of a building project.
func (s *ProjectService) SetChargeRule(ctx context.Context, req *connect.Request[api.SetChargeRuleRequest]) (*connect.Response[api.SetChargeRuleResponse], error) {
	_, project, err := s.managedProject(ctx, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.Template.HasCharges() {
		return nil, failedPrecondition("%s projects do not track charges", project.Template)
	}
	if req.Msg.AmountPerUnit <= 0 {
		return nil, invalidArgument("amount per unit must be positive")
	}
	start, err := calculator.ParsePeriod(req.Msg.StartPeriod)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	rule := &models.ChargeRule{
		ProjectID:     project.ID,
		AmountPerUnit: req.Msg.AmountPerUnit,
		StartPeriod:   start.String(),
	}
	if err := s.store.SetChargeRule(ctx, rule); err != nil {
		s.logger.Error("SetChargeRule failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ChargeRuleSet)

	s.logger.Info("Charge rule set", "project_id", project.ID, "amount_per_unit", rule.AmountPerUnit, "start", rule.StartPeriod)
	return connect.NewResponse(&api.SetChargeRuleResponse{ChargeRule: toAPIChargeRule(rule)}), nil
}

// RecordChargePayment records a payment toward one month's due. The owner may
// record for anyone; members only for their own participant.
func (s *ProjectService) RecordChargePayment(ctx context.Context, req *connect.Request[api.RecordChargePaymentRequest]) (*connect.Response[api.RecordChargePaymentResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.Template.HasCharges() || project.ChargeRule == nil {
		return nil, failedPrecondition("project has no charge rule")
	}
	if req.Msg.Amount <= 0 {
		return nil, invalidArgument("amount must be positive")
	}
	period, err := calculator.ParsePeriod(req.Msg.Period)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	participant, err := activeParticipant(project, req.Msg.ParticipantID)
	if err != nil {
		return nil, err
	}
	if !permissions.CanEdit(actor, permissions.Resource{ParticipantID: participant.ID}, project) {
		return nil, permissionDenied(errCannotEdit)
	}

	payment := &models.ChargePayment{
		ProjectID:     project.ID,
		ParticipantID: participant.ID,
		Period:        period.String(),
		Amount:        req.Msg.Amount,
		CreatedBy:     actor.UserID,
	}
	if err := s.store.CreateChargePayment(ctx, payment); err != nil {
		s.logger.Error("RecordChargePayment failed", "project_id", project.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.notifier.Changed(ctx, project.ID, events.ChargePaid)

	s.logger.Info("Charge payment recorded", "project_id", project.ID, "participant_id", participant.ID, "period", payment.Period)
	return connect.NewResponse(&api.RecordChargePaymentResponse{Payment: toAPIChargePayment(payment)}), nil
}

// GetProjectSummary returns balances, suggested settlements and, for building
// projects, charge debts up to the requested period.
func (s *ProjectService) GetProjectSummary(ctx context.Context, req *connect.Request[api.GetProjectSummaryRequest]) (*connect.Response[api.GetProjectSummaryResponse], error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	project, err := loadProject(ctx, s.store, actor, req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}

	prefs, err := preferencesFor(ctx, s.store, actor)
	if err != nil {
		return nil, err
	}
	period, err := s.resolvePeriod(req.Msg.Period, prefs)
	if err != nil {
		return nil, err
	}

	summary, err := s.summaries.Summary(ctx, project.ID, period)
	if err != nil {
		return nil, toConnectError(err)
	}

	s.logger.Info("GetProjectSummary successful",
		"project_id", project.ID,
		"period", period.String(),
		"transfers", len(summary.Settlements),
	)
	return connect.NewResponse(&api.GetProjectSummaryResponse{Summary: summary}), nil
}

// resolvePeriod picks the requested period, then the caller's selected
// period, then the current month.
func (s *ProjectService) resolvePeriod(requested string, prefs models.UserPreferences) (calculator.Period, error) {
	for _, candidate := range []string{requested, prefs.SelectedPeriod} {
		if candidate == "" {
			continue
		}
		p, err := calculator.ParsePeriod(candidate)
		if err != nil {
			return calculator.Period{}, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return p, nil
	}
	return calculator.PeriodOf(s.now()), nil
}

// managedProject loads a project the caller owns.
func (s *ProjectService) managedProject(ctx context.Context, projectID string) (permissions.Actor, *models.Project, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return actor, nil, err
	}
	project, err := loadProject(ctx, s.store, actor, projectID)
	if err != nil {
		return actor, nil, err
	}
	if !permissions.CanManageProject(actor, project) {
		return actor, nil, permissionDenied(errNotOwner)
	}
	return actor, project, nil
}
