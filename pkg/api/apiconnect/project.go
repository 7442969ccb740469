package apiconnect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/vilanovax/dangi-sub000/pkg/api"
)

// ProjectServiceName is the fully-qualified name of the ProjectService.
const ProjectServiceName = "dangi.v1.ProjectService"

const (
	ProjectServiceCreateProjectProcedure       = "/" + ProjectServiceName + "/CreateProject"
	ProjectServiceGetProjectProcedure          = "/" + ProjectServiceName + "/GetProject"
	ProjectServiceListProjectsProcedure        = "/" + ProjectServiceName + "/ListProjects"
	ProjectServiceUpdateProjectProcedure       = "/" + ProjectServiceName + "/UpdateProject"
	ProjectServiceDeleteProjectProcedure       = "/" + ProjectServiceName + "/DeleteProject"
	ProjectServiceAddParticipantProcedure      = "/" + ProjectServiceName + "/AddParticipant"
	ProjectServiceRemoveParticipantProcedure   = "/" + ProjectServiceName + "/RemoveParticipant"
	ProjectServiceSetChargeRuleProcedure       = "/" + ProjectServiceName + "/SetChargeRule"
	ProjectServiceRecordChargePaymentProcedure = "/" + ProjectServiceName + "/RecordChargePayment"
	ProjectServiceGetProjectSummaryProcedure   = "/" + ProjectServiceName + "/GetProjectSummary"
)

// ProjectServiceHandler is implemented by the server side of the ProjectService.
// Projects, participants, charges and summaries.
type ProjectServiceHandler interface {
	CreateProject(context.Context, *connect.Request[api.CreateProjectRequest]) (*connect.Response[api.CreateProjectResponse], error)
	GetProject(context.Context, *connect.Request[api.GetProjectRequest]) (*connect.Response[api.GetProjectResponse], error)
	ListProjects(context.Context, *connect.Request[api.ListProjectsRequest]) (*connect.Response[api.ListProjectsResponse], error)
	UpdateProject(context.Context, *connect.Request[api.UpdateProjectRequest]) (*connect.Response[api.UpdateProjectResponse], error)
	DeleteProject(context.Context, *connect.Request[api.DeleteProjectRequest]) (*connect.Response[api.DeleteProjectResponse], error)
	AddParticipant(context.Context, *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	SetChargeRule(context.Context, *connect.Request[api.SetChargeRuleRequest]) (*connect.Response[api.SetChargeRuleResponse], error)
	RecordChargePayment(context.Context, *connect.Request[api.RecordChargePaymentRequest]) (*connect.Response[api.RecordChargePaymentResponse], error)
	GetProjectSummary(context.Context, *connect.Request[api.GetProjectSummaryRequest]) (*connect.Response[api.GetProjectSummaryResponse], error)
}

// NewProjectServiceHandler builds an HTTP handler serving every ProjectService procedure.
// It returns the path to mount the handler on.
func NewProjectServiceHandler(svc ProjectServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(ProjectServiceCreateProjectProcedure, connect.NewUnaryHandler(ProjectServiceCreateProjectProcedure, svc.CreateProject, opts...))
	mux.Handle(ProjectServiceGetProjectProcedure, connect.NewUnaryHandler(ProjectServiceGetProjectProcedure, svc.GetProject, opts...))
	mux.Handle(ProjectServiceListProjectsProcedure, connect.NewUnaryHandler(ProjectServiceListProjectsProcedure, svc.ListProjects, opts...))
	mux.Handle(ProjectServiceUpdateProjectProcedure, connect.NewUnaryHandler(ProjectServiceUpdateProjectProcedure, svc.UpdateProject, opts...))
	mux.Handle(ProjectServiceDeleteProjectProcedure, connect.NewUnaryHandler(ProjectServiceDeleteProjectProcedure, svc.DeleteProject, opts...))
	mux.Handle(ProjectServiceAddParticipantProcedure, connect.NewUnaryHandler(ProjectServiceAddParticipantProcedure, svc.AddParticipant, opts...))
	mux.Handle(ProjectServiceRemoveParticipantProcedure, connect.NewUnaryHandler(ProjectServiceRemoveParticipantProcedure, svc.RemoveParticipant, opts...))
	mux.Handle(ProjectServiceSetChargeRuleProcedure, connect.NewUnaryHandler(ProjectServiceSetChargeRuleProcedure, svc.SetChargeRule, opts...))
	mux.Handle(ProjectServiceRecordChargePaymentProcedure, connect.NewUnaryHandler(ProjectServiceRecordChargePaymentProcedure, svc.RecordChargePayment, opts...))
	mux.Handle(ProjectServiceGetProjectSummaryProcedure, connect.NewUnaryHandler(ProjectServiceGetProjectSummaryProcedure, svc.GetProjectSummary, opts...))
	return "/" + ProjectServiceName + "/", mux
}

// ProjectServiceClient calls a remote ProjectService.
type ProjectServiceClient struct {
	createProject       *connect.Client[api.CreateProjectRequest, api.CreateProjectResponse]
	getProject          *connect.Client[api.GetProjectRequest, api.GetProjectResponse]
	listProjects        *connect.Client[api.ListProjectsRequest, api.ListProjectsResponse]
	updateProject       *connect.Client[api.UpdateProjectRequest, api.UpdateProjectResponse]
	deleteProject       *connect.Client[api.DeleteProjectRequest, api.DeleteProjectResponse]
	addParticipant      *connect.Client[api.AddParticipantRequest, api.AddParticipantResponse]
	removeParticipant   *connect.Client[api.RemoveParticipantRequest, api.RemoveParticipantResponse]
	setChargeRule       *connect.Client[api.SetChargeRuleRequest, api.SetChargeRuleResponse]
	recordChargePayment *connect.Client[api.RecordChargePaymentRequest, api.RecordChargePaymentResponse]
	getProjectSummary   *connect.Client[api.GetProjectSummaryRequest, api.GetProjectSummaryResponse]
}

// NewProjectServiceClient returns a client for the ProjectService at baseURL.
func NewProjectServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ProjectServiceClient {
	opts = clientOptions(opts)
	return &ProjectServiceClient{
		createProject:       connect.NewClient[api.CreateProjectRequest, api.CreateProjectResponse](httpClient, baseURL+ProjectServiceCreateProjectProcedure, opts...),
		getProject:          connect.NewClient[api.GetProjectRequest, api.GetProjectResponse](httpClient, baseURL+ProjectServiceGetProjectProcedure, opts...),
		listProjects:        connect.NewClient[api.ListProjectsRequest, api.ListProjectsResponse](httpClient, baseURL+ProjectServiceListProjectsProcedure, opts...),
		updateProject:       connect.NewClient[api.UpdateProjectRequest, api.UpdateProjectResponse](httpClient, baseURL+ProjectServiceUpdateProjectProcedure, opts...),
		deleteProject:       connect.NewClient[api.DeleteProjectRequest, api.DeleteProjectResponse](httpClient, baseURL+ProjectServiceDeleteProjectProcedure, opts...),
		addParticipant:      connect.NewClient[api.AddParticipantRequest, api.AddParticipantResponse](httpClient, baseURL+ProjectServiceAddParticipantProcedure, opts...),
		removeParticipant:   connect.NewClient[api.RemoveParticipantRequest, api.RemoveParticipantResponse](httpClient, baseURL+ProjectServiceRemoveParticipantProcedure, opts...),
		setChargeRule:       connect.NewClient[api.SetChargeRuleRequest, api.SetChargeRuleResponse](httpClient, baseURL+ProjectServiceSetChargeRuleProcedure, opts...),
		recordChargePayment: connect.NewClient[api.RecordChargePaymentRequest, api.RecordChargePaymentResponse](httpClient, baseURL+ProjectServiceRecordChargePaymentProcedure, opts...),
		getProjectSummary:   connect.NewClient[api.GetProjectSummaryRequest, api.GetProjectSummaryResponse](httpClient, baseURL+ProjectServiceGetProjectSummaryProcedure, opts...),
	}
}

func (c *ProjectServiceClient) CreateProject(ctx context.Context, req *connect.Request[api.CreateProjectRequest]) (*connect.Response[api.CreateProjectResponse], error) {
	return c.createProject.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) GetProject(ctx context.Context, req *connect.Request[api.GetProjectRequest]) (*connect.Response[api.GetProjectResponse], error) {
	return c.getProject.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) ListProjects(ctx context.Context, req *connect.Request[api.ListProjectsRequest]) (*connect.Response[api.ListProjectsResponse], error) {
	return c.listProjects.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) UpdateProject(ctx context.Context, req *connect.Request[api.UpdateProjectRequest]) (*connect.Response[api.UpdateProjectResponse], error) {
	return c.updateProject.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) DeleteProject(ctx context.Context, req *connect.Request[api.DeleteProjectRequest]) (*connect.Response[api.DeleteProjectResponse], error) {
	return c.deleteProject.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) AddParticipant(ctx context.Context, req *connect.Request[api.AddParticipantRequest]) (*connect.Response[api.AddParticipantResponse], error) {
	return c.addParticipant.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) SetChargeRule(ctx context.Context, req *connect.Request[api.SetChargeRuleRequest]) (*connect.Response[api.SetChargeRuleResponse], error) {
	return c.setChargeRule.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) RecordChargePayment(ctx context.Context, req *connect.Request[api.RecordChargePaymentRequest]) (*connect.Response[api.RecordChargePaymentResponse], error) {
	return c.recordChargePayment.CallUnary(ctx, req)
}

func (c *ProjectServiceClient) GetProjectSummary(ctx context.Context, req *connect.Request[api.GetProjectSummaryRequest]) (*connect.Response[api.GetProjectSummaryResponse], error) {
	return c.getProjectSummary.CallUnary(ctx, req)
}
