package handler

import (
	"context"

	"github.com/sirupsen/logrus"

	"alightgram/model"
	"alightgram/rpc"
	"alightgram/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	logger   *logrus.Entry
}

func NewProjectHandler(projects *service.ProjectService, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		logger:   logger.WithField("handler", "project"),
	}
}

func (h *ProjectHandler) CreateProject(ctx context.Context, req *rpc.CreateProjectRequest) (*rpc.ProjectResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	project, err := h.projects.CreateProject(ctx, principal.UID, service.ProjectDraft{
		Title:        req.Title,
		Description:  req.Description,
		XMLContent:   req.XMLContent,
		IsPublic:     req.IsPublic,
		Tags:         req.Tags,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		return nil, toStatus(h.logger, err, "create project")
	}
	return &rpc.ProjectResponse{Project: project}, nil
}

func (h *ProjectHandler) GetProject(ctx context.Context, req *rpc.ProjectRequest) (*rpc.ProjectResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	project, err := h.projects.GetProject(ctx, principal.UID, req.ID)
	if err != nil {
		return nil, toStatus(h.logger, err, "get project")
	}
	return &rpc.ProjectResponse{Project: project}, nil
}

func (h *ProjectHandler) UpdateProject(ctx context.Context, req *rpc.UpdateProjectRequest) (*rpc.ProjectResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	project, err := h.projects.UpdateProject(ctx, principal.UID, req.ID, models.ProjectUpdate{
		Title:        req.Title,
		Description:  req.Description,
		XMLContent:   req.XMLContent,
		IsPublic:     req.IsPublic,
		Tags:         req.Tags,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
	})
	if err != nil {
		return nil, toStatus(h.logger, err, "update project")
	}
	return &rpc.ProjectResponse{Project: project}, nil
}

func (h *ProjectHandler) DeleteProject(ctx context.Context, req *rpc.ProjectRequest) (*rpc.Empty, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if err := h.projects.DeleteProject(ctx, principal.UID, req.ID); err != nil {
		return nil, toStatus(h.logger, err, "delete project")
	}
	h.logger.WithFields(logrus.Fields{"project_id": req.ID, "uid": principal.UID}).Info("Project deleted")
	return &rpc.Empty{}, nil
}

func (h *ProjectHandler) ListFeed(ctx context.Context, _ *rpc.Empty) (*rpc.ProjectsResponse, error) {
	projects, err := h.projects.ListFeed(ctx)
	if err != nil {
		return nil, toStatus(h.logger, err, "list feed")
	}
	return &rpc.ProjectsResponse{Projects: projects}, nil
}

func (h *ProjectHandler) ListProjectsForOwner(ctx context.Context, req *rpc.UserRequest) (*rpc.ProjectsResponse, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	projects, err := h.projects.ListProjectsForOwner(ctx, req.UID, principal.UID)
	if err != nil {
		return nil, toStatus(h.logger, err, "list projects")
	}
	return &rpc.ProjectsResponse{Projects: projects}, nil
}

func (h *ProjectHandler) SearchProjects(ctx context.Context, req *rpc.SearchRequest) (*rpc.ProjectsResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	projects, err := h.projects.SearchProjects(ctx, req.Query)
	if err != nil {
		return nil, toStatus(h.logger, err, "search projects")
	}
	return &rpc.ProjectsResponse{Projects: projects}, nil
}

// LikeProject always succeeds once the request is valid; like failures are
// logged by the service.
func (h *ProjectHandler) LikeProject(ctx context.Context, req *rpc.LikeProjectRequest) (*rpc.Empty, error) {
	principal, err := principalFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	h.projects.LikeProject(ctx, principal.UID, req.ID, req.Delta)
	return &rpc.Empty{}, nil
}

func (h *ProjectHandler) SuggestTags(ctx context.Context, req *rpc.SuggestTagsRequest) (*rpc.TagsResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return &rpc.TagsResponse{Tags: h.projects.SuggestTags(ctx, req.Title, req.XMLContent)}, nil
}
