package handler

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/usecase"
	"zorkdi/pkg/response"
	"zorkdi/pkg/utils"
)

type ProjectHandler struct {
	projectUseCase *usecase.ProjectUseCase
}

func NewProjectHandler(projectUseCase *usecase.ProjectUseCase) *ProjectHandler {
	return &ProjectHandler{
		projectUseCase: projectUseCase,
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending accepted in-progress completed rejected"`
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req usecase.CreateProjectInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	project, err := h.projectUseCase.Create(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, project)
}

func (h *ProjectHandler) ListProjects(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectUseCase.List(c.Request().Context(), actorFrom(c), params.PageSize, params.Offset)
	if err != nil {
		return response.Error(c, err)
	}
	return response.List(c, projects, total)
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	project, err := h.projectUseCase.Get(c.Request().Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, project)
}

func (h *ProjectHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	project, err := h.projectUseCase.UpdateStatus(c.Request().Context(), actorFrom(c), c.Param("id"), entity.ProjectStatus(req.Status))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, project)
}
