package healthtip

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/echomed/echomed/internal/platform/auth"
	"github.com/echomed/echomed/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/health-tips", h.List)
	api.GET("/health-tips/:id", h.Get)
	api.POST("/health-tips", h.Create, auth.RequireRole(auth.RoleAdmin))
	api.PUT("/health-tips/:id", h.Update, auth.RequireRole(auth.RoleAdmin))
	api.DELETE("/health-tips/:id", h.Delete, auth.RequireRole(auth.RoleAdmin))
	api.POST("/health-tips/generate", h.Generate, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) List(c echo.Context) error {
	filter := Filter{
		Language: c.QueryParam("language"),
		Category: c.QueryParam("category"),
	}
	pg := pagination.FromContext(c)
	list, total, err := h.svc.List(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tip, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "health tip not found")
	}
	return c.JSON(http.StatusOK, tip)
}

func (h *Handler) Create(c echo.Context) error {
	var tip HealthTip
	if err := c.Bind(&tip); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &tip); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tip)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var tip HealthTip
	if err := c.Bind(&tip); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tip.ID = id
	if err := h.svc.Update(c.Request().Context(), &tip); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, tip)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "health tip not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Generate(c echo.Context) error {
	var body struct {
		Category string `json:"category"`
		Language string `json:"language"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tip, err := h.svc.Generate(c.Request().Context(), body.Category, body.Language)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tip)
}
