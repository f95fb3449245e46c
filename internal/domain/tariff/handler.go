package tariff

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mediclaim/mediclaim/internal/platform/auth"
	"github.com/mediclaim/mediclaim/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "billing"))
	g.GET("/facility-services", h.ListFacilityServices)
	g.GET("/facility-services/:id", h.GetFacilityService)
	g.GET("/insurances/:insuranceId/billable-services", h.ListServicesByInsurance)
	g.POST("/facility-services", h.CreateFacilityService)
	g.PUT("/facility-services/:id", h.UpdateFacilityService)
	g.DELETE("/facility-services/:id", h.RetireFacilityService)
	g.POST("/facility-services/:id/billable-services", h.UpsertBillableService)
	g.POST("/facility-services/:id/billable-services/:serviceId/retire", h.RetireBillableService)
	g.POST("/facility-services/:id/rederive", h.RederiveAll)
}

func actor(c echo.Context) uuid.UUID {
	id, _ := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	return id
}

func (h *Handler) CreateFacilityService(c echo.Context) error {
	var fsp FacilityServicePrice
	if err := c.Bind(&fsp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateFacilityService(c.Request().Context(), actor(c), &fsp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, fsp)
}

func (h *Handler) GetFacilityService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	fsp, err := h.svc.GetFacilityService(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "facility service not found")
	}
	return c.JSON(http.StatusOK, fsp)
}

func (h *Handler) ListFacilityServices(c echo.Context) error {
	pg := pagination.FromContext(c)
	retired := c.QueryParam("retired") == "true"
	items, total, err := h.svc.ListFacilityServices(c.Request().Context(), retired, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateFacilityService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var fsp FacilityServicePrice
	if err := c.Bind(&fsp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	fsp.ID = id
	if err := h.svc.UpdateFacilityService(c.Request().Context(), actor(c), &fsp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "facility service not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, fsp)
}

type retireRequest struct {
	RetiredDate *time.Time `json:"retired_date"`
	Reason      string     `json:"reason"`
}

func (r *retireRequest) date() time.Time {
	if r.RetiredDate != nil {
		return *r.RetiredDate
	}
	return time.Time{}
}

func (h *Handler) RetireFacilityService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req retireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RetireFacilityService(c.Request().Context(), actor(c), id, req.date(), req.Reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "facility service not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RetireBillableService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	serviceID, err := uuid.Parse(c.Param("serviceId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service id")
	}
	var req retireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RetireBillableService(c.Request().Context(), actor(c), id, serviceID, req.date(), req.Reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type upsertServiceRequest struct {
	InsuranceID uuid.UUID        `json:"insurance_id"`
	StartDate   *time.Time       `json:"start_date"`
	Override    *decimal.Decimal `json:"maxima_override"`
}

func (h *Handler) UpsertBillableService(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req upsertServiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start := time.Time{}
	if req.StartDate != nil {
		start = *req.StartDate
	}
	bs, err := h.svc.UpsertBillableService(c.Request().Context(), actor(c), id, req.InsuranceID, start, req.Override)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, bs)
}

type rederiveRequest struct {
	StartDate *time.Time `json:"start_date"`
}

func (h *Handler) RederiveAll(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req rederiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	start := time.Time{}
	if req.StartDate != nil {
		start = *req.StartDate
	}
	if err := h.svc.RederiveAll(c.Request().Context(), actor(c), id, start); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "facility service not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListServicesByInsurance(c echo.Context) error {
	insuranceID, err := uuid.Parse(c.Param("insuranceId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid insurance id")
	}
	items, err := h.svc.ServicesByInsurance(c.Request().Context(), insuranceID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
