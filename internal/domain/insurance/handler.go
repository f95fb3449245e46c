package insurance

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

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
	g.GET("/insurances", h.ListInsurances)
	g.GET("/insurances/:id", h.GetInsurance)
	g.GET("/insurances/:id/rate", h.GetCurrentRate)
	g.POST("/insurances", h.CreateInsurance)
	g.POST("/insurances/:id/rates", h.SetRate)
	g.POST("/insurances/:id/rates/:rateId/retire", h.RetireRate)
	g.DELETE("/insurances/:id", h.VoidInsurance)

	g.GET("/third-parties", h.ListThirdParties)
	g.GET("/third-parties/:id", h.GetThirdParty)
	g.POST("/third-parties", h.CreateThirdParty)
	g.DELETE("/third-parties/:id", h.VoidThirdParty)
}

func actor(c echo.Context) uuid.UUID {
	id, _ := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	return id
}

type createInsuranceRequest struct {
	Insurance
	InitialRate *InsuranceRate `json:"initial_rate"`
}

func (h *Handler) CreateInsurance(c echo.Context) error {
	var req createInsuranceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Insurance.CreatedBy = actor(c)
	if err := h.svc.CreateInsurance(c.Request().Context(), &req.Insurance, req.InitialRate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, req.Insurance)
}

func (h *Handler) GetInsurance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ins, err := h.svc.GetInsurance(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "insurance not found")
	}
	return c.JSON(http.StatusOK, ins)
}

func (h *Handler) ListInsurances(c echo.Context) error {
	pg := pagination.FromContext(c)
	voided := c.QueryParam("voided") == "true"
	items, total, err := h.svc.ListInsurances(c.Request().Context(), voided, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetCurrentRate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rate, err := h.svc.CurrentRate(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNoCurrentRate) {
			return echo.NewHTTPError(http.StatusNotFound, "insurance has no current rate")
		}
		return echo.NewHTTPError(http.StatusNotFound, "insurance not found")
	}
	return c.JSON(http.StatusOK, rate)
}

func (h *Handler) SetRate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var rate InsuranceRate
	if err := c.Bind(&rate); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetRate(c.Request().Context(), actor(c), id, &rate); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "insurance not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rate)
}

type retireRateRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RetireRate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rateID, err := uuid.Parse(c.Param("rateId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid rate id")
	}
	var req retireRateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RetireRate(c.Request().Context(), actor(c), id, rateID, req.Reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type voidRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) VoidInsurance(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req voidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.VoidInsurance(c.Request().Context(), actor(c), id, req.Reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "insurance not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Third parties --

func (h *Handler) CreateThirdParty(c echo.Context) error {
	var tp ThirdParty
	if err := c.Bind(&tp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tp.CreatedBy = actor(c)
	if err := h.svc.CreateThirdParty(c.Request().Context(), &tp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, tp)
}

func (h *Handler) GetThirdParty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	tp, err := h.svc.GetThirdParty(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "third party not found")
	}
	return c.JSON(http.StatusOK, tp)
}

func (h *Handler) ListThirdParties(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListThirdParties(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) VoidThirdParty(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.VoidThirdParty(c.Request().Context(), actor(c), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "third party not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
