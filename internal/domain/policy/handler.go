package policy

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediclaim/mediclaim/internal/config"
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
	g.GET("/policies", h.ListPolicies)
	g.GET("/policies/:id", h.GetPolicy)
	g.GET("/policies/by-card/:card", h.GetPolicyByCard)
	g.GET("/policies/card-exists/:card", h.CardExists)
	g.GET("/beneficiaries/:policyNumber", h.GetBeneficiary)
	g.GET("/patients/:patientId/policies", h.ListPatientPolicies)
	g.POST("/policies", h.CreatePolicy)
	g.POST("/policies/:id/beneficiaries", h.AddBeneficiary)
	g.DELETE("/policies/:id", h.RetirePolicy)
}

func actor(c echo.Context) uuid.UUID {
	id, _ := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	return id
}

func (h *Handler) CreatePolicy(c echo.Context) error {
	var p InsurancePolicy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePolicy(c.Request().Context(), actor(c), &p); err != nil {
		switch {
		case errors.Is(err, ErrCardExists):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, config.ErrNotConfigured), errors.Is(err, ErrNoIdentifier):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPolicy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPolicy(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "policy not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPolicyByCard(c echo.Context) error {
	p, err := h.svc.PolicyByCardNumber(c.Request().Context(), c.Param("card"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "policy not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CardExists(c echo.Context) error {
	exists, err := h.svc.CardNumberExists(c.Request().Context(), c.Param("card"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) GetBeneficiary(c echo.Context) error {
	b, err := h.svc.BeneficiaryByPolicyNumber(c.Request().Context(), c.Param("policyNumber"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "beneficiary not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListPatientPolicies(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.PoliciesByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPolicies(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPolicies(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddBeneficiary(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var b Beneficiary
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddBeneficiary(c.Request().Context(), actor(c), id, &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "policy not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

type retireRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) RetirePolicy(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req retireRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.RetirePolicy(c.Request().Context(), actor(c), id, req.Reason); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "policy not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
