package billing

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
	g.POST("/bills", h.OpenBill)
	g.GET("/bills", h.ListBills)
	g.GET("/bills/:id", h.GetBill)
	g.GET("/bills/:id/invoice", h.GetInvoice)
	g.POST("/bills/:id/evaluate", h.EvaluateBill)
	g.POST("/bills/:id/print", h.MarkPrinted)
	g.POST("/bills/:id/payments", h.RecordPayment)
	g.POST("/bills/:id/payments/:paymentId/void", h.VoidPayment)
	g.GET("/reports/refunds", h.RefundReport)
}

func actor(c echo.Context) uuid.UUID {
	id, _ := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	return id
}

type openBillRequest struct {
	BeneficiaryID uuid.UUID             `json:"beneficiary_id"`
	Items         []*PatientServiceBill `json:"items"`
}

func (h *Handler) OpenBill(c echo.Context) error {
	var req openBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pb, err := h.svc.OpenBill(c.Request().Context(), actor(c), req.BeneficiaryID, req.Items)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, pb)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pb, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, pb)
}

// ListBills filters by beneficiary_id, or by a start/end period.
func (h *Handler) ListBills(c echo.Context) error {
	ctx := c.Request().Context()
	pg := pagination.FromContext(c)

	if raw := c.QueryParam("beneficiary_id"); raw != "" {
		beneficiaryID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid beneficiary_id")
		}
		bills, total, err := h.svc.ListByBeneficiary(ctx, beneficiaryID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg.Limit, pg.Offset))
	}

	start, end, err := periodParams(c)
	if err != nil {
		return err
	}
	bills, total, err := h.svc.ListByPeriod(ctx, start, end, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg.Limit, pg.Offset))
}

func periodParams(c echo.Context) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid start date")
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "invalid end date")
	}
	return start, end, nil
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.ComposeInvoice(c.Request().Context(), id)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) EvaluateBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pb, err := h.svc.EvaluateBill(c.Request().Context(), id)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, pb)
}

func (h *Handler) MarkPrinted(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkPrinted(c.Request().Context(), id); err != nil {
		return billError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type recordPaymentRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	DateReceived time.Time       `json:"date_received"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req recordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pb, err := h.svc.RecordPayment(c.Request().Context(), actor(c), id, req.Amount, req.DateReceived)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, pb)
}

type voidPaymentRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) VoidPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment id")
	}
	var req voidPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	pb, err := h.svc.VoidPayment(c.Request().Context(), actor(c), id, paymentID, req.Reason)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, pb)
}

func (h *Handler) RefundReport(c echo.Context) error {
	start, end, err := periodParams(c)
	if err != nil {
		return err
	}
	var collector *uuid.UUID
	if raw := c.QueryParam("collector_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid collector_id")
		}
		collector = &id
	}
	report, err := h.svc.RefundedBills(c.Request().Context(), start, end, collector)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

func billError(err error) error {
	var missing *MissingRateError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAmount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &missing):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
