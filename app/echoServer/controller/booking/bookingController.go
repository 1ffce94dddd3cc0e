package booking

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"vehiclerental/app/echoServer/jwtx"
	"vehiclerental/app/echoServer/validation"
	"vehiclerental/model"
	bs "vehiclerental/service/booking"
	hs "vehiclerental/service/hold"
	"vehiclerental/service/lifecycle"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc   bs.Service
	Holds hs.Service
	V     *validation.Validator
	Log   *slog.Logger
}

// POST /v1/bookings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Reasons(err),
		})
	}
	uid, err := jwtx.RenterIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	in, err := req.toService()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad date format"})
	}

	out, err := h.Svc.Create(c.Request().Context(), uid, in)
	if err != nil {
		return h.fail(c, "booking create", err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":        out.Booking,
		"payment_url":    out.PaymentURL,
		"payment_due_at": out.PaymentDueAt,
	})
}

// GET /v1/bookings/:code
func (h *Controller) Get(c echo.Context) error {
	uid, err := jwtx.RenterIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	b, err := h.Svc.Get(c.Request().Context(), uid, c.Param("code"))
	if err != nil {
		return h.fail(c, "booking get", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// GET /v1/bookings/my
func (h *Controller) MyBookings(c echo.Context) error {
	uid, err := jwtx.RenterIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	rows, err := h.Svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("booking list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// POST /v1/bookings/:code/edit
func (h *Controller) Edit(c echo.Context) error {
	var req EditBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  validation.Reasons(err),
		})
	}
	uid, err := jwtx.RenterIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	terms, err := req.toService()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad date format"})
	}

	out, err := h.Svc.Edit(c.Request().Context(), uid, c.Param("code"), terms)
	if err != nil {
		return h.fail(c, "booking edit", err)
	}

	if out.Booking != nil {
		return c.JSON(http.StatusOK, echo.Map{"booking": out.Booking})
	}
	// Requested vehicle unavailable: actionable alternatives, never a
	// dead end. An empty list means no substitute exists at the station.
	return c.JSON(http.StatusConflict, echo.Map{
		"message": "requested vehicle unavailable",
		"reason":  out.Reason,
		"offers":  out.Offers,
	})
}

// POST /v1/bookings/:code/cancel
func (h *Controller) Cancel(c echo.Context) error {
	uid, err := jwtx.RenterIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	b, err := h.Holds.Cancel(c.Request().Context(), uid, c.Param("code"))
	if err != nil {
		h.Log.Error("booking cancel", "err", err)
		switch hs.Code(err) {
		case hs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
		case hs.ErrNotOwner:
			return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
		case hs.ErrAlreadyResolved:
			return c.JSON(http.StatusConflict, echo.Map{"message": "booking already resolved"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// POST /v1/bookings/:code/checkin
func (h *Controller) CheckIn(c echo.Context) error {
	return h.transition(c, h.Svc.CheckIn, "booking checkin")
}

// POST /v1/bookings/:code/return
func (h *Controller) Return(c echo.Context) error {
	return h.transition(c, h.Svc.Return, "booking return")
}

func (h *Controller) transition(c echo.Context, op func(ctx context.Context, renterID int64, code string) (*model.Booking, error), what string) error {
	uid, err := jwtx.RenterIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	b, err := op(c.Request().Context(), uid, c.Param("code"))
	if err != nil {
		return h.fail(c, what, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

func (h *Controller) fail(c echo.Context, what string, err error) error {
	h.Log.Error(what, "err", err)
	if errors.Is(err, lifecycle.ErrInvalidTransition) {
		// Integration bug, not a renter mistake.
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	switch bs.Code(err) {
	case bs.ErrValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case bs.ErrVerification:
		return c.JSON(http.StatusForbidden, echo.Map{
			"message": "identity verification not approved",
			"status":  detail(err),
		})
	case bs.ErrVehicleUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "vehicle unavailable"})
	case bs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "booking not found"})
	case bs.ErrNotOwner:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case bs.ErrEditNotAllowed:
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
	case bs.ErrAlreadyResolved:
		return c.JSON(http.StatusConflict, echo.Map{"message": "booking already resolved"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func detail(err error) string {
	s := err.Error()
	if i := strings.Index(s, ": "); i >= 0 {
		return s[i+2:]
	}
	return s
}
