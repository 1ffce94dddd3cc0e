package payment

import (
	"io"
	"log/slog"
	"net/http"

	paymentsvc "vehiclerental/service/payment"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc paymentsvc.Service
	Log *slog.Logger
}

// POST /v1/payment/midtrans
func (h *Controller) HandleMidtrans(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "cannot read body"})
	}

	res, err := h.Svc.HandleCallback(c.Request().Context(), raw)
	if err != nil {
		switch paymentsvc.Code(err) {
		case paymentsvc.ErrInvalidCallback:
			// Details already logged by the service; nothing changed.
			return c.JSON(http.StatusForbidden, echo.Map{"message": "callback rejected"})
		case paymentsvc.ErrUnknownOrder:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "unknown order"})
		default:
			h.Log.Error("payment callback", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"booking_code": res.BookingCode,
		"status":       res.Status,
		"applied":      res.Applied,
	})
}
