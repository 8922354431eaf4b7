package wallet

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	walletsvc "qrtopup/service/wallet"
)

type Controller struct {
	Svc walletsvc.Service
	Log *slog.Logger
}

// GET /v1/wallet
func (h *Controller) Balance(c echo.Context) error {
	userID := c.Get("user_id").(int64)
	u, err := h.Svc.Me(c.Request().Context(), userID)
	if err != nil {
		h.Log.Error("Balance failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": u})
}

// GET /v1/wallet/ledger
func (h *Controller) Ledger(c echo.Context) error {
	userID := c.Get("user_id").(int64)
	rows, err := h.Svc.Ledger(c.Request().Context(), userID)
	if err != nil {
		h.Log.Error("Ledger failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
