package topup

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	qrcode "github.com/skip2/go-qrcode"

	topupsvc "qrtopup/service/topup"

	"qrtopup/model"
	"qrtopup/util/emvqr"
)

type Controller struct {
	Svc topupsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

// POST /v1/wallet/topups
// @Summary Generate a payment QR for a wallet top-up
// @Success 201 {object} topupsvc.TopupCreated
// @Failure 400,401,500
func (h *Controller) Create(c echo.Context) error {
	var req CreateTopupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid json"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  map[string]string{"amount": "required, in (0,10000]", "currency": "USD or KHR"},
		})
	}
	userID := c.Get("user_id").(int64)

	res, err := h.Svc.Generate(c.Request().Context(), userID, req.Amount, model.Currency(req.Currency))
	switch {
	case errors.Is(err, topupsvc.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.Is(err, emvqr.ErrInvalidMerchantAccount):
		h.Log.Error("merchant account misconfigured", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	case err != nil:
		h.Log.Error("Generate failed", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, res)
}

// GET /v1/wallet/topups/:id
// @Summary Check settlement status; credits the wallet on confirmation
// @Success 200 {object} topupsvc.StatusResult
// @Failure 401,404,409,500
func (h *Controller) Status(c echo.Context) error {
	txID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	userID := c.Get("user_id").(int64)

	res, err := h.Svc.CheckStatus(c.Request().Context(), userID, txID)
	switch {
	case errors.Is(err, topupsvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case errors.Is(err, topupsvc.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"message": "transaction no longer creditable"})
	case err != nil:
		h.Log.Error("CheckStatus failed", "tx_id", txID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, res)
}

// GET /v1/wallet/topups/:id/qr.png
func (h *Controller) QRImage(c echo.Context) error {
	txID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	userID := c.Get("user_id").(int64)

	payload, err := h.Svc.Payload(c.Request().Context(), userID, txID)
	if errors.Is(err, topupsvc.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	if err != nil {
		h.Log.Error("Payload failed", "tx_id", txID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, 512)
	if err != nil {
		h.Log.Error("qr render failed", "tx_id", txID, "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
