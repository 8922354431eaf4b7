package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"qrtopup/app/echoServer/controller/topup"
	"qrtopup/app/echoServer/controller/wallet"
	"qrtopup/app/echoServer/jwtx"
)

type C struct {
	Topup     *topup.Controller
	Wallet    *wallet.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	e.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// user_id extraction from the verified token
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			uid, err := jwtx.UserIDFromContext(ctx)
			if err != nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}
			ctx.Set("user_id", uid)
			return next(ctx)
		}
	})

	// Wallet
	auth.GET("/wallet", c.Wallet.Balance)
	auth.GET("/wallet/ledger", c.Wallet.Ledger)

	// Top-ups
	auth.POST("/wallet/topups", c.Topup.Create)         // returns QR payload
	auth.GET("/wallet/topups/:id", c.Topup.Status)      // poll target, credits on confirmation
	auth.GET("/wallet/topups/:id/qr.png", c.Topup.QRImage)
}
