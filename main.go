// Package main wallet top-up API.
//
// @title           QR Top-Up API
// @version         1.0
// @description     QR-based wallet top-up with external settlement verification.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"qrtopup/app/echoServer"
	topupctrl "qrtopup/app/echoServer/controller/topup"
	walletctrl "qrtopup/app/echoServer/controller/wallet"
	"qrtopup/config"
	authorityrepo "qrtopup/repository/authority"
	ledgerrepo "qrtopup/repository/ledger"
	topupsvc "qrtopup/service/topup"
	walletsvc "qrtopup/service/wallet"
	"qrtopup/util/database"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repositories
	ledger := ledgerrepo.New(db.Pool)
	authority := authorityrepo.NewHTTP(cfg.AuthorityURL, cfg.AuthorityToken)

	// services
	merchant := topupsvc.Merchant{
		Account: cfg.MerchantAccount,
		Name:    cfg.MerchantName,
		City:    cfg.MerchantCity,
	}
	topups := topupsvc.New(ledger, authority, merchant, cfg.StrictVerify, log)
	wallets := walletsvc.New(ledger)

	// background expiry sweep
	sweeper := topupsvc.NewSweeper(ledger, log)
	go sweeper.Run(ctx, time.Minute)

	// http
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e)

	v := validator.New()
	echoServer.Register(e, echoServer.C{
		Topup:     &topupctrl.Controller{Svc: topups, V: v, Log: log},
		Wallet:    &walletctrl.Controller{Svc: wallets, Log: log},
		JWTSecret: cfg.JWTSecret,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info("server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
