package config

import (
	"log/slog"
	"os"
)

func Load() App {
	cfg := App{
		Port:            getenv("APP_PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       getenv("JWT_SECRET", "local_dev_secret"),
		Env:             getenv("APP_ENV", "dev"),
		MerchantAccount: must("MERCHANT_ACCOUNT"),
		MerchantName:    getenv("MERCHANT_NAME", "Media Wallet"),
		MerchantCity:    getenv("MERCHANT_CITY", "Phnom Penh"),
		AuthorityURL:    must("AUTHORITY_URL"),
		AuthorityToken:  must("AUTHORITY_TOKEN"),
		StrictVerify:    getenv("STRICT_VERIFY", "true") != "false",
	}
	if !cfg.StrictVerify {
		slog.Warn("strict verification DISABLED - hard verifier errors will settle; never run this against real money")
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
