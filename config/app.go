package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	// QR payload identity. MerchantAccount must be a name@routing
	// account id at the payment rail.
	MerchantAccount string `env:"MERCHANT_ACCOUNT,required"`
	MerchantName    string `env:"MERCHANT_NAME" default:"Media Wallet"`
	MerchantCity    string `env:"MERCHANT_CITY" default:"Phnom Penh"`

	// External settlement authority.
	AuthorityURL   string `env:"AUTHORITY_URL,required"`
	AuthorityToken string `env:"AUTHORITY_TOKEN,required"`

	// StrictVerify must stay true in production: when false a hard
	// verification error is treated as settled, which only a test
	// harness without a live authority may want.
	StrictVerify bool `env:"STRICT_VERIFY" default:"true"`
}
