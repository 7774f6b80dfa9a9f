package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`

	Database  Database  `envPrefix:"DATABASE_"`
	Store     Store     `envPrefix:"STORE_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	Checkout  Checkout  `envPrefix:"CHECKOUT_"`
	Notify    Notify    `envPrefix:"NOTIFY_"`
	Paypal    Paypal    `envPrefix:"PAYPAL_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"URL" envDefault:"linkcart.db"`
}

// Store selects where buyer-scoped local state (cart, removal ledger,
// last-ordered marker, pending links) lives.
type Store struct {
	Driver        string `env:"DRIVER" envDefault:"database"` // database, redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Checkout struct {
	Provider   string        `env:"PROVIDER" envDefault:"paypal"` // paypal, braintree
	Currency   string        `env:"CURRENCY" envDefault:"USD"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"5m"`
	RecentSize int           `env:"RECENT_SIZE" envDefault:"1024"`
}

type Notify struct {
	Driver       string        `env:"DRIVER" envDefault:"none"` // none, webhook, kafka
	WebhookURL   string        `env:"WEBHOOK_URL"`
	KafkaBrokers []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string        `env:"KAFKA_TOPIC" envDefault:"link-submissions"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

type Paypal struct {
	BaseApiURL   string `env:"BASE_API_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	WebhookID    string `env:"WEBHOOK_ID"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
