package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Strings for identifiers and secrets, ints
// for durations and costs.
type Config struct {
	Env          string // application environment (e.g. "dev", "prod")
	Port         string // HTTP port to listen on
	MongoURI     string // Mongo connection string
	MongoDB      string // database name
	JWTSecret    string // secret used to sign JWTs
	AccessTTLMin int    // access token time-to-live in minutes
	BcryptCost   int    // bcrypt cost for password hashing

	SMTPHost string // outbound mail relay host
	SMTPPort int    // outbound mail relay port
	SMTPUser string // SMTP username (empty disables auth)
	SMTPPass string // SMTP password
	MailFrom string // From address on reset-code mail
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must(); missing
// values cause the program to exit with a fatal log message. Mail
// settings are optional: when SMTP_HOST is unset the reset-code mail
// consumer logs codes instead of delivering them.
func Load() Config {
	return Config{
		Env:          getenv("APP_ENV", "dev"),
		Port:         getenv("APP_PORT", "3000"),
		MongoURI:     must("MONGO_URI"),
		MongoDB:      must("MONGO_DB"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: intenv("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   intenv("BCRYPT_COST", 10),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     intenv("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPass:     os.Getenv("SMTP_PASS"),
		MailFrom:     os.Getenv("MAIL_FROM"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the variable's value or the given default when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intenv parses an optional integer variable, falling back to def.
// An unparsable value is a configuration error and aborts startup.
func intenv(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
