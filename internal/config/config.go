package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, numbers for rates
// and ports.
type Config struct {
    Env             string  // application environment (e.g. "dev", "prod")
    Port            string  // HTTP port to listen on
    DBUser          string  // database username
    DBPass          string  // database password (optional)
    DBHost          string  // database host address
    DBPort          string  // database port number
    DBName          string  // database name
    TaxRatePercent  float64 // inclusive tax rate fallback when a store carries none
    PosBaseURL      string  // POS provider API base URL
    PosAuthMode     string  // "oauth" or "static"
    PosClientID     string  // POS client id (static mode)
    PosClientSecret string  // POS client secret (static mode)
    PosContractID   string  // POS contract id (static mode)
    PosAccessToken  string  // fixed access token handed to the oauth token source (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  POS credentials are
// optional because the integration is a per-store flag; they are only
// consulted for stores that enable it.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),              // environment (dev/test/prod)
        Port:            must("APP_PORT"),             // port to bind the HTTP server
        DBUser:          must("DB_USER"),              // database user
        DBPass:          os.Getenv("DB_PASS"),         // database password (empty allowed)
        DBHost:          must("DB_HOST"),              // database host
        DBPort:          must("DB_PORT"),              // database port
        DBName:          must("DB_NAME"),              // database name
        TaxRatePercent:  envFloat("TAX_RATE_PERCENT", 10.0), // inclusive tax fallback
        PosBaseURL:      os.Getenv("POS_BASE_URL"),    // POS endpoint (empty disables sync globally)
        PosAuthMode:     envStr("POS_AUTH_MODE", "oauth"),  // credential strategy, fixed at startup
        PosClientID:     os.Getenv("POS_CLIENT_ID"),   // static credential id
        PosClientSecret: os.Getenv("POS_CLIENT_SECRET"), // static credential secret
        PosContractID:   os.Getenv("POS_CONTRACT_ID"), // static contract id
        PosAccessToken:  os.Getenv("POS_ACCESS_TOKEN"), // pre-issued oauth token (host refresh plumbing owns rotation)
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// envFloat reads an optional float variable, falling back to the default
// when unset.  An unparsable value is a misconfiguration and aborts
// startup rather than silently billing at the wrong rate.
func envFloat(key string, def float64) float64 {
    v := os.Getenv(key)
    if v == "" {
        return def
    }
    f, err := strconv.ParseFloat(v, 64)
    if err != nil {
        log.Fatalf("invalid float for %s: %q", key, v)
    }
    return f
}
