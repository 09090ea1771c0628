// Package config loads service configuration from the environment, with
// the defaults the system ships with. Matching thresholds and the
// overhead keyword set are deliberately tunable rather than hardcoded.
package config

import (
	"os"
	"strconv"
	"strings"
)

// DefaultOverheadKeywords marks cost rows that are administrative line
// items rather than patients. These rows must never be fuzzy-matched
// into a real patient.
var DefaultOverheadKeywords = []string{
	"total", "note", "office", "intake", "pay",
	"attached", "october", "expense", "see ", "monthly",
}

// Config holds all service configuration.
type Config struct {
	// Couchbase connection
	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string
	CouchbaseScope    string

	// HTTP API
	APIPort string

	// Logging
	LogLevel         string
	ElasticsearchURL string

	// Input locations
	ClaimsPath string
	CostsPath  string
	VisitsPath string

	// Matching parameters. MatchThreshold guards identity resolution;
	// CostMatchThreshold guards cost-to-claim categorization.
	MatchThreshold     float64
	CostMatchThreshold float64
	OverheadKeywords   []string
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		CouchbaseURL:      getEnv("COUCHBASE_URL", "couchbase://reconcile-db"),
		CouchbaseUsername: getEnv("COUCHBASE_USERNAME", "reconcile_user"),
		CouchbasePassword: getEnv("COUCHBASE_PASSWORD", "password"),
		CouchbaseBucket:   getEnv("COUCHBASE_BUCKET", "homehealth"),
		CouchbaseScope:    getEnv("COUCHBASE_SCOPE", "_default"),

		APIPort: getEnv("API_PORT", "8080"),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ElasticsearchURL: getEnv("ELASTICSEARCH_URL", ""),

		ClaimsPath: getEnv("CLAIMS_PATH", "data/claims.csv"),
		CostsPath:  getEnv("COSTS_PATH", "data/employee_costs.xlsx"),
		VisitsPath: getEnv("VISITS_PATH", ""),

		MatchThreshold:     getEnvFloat("MATCH_THRESHOLD", 0.85),
		CostMatchThreshold: getEnvFloat("COST_MATCH_THRESHOLD", 0.7),
		OverheadKeywords:   getEnvList("OVERHEAD_KEYWORDS", DefaultOverheadKeywords),
	}
}

// getEnv retrieves environment variable with fallback default
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 || f > 1 {
		return def
	}
	return f
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
