package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultCountries = "United States;United Kingdom;Russia;China;India;France;Germany"
	defaultAliases   = "China, P.R.: Mainland=China"
)

type Config struct {
	// Source selection
	DataBackend string

	// Bankruptcy merge
	PriceFile         string
	PriceSheet        string
	PriceDateColumn   string
	BankruptciesFile  string
	BankruptciesSheet string
	BankruptciesDate  string
	BankruptciesValue string
	SkipEmptyYears    bool
	MergedOutput      string

	// Gold reserves
	ReservesFile         string
	ReservesMonthlySheet string
	ReservesAnnualSheet  string
	Countries            []string
	Aliases              map[string]string
	AverageLabel         string

	// Charts
	ChartDir      string
	ChartFormat   string
	ChartWidthIn  float64
	ChartHeightIn float64

	// Result store
	StoreResults bool
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "file"),

		PriceFile:         getEnv("PRICE_FILE", "./price_monthly_usd.xlsx"),
		PriceSheet:        getEnv("PRICE_SHEET", "Sheet1"),
		PriceDateColumn:   getEnv("PRICE_DATE_COLUMN", "Date"),
		BankruptciesFile:  getEnv("BANKRUPTCIES_FILE", "./data/historical_country_united_states_indicator_bankruptcies_.csv"),
		BankruptciesSheet: getEnv("BANKRUPTCIES_SHEET", ""),
		BankruptciesDate:  getEnv("BANKRUPTCIES_DATE_COLUMN", "DateTime"),
		BankruptciesValue: getEnv("BANKRUPTCIES_VALUE_COLUMN", "Close"),
		SkipEmptyYears:    getEnvBool("BANKRUPTCIES_SKIP_EMPTY_YEARS", false),
		MergedOutput:      getEnv("MERGED_OUTPUT", "./merged_data.csv"),

		ReservesFile:         getEnv("RESERVES_FILE", "./data/Changes_latest_as_of_Sep2024_IFS.xlsx"),
		ReservesMonthlySheet: getEnv("RESERVES_MONTHLY_SHEET", "Monthly"),
		ReservesAnnualSheet:  getEnv("RESERVES_ANNUAL_SHEET", "Annual"),
		Countries:            ParseList(getEnv("RESERVES_COUNTRIES", defaultCountries)),
		Aliases:              ParseAliases(getEnv("RESERVES_ALIASES", defaultAliases)),
		AverageLabel:         getEnv("AVERAGE_LABEL", "All-country average"),

		ChartDir:      getEnv("CHART_DIR", "./charts"),
		ChartFormat:   strings.ToLower(getEnv("CHART_FORMAT", "png")),
		ChartWidthIn:  getEnvFloat("CHART_WIDTH_IN", 10),
		ChartHeightIn: getEnvFloat("CHART_HEIGHT_IN", 6),

		StoreResults: getEnvBool("STORE_RESULTS", false),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bankgold.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bankgold"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "runs"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"file", "sheets"}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.BankruptciesSheet == "" {
			errors = append(errors, "BANKRUPTCIES_SHEET is required when using sheets backend")
		}
	}

	if c.MergedOutput == "" {
		errors = append(errors, "merged output path cannot be empty")
	} else if ext := strings.ToLower(filepath.Ext(c.MergedOutput)); ext != ".csv" && ext != ".xlsx" {
		errors = append(errors, fmt.Sprintf("invalid merged output '%s': extension must be .csv or .xlsx", c.MergedOutput))
	}

	if len(c.Countries) == 0 {
		errors = append(errors, "at least one country is required in RESERVES_COUNTRIES")
	}

	// Validate charts
	validFormats := []string{"png", "svg", "pdf"}
	if !oneOf(c.ChartFormat, validFormats) {
		errors = append(errors, fmt.Sprintf("invalid chart format '%s': must be one of %v", c.ChartFormat, validFormats))
	}
	if c.ChartWidthIn <= 0 || c.ChartHeightIn <= 0 {
		errors = append(errors, fmt.Sprintf("invalid chart size %vx%v: must be positive", c.ChartWidthIn, c.ChartHeightIn))
	}

	if c.StoreResults && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when STORE_RESULTS is enabled")
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := c.SlogLevel(); err != nil {
		errors = append(errors, err.Error())
	}
	if !oneOf(c.LogFormat, []string{"text", "json"}) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel)
}

// ParseList splits a semicolon-separated list. Semicolons are used because
// country names such as "China, P.R.: Mainland" contain commas.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseAliases parses "from=to" pairs separated by semicolons.
func ParseAliases(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range ParseList(s) {
		from, to, ok := strings.Cut(pair, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			continue
		}
		out[from] = to
	}
	return out
}

func oneOf(v string, valid []string) bool {
	for _, s := range valid {
		if v == s {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
