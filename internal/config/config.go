package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	SheetSource    string
	SheetID        string
	SheetRange     string
	SheetXLSXPath  string
	SheetXLSXSheet string
	SheetHTMLURL   string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string

	SheetsRateLimitRPS int
	SheetsTimeoutMs    int
	CacheTTLSec        int

	AnticipationFlag  string
	AnticipationWeeks int
	FiscalStartMonth  int
	FoldAccents       bool
	RulesPath         string

	HTTPAddr         string
	WatchIntervalSec int
	WatchAutoExport  bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SheetSource:    strings.ToLower(strings.TrimSpace(getEnv("SHEET_SOURCE", "gsheets"))),
		SheetID:        getEnv("SHEET_ID", ""),
		SheetRange:     getEnv("SHEET_RANGE", "Feuille 1"),
		SheetXLSXPath:  getEnv("SHEET_XLSX_PATH", filepath.Join(cwd, "data", "orders.xlsx")),
		SheetXLSXSheet: getEnv("SHEET_XLSX_SHEET", ""),
		SheetHTMLURL:   getEnv("SHEET_HTML_URL", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		SheetsRateLimitRPS: getEnvInt("SHEETS_RATE_LIMIT_RPS", 1),
		SheetsTimeoutMs:    getEnvInt("SHEETS_TIMEOUT_MS", 30000),
		CacheTTLSec:        getEnvInt("CACHE_TTL_SEC", 600),

		AnticipationFlag:  getEnv("ANTICIPATION_FLAG", "OUI"),
		AnticipationWeeks: getEnvInt("ANTICIPATION_WEEKS", 7),
		FiscalStartMonth:  getEnvInt("FISCAL_START_MONTH", 8),
		FoldAccents:       getEnvBool("FOLD_ACCENTS", true),
		RulesPath:         getEnv("RULES_PATH", ""),

		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 600),
		WatchAutoExport:  getEnvBool("WATCH_AUTO_EXPORT", true),
	}

	if cfg.FiscalStartMonth < 1 || cfg.FiscalStartMonth > 12 {
		return Config{}, fmt.Errorf("FISCAL_START_MONTH out of range: %d", cfg.FiscalStartMonth)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" || value == "oui" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" || value == "non" {
		return false
	}
	return fallback
}
