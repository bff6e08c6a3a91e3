package config

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const (
	DefaultAdminBaseURL   = "https://admin.gtnapp.world"
	DefaultFreeTextMarker = "ご自由にお書きください"
)

// DefaultTimestampLayouts are tried in order when parsing created_at.
var DefaultTimestampLayouts = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

type Config struct {
	ReviewFile       string
	ListenAddr       string
	AdminBaseURL     string
	FreeTextMarker   string
	InputEncoding    string
	XLSXSheet        string
	TimestampLayouts []string
	AssetsHost       string
	ChartFont        string
	LogLevel         string
}

var (
	config *Config
	once   sync.Once
)

// GetConfig возвращает singleton экземпляр конфигурации
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found, using environment")
		}
		config = FromEnv()
	})
	return config
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	return &Config{
		ReviewFile:       getEnv("REVIEW_FILE", "user_review.csv"),
		ListenAddr:       getEnv("LISTEN_ADDR", ":8005"),
		AdminBaseURL:     strings.TrimRight(getEnv("ADMIN_BASE_URL", DefaultAdminBaseURL), "/"),
		FreeTextMarker:   getEnv("FREE_TEXT_MARKER", DefaultFreeTextMarker),
		InputEncoding:    strings.ToLower(getEnv("INPUT_ENCODING", "utf-8")),
		XLSXSheet:        os.Getenv("XLSX_SHEET"),
		TimestampLayouts: getEnvList("TIMESTAMP_LAYOUTS", DefaultTimestampLayouts),
		AssetsHost:       os.Getenv("ECHARTS_ASSETS_HOST"),
		ChartFont:        os.Getenv("CHART_FONT"),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvList splits a "|"-separated value; empty items are dropped.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(val, "|") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
