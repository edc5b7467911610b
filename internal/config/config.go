package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             string
	DBDriver         string
	DBDSN            string
	LogFile          string
	TemplatesDir     string
	AMQPURL          string
	EventsExchange   string
	RequireAvailable bool
	CookieSecure     bool
	SeedDemo         bool
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = "sqlite"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "canteen.db"
	} // sqlite file in project root
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./canteen.log"
	}
	templates := os.Getenv("TEMPLATES_DIR")
	if templates == "" {
		templates = "./web/templates"
	}
	exchange := os.Getenv("EVENTS_EXCHANGE")
	if exchange == "" {
		exchange = "canteen.orders"
	}

	cfg := Config{
		Port:             port,
		DBDriver:         driver,
		DBDSN:            dsn,
		LogFile:          logFile,
		TemplatesDir:     templates,
		AMQPURL:          os.Getenv("AMQP_URL"),
		EventsExchange:   exchange,
		RequireAvailable: envBool("REQUIRE_AVAILABLE", false),
		CookieSecure:     envBool("COOKIE_SECURE", false),
		SeedDemo:         envBool("SEED_DEMO", true),
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s LOG_FILE=%s TEMPLATES_DIR=%s EVENTS=%t REQUIRE_AVAILABLE=%t",
		cfg.Port, cfg.DBDriver, cfg.LogFile, cfg.TemplatesDir, cfg.AMQPURL != "", cfg.RequireAvailable)
	return cfg
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[warn] %s=%q is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}
