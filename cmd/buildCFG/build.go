package buildCFG

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"eventhub/internal/mailer"
)

type ServerConfig struct {
	Port string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
		log.Warn().Msg("server.port not set, defaulting to 8080")
	}
	return ServerConfig{Port: port}
}

func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := cfg.GetString("database.master_dsn")
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database.master_dsn is required")
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Msg("database configuration loaded")
	return masterDSN, nil, opts, nil
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	rc := RabbitConfig{
		Url:      cfg.GetString("rabbit.url"),
		Exchange: cfg.GetString("rabbit.exchange"),
		Queue:    cfg.GetString("rabbit.queue"),
	}
	if rc.Url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbit.url is required")
	}
	if rc.Exchange == "" {
		rc.Exchange = "notifications"
	}
	if rc.Queue == "" {
		rc.Queue = "registration-confirmations"
	}
	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbit configuration loaded")
	return rc, nil
}

// AuthConfig selects the verifier: a JWKS URL for the real identity
// provider, or a shared HMAC secret for development. SuperAdmin is the one
// admin identity that lives outside the directory.
type AuthConfig struct {
	JWKSURL    string
	HMACSecret string
	SuperAdmin string
}

func BuildAuthConfig(cfg *config.Config, log *zerolog.Logger) (AuthConfig, error) {
	ac := AuthConfig{
		JWKSURL:    cfg.GetString("auth.jwks_url"),
		HMACSecret: cfg.GetString("auth.hmac_secret"),
		SuperAdmin: cfg.GetString("auth.super_admin"),
	}
	if ac.SuperAdmin == "" {
		return AuthConfig{}, fmt.Errorf("auth.super_admin is required")
	}
	if ac.JWKSURL == "" && ac.HMACSecret == "" {
		log.Warn().Msg("no auth.jwks_url or auth.hmac_secret configured, all requests will be anonymous")
	}
	return ac, nil
}

func BuildSMTPConfig(cfg *config.Config, log *zerolog.Logger) mailer.Config {
	mc := mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: cfg.GetString("smtp.password"),
	}
	if mc.From == "" {
		log.Warn().Msg("smtp.from not set, confirmation emails will be skipped")
	}
	return mc
}

func BuildUploadDir(cfg *config.Config) string {
	dir := cfg.GetString("upload.dir")
	if dir == "" {
		dir = "public/events"
	}
	return dir
}
