package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported database engines.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

type (
	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		Path          string // sqlite only
		MaxOpenConns  int
	}

	Config struct {
		Env                string
		Build              string
		AppName            string
		WorkDir            string
		Debug              bool
		TestMode           bool
		SecretKey          string
		JWTExpirationDelta time.Duration
		RollbarToken       string
		SendgridApiKey     string
		DefaultFromEmail   string
		FrontendBaseURL    string
		Server             ServerConfig
		Database           DatabaseConfig
	}
)

func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

func (d DatabaseConfig) Address() string {
	return net.JoinHostPort(d.Host, d.Port)
}

// NewConfig loads the configuration of the current ENV (DEV by default, TEST or PROD).
// Values come from defaults, then config/.env.<env> (if any), then <ENV>_ prefixed environment variables.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Ecole")
	v.SetDefault("secretKey", "q7s!xk2$w@ve4+zu9r8)e#n0^b1m3c5l(d6f_jh=ya")
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:19006")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 10*time.Second)

	v.SetDefault("database.engine", EngineSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "ecole")
	v.SetDefault("database.user", "ecole")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.path", filepath.Join("var", "ecole.sqlite"))
	v.SetDefault("database.maxOpenConns", 10)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("debug", false)
	case "PROD":
		v.SetDefault("debug", false)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	dbPath := v.GetString("database.path")
	if dbPath != "" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(wd, dbPath)
	}

	return &Config{
		Env:                env,
		Build:              v.GetString("build"),
		AppName:            v.GetString("appName"),
		WorkDir:            wd,
		Debug:              v.GetBool("debug"),
		TestMode:           v.GetBool("testMode"),
		SecretKey:          v.GetString("secretKey"),
		JWTExpirationDelta: v.GetDuration("jwtExpirationDelta"),
		RollbarToken:       v.GetString("rollbarToken"),
		SendgridApiKey:     v.GetString("sendgridApiKey"),
		DefaultFromEmail:   v.GetString("defaultFromEmail"),
		FrontendBaseURL:    v.GetString("frontendBaseURL"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			Path:          dbPath,
			MaxOpenConns:  v.GetInt("database.maxOpenConns"),
		},
	}
}
