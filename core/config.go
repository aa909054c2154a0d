package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName      string
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Admin        AdminConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine     string // postgres | sqlite3
		Host       string
		Port       int
		User       string
		Password   string
		Name       string
		DisableTLS bool
		SQLitePath string
		// Fallback opens SQLitePath when the configured server cannot be reached.
		Fallback bool
	}

	AdminConfig struct {
		Username string
		Password string
	}
)

func (dbc DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%d", dbc.Host, dbc.Port)
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("appName", "Classbook")
	conf.SetDefault("build", "dev")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("secretKey", "k2v!9w$uq3+z8@e^cn#d0(x7_jr)6t=m4h-s5b&fy1lgpa")
	conf.SetDefault("rollbarToken", "")

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.jwtExpirationDelta", 12*time.Hour)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", 5432)
	conf.SetDefault("database.user", "postgres")
	conf.SetDefault("database.password", "postgres")
	conf.SetDefault("database.name", "classbook")
	conf.SetDefault("database.disableTLS", true)
	conf.SetDefault("database.sqlitePath", "classbook.db")
	conf.SetDefault("database.fallback", true)

	conf.SetDefault("admin.username", "admin")
	conf.SetDefault("admin.password", "1234")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetDefault("env", env)
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		AppName:      conf.GetString("appName"),
		Env:          conf.GetString("env"),
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:               conf.GetString("server.host"),
			Address:            conf.GetString("server.address"),
			DebugHost:          conf.GetString("server.debugHost"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:     conf.GetString("database.engine"),
			Host:       conf.GetString("database.host"),
			Port:       conf.GetInt("database.port"),
			User:       conf.GetString("database.user"),
			Password:   conf.GetString("database.password"),
			Name:       conf.GetString("database.name"),
			DisableTLS: conf.GetBool("database.disableTLS"),
			SQLitePath: conf.GetString("database.sqlitePath"),
			Fallback:   conf.GetBool("database.fallback"),
		},
		Admin: AdminConfig{
			Username: conf.GetString("admin.username"),
			Password: conf.GetString("admin.password"),
		},
	}
}
