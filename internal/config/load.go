package config

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPort               = "8080"
	DefaultCommentsFetchLimit = 100
	DefaultClientOrigin       = "http://localhost:5173"
)

// Load reads secrets from dir/.env into the environment and settings from
// dir/app.yaml into viper. A missing .env is not an error, variables may come
// from the real environment instead.
func Load(dir string) error {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	viper.AddConfigPath(dir)
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	viper.SetDefault("app.port", DefaultPort)
	viper.SetDefault("client.origin", DefaultClientOrigin)
	viper.SetDefault("comments.fetch-limit", DefaultCommentsFetchLimit)
	return viper.ReadInConfig()
}

func DBConfigFromEnv() DBConfig {
	return DBConfig{
		Username: os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		DBName:   os.Getenv("POSTGRES_DATABASE"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
	}
}

func HTTPServerConfig(handler http.Handler) ServerConfig {
	return ServerConfig{
		Port:           viper.GetString("app.port"),
		Handler:        handler,
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
	}
}
