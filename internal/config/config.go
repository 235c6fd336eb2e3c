package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/autumnsgrove/cdnup/internal/validation"
)

type Settings struct {
	// Cloudflare R2 (S3-compatible) credentials
	R2AccountID       string `json:"r2_account_id" validate:"required"`
	R2AccessKeyID     string `json:"r2_access_key_id" validate:"required"`
	R2SecretAccessKey string `json:"r2_secret_access_key" validate:"required"`
	R2Bucket          string `json:"r2_bucket" validate:"required"`
	CustomDomain      string `json:"custom_domain" validate:"required,hostname"`

	// AI providers (both optional; analysis degrades to no-metadata without them)
	OpenRouterAPIKey string `json:"openrouter_api_key"`
	AnthropicAPIKey  string `json:"anthropic_api_key"`

	// Optional shared analysis cache
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`

	// Local analysis cache file, used when Redis is not configured
	CacheFile string `json:"cache_file" validate:"required"`

	// Pipeline tuning
	Concurrency    int           `json:"concurrency" validate:"min=1,max=64"`
	MaxAttempts    int           `json:"max_attempts" validate:"min=1,max=10"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// Endpoint returns the R2 S3-compatible API endpoint host.
func (s *Settings) Endpoint() string {
	return fmt.Sprintf("%s.r2.cloudflarestorage.com", s.R2AccountID)
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetDefault("CONCURRENCY", 4)
	viper.SetDefault("MAX_ATTEMPTS", 3)
	viper.SetDefault("REQUEST_TIMEOUT", 30)
	viper.SetDefault("CACHE_FILE", defaultCacheFile())

	if !viper.IsSet("R2_ACCOUNT_ID") {
		return nil, fmt.Errorf("R2_ACCOUNT_ID is required")
	}
	if !viper.IsSet("R2_ACCESS_KEY_ID") {
		return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required")
	}
	if !viper.IsSet("R2_SECRET_ACCESS_KEY") {
		return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required")
	}
	if !viper.IsSet("R2_BUCKET") {
		return nil, fmt.Errorf("R2_BUCKET is required")
	}
	if !viper.IsSet("CUSTOM_DOMAIN") {
		return nil, fmt.Errorf("CUSTOM_DOMAIN is required")
	}

	s := &Settings{
		R2AccountID:       viper.GetString("R2_ACCOUNT_ID"),
		R2AccessKeyID:     viper.GetString("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: viper.GetString("R2_SECRET_ACCESS_KEY"),
		R2Bucket:          viper.GetString("R2_BUCKET"),
		CustomDomain:      viper.GetString("CUSTOM_DOMAIN"),
		OpenRouterAPIKey:  viper.GetString("OPENROUTER_API_KEY"),
		AnthropicAPIKey:   viper.GetString("ANTHROPIC_API_KEY"),
		RedisAddr:         viper.GetString("REDIS_ADDR"),
		RedisPassword:     viper.GetString("REDIS_PASSWORD"),
		CacheFile:         viper.GetString("CACHE_FILE"),
		Concurrency:       viper.GetInt("CONCURRENCY"),
		MaxAttempts:       viper.GetInt("MAX_ATTEMPTS"),
		RequestTimeout:    time.Duration(viper.GetInt("REQUEST_TIMEOUT")) * time.Second,
	}

	if err := validation.ValidateStruct(s); err != nil {
		details, jsonErr := validation.ErrorsToJson(err)
		if jsonErr != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return nil, fmt.Errorf("invalid configuration: %s", details)
	}

	return s, nil
}

func defaultCacheFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cdnup", "analysis.json")
	}
	return filepath.Join(home, ".cache", "cdnup", "analysis.json")
}
