package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultBaseURL は Kits AI API のベースURL
	DefaultBaseURL = "https://arpeggi.io/api/kits/v1"

	// DefaultTimeout はメタデータ系APIのタイムアウト
	DefaultTimeout = 300 * time.Second

	// DefaultUploadTimeout はアップロード系APIのタイムアウト
	DefaultUploadTimeout = 600 * time.Second

	// DefaultUserAgent はリクエストに付与する User-Agent
	DefaultUserAgent = "kits-cli/1.0.0"

	// APIKeyEnv はAPIキーを上書きする環境変数名
	APIKeyEnv = "KITS_API_KEY"
)

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// API接続設定
	API APIConfig

	// 認証情報ファイル（~/.kits-cli/config.json）
	CredentialFile string

	// ログ設定
	Log LogConfig

	// 並列ダウンロード数（0 は無制限）
	DownloadParallel int
}

// APIConfig はリモートAPIへの接続設定
type APIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
	UserAgent     string
}

// LogConfig はログ出力設定
type LogConfig struct {
	Format string // "text" or "json"
}

// Load は環境変数または.envファイルから設定を読み込みます
func Load(envFilePath string) (*Config, error) {
	// .envファイルが存在する場合は読み込む
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			// ファイルが存在しない場合はエラーとしない（環境変数のみで動作可能）
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	}

	credentialFile := getEnv("KITS_CONFIG_FILE", "")
	if credentialFile == "" {
		path, err := DefaultCredentialPath()
		if err != nil {
			return nil, err
		}
		credentialFile = path
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:       getEnv("KITS_API_BASE_URL", DefaultBaseURL),
			Timeout:       getEnvAsDuration("KITS_API_TIMEOUT", DefaultTimeout),
			UploadTimeout: getEnvAsDuration("KITS_UPLOAD_TIMEOUT", DefaultUploadTimeout),
			UserAgent:     getEnv("KITS_USER_AGENT", DefaultUserAgent),
		},
		CredentialFile: credentialFile,
		Log: LogConfig{
			Format: getEnv("KITS_LOG_FORMAT", "text"),
		},
		DownloadParallel: getEnvAsInt("KITS_DOWNLOAD_PARALLEL", 0),
	}

	return cfg, nil
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt は環境変数を整数として取得します
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration は環境変数を時間として取得します（"90s" 形式または秒数）
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
