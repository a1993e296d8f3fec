package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CredentialSource はAPIキーを提供するインターフェース。
// 未設定の場合は空文字を返す。
type CredentialSource interface {
	Credential() string
}

// CredentialStore はAPIキーの保存・削除もできる CredentialSource
type CredentialStore interface {
	CredentialSource
	SetCredential(apiKey string) error
	RemoveCredential() error
}

// StaticCredential は固定のAPIキー（--api-key フラグ用）
type StaticCredential string

// Credential はAPIキーを返す
func (c StaticCredential) Credential() string {
	return strings.TrimSpace(string(c))
}

// CredentialOrigin はAPIキーの取得元
type CredentialOrigin string

const (
	OriginNone CredentialOrigin = "not set"
	OriginEnv  CredentialOrigin = "environment (" + APIKeyEnv + ")"
	OriginFile CredentialOrigin = "config file"
)

const apiKeyField = "apiKey"

// FileCredentialStore はJSONファイルにAPIキーを保存する。
// 環境変数 KITS_API_KEY が設定されていればファイルより優先する。
type FileCredentialStore struct {
	path      string
	lookupEnv func(string) (string, bool)
}

// NewFileCredentialStore は新しい FileCredentialStore を作成する
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{
		path:      path,
		lookupEnv: os.LookupEnv,
	}
}

// DefaultCredentialPath は ~/.kits-cli/config.json を返す
func DefaultCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".kits-cli", "config.json"), nil
}

// Path は設定ファイルのパスを返す
func (s *FileCredentialStore) Path() string {
	return s.path
}

// Credential はAPIキーを返す（環境変数 > 設定ファイル）
func (s *FileCredentialStore) Credential() string {
	key, _ := s.Resolve()
	return key
}

// Resolve はAPIキーと取得元を返す
func (s *FileCredentialStore) Resolve() (string, CredentialOrigin) {
	if v, ok := s.lookupEnv(APIKeyEnv); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), OriginEnv
	}

	values, err := s.load()
	if err != nil {
		return "", OriginNone
	}
	if key, ok := values[apiKeyField].(string); ok && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key), OriginFile
	}
	return "", OriginNone
}

// SetCredential はAPIキーを設定ファイルに保存する
func (s *FileCredentialStore) SetCredential(apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return errors.New("api key is required")
	}

	values, err := s.load()
	if err != nil {
		return err
	}
	values[apiKeyField] = apiKey
	return s.save(values)
}

// RemoveCredential は設定ファイルからAPIキーを削除する
func (s *FileCredentialStore) RemoveCredential() error {
	values, err := s.load()
	if err != nil {
		return err
	}
	delete(values, apiKeyField)
	return s.save(values)
}

// load は設定ファイルを読み込む。ファイルが無い場合は空のマップを返す。
// 他のキーは保持したまま書き戻す。
func (s *FileCredentialStore) load() (map[string]any, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	values := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", s.path, err)
	}
	return values, nil
}

func (s *FileCredentialStore) save(values map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MaskCredential はAPIキーを末尾4文字以外伏せて返す
func MaskCredential(key string) string {
	if key == "" {
		return "Not set"
	}
	if len(key) <= 4 {
		return "***"
	}
	return "***" + key[len(key)-4:]
}
