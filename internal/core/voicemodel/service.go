package voicemodel

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jinford/kits-cli/internal/core/apierror"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// API はボイスモデルAPIとの通信インターフェース
type API interface {
	ListModels(ctx context.Context, page, limit int) (*Page, error)
	GetModel(ctx context.Context, id string) (*Model, error)
}

// Service はボイスモデルの参照を提供する
type Service struct {
	api    API
	logger *slog.Logger
}

type ServiceOption func(*Service)

// WithServiceLogger は Service にロガーを設定する
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService は新しい Service を作成する
func NewService(api API, opts ...ServiceOption) *Service {
	svc := &Service{
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// List はボイスモデルを1ページ取得する
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page <= 0 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	s.logger.Debug("ボイスモデル一覧を取得します", "page", page, "limit", limit)

	result, err := s.api.ListModels(ctx, page, limit)
	if err != nil {
		return nil, apierror.WithOp("list voice models", err)
	}
	return result, nil
}

// Get はボイスモデルの詳細を取得する
func (s *Service) Get(ctx context.Context, id string) (*Model, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierror.WithOp("get voice model", apierror.InvalidRequest("voice model id is required"))
	}

	model, err := s.api.GetModel(ctx, id)
	if err != nil {
		return nil, apierror.WithOp("get voice model "+id, err)
	}
	return model, nil
}
