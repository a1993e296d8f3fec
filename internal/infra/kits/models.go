package kits

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jinford/kits-cli/internal/core/voicemodel"
)

const modelsPath = "/voice-models"

// ModelAPI はボイスモデルカタログのアダプタ
type ModelAPI struct {
	client *Client
}

var _ voicemodel.API = (*ModelAPI)(nil)

// NewModelAPI は新しい ModelAPI を作成する
func NewModelAPI(client *Client) *ModelAPI {
	return &ModelAPI{client: client}
}

// ListModels はボイスモデル一覧を取得する
func (a *ModelAPI) ListModels(ctx context.Context, page, limit int) (*voicemodel.Page, error) {
	resp, err := a.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   modelsPath,
		Query:  pageQuery(page, limit),
	})
	if err != nil {
		return nil, err
	}

	var dto modelListDTO
	if err := resp.Decode(&dto); err != nil {
		return nil, err
	}
	return dto.toPage(), nil
}

// GetModel はボイスモデルの詳細を取得する
func (a *ModelAPI) GetModel(ctx context.Context, id string) (*voicemodel.Model, error) {
	resp, err := a.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   modelsPath + "/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var dto modelDTO
	if err := resp.Decode(&dto); err != nil {
		return nil, err
	}
	return dto.toModel(), nil
}
