package kits

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/job"
)

// JobAPI はジョブ系エンドポイントのアダプタ
type JobAPI struct {
	client *Client
}

var _ job.API = (*JobAPI)(nil)

// NewJobAPI は新しい JobAPI を作成する
func NewJobAPI(client *Client) *JobAPI {
	return &JobAPI{client: client}
}

// route はジョブ種別ごとのエンドポイントを返す
func route(kind job.Kind) (string, error) {
	switch kind {
	case job.KindVoiceConversion:
		return "/voice-conversions", nil
	case job.KindTextToSpeech:
		return "/tts", nil
	case job.KindVocalSeparation:
		return "/vocal-separations", nil
	case job.KindStemSplit:
		return "/stem-splitter", nil
	case job.KindVoiceBlend:
		return "/voice-blender", nil
	}
	return "", apierror.InvalidRequest("unknown job kind: %q", string(kind))
}

// CreateJob はジョブを作成する
func (a *JobAPI) CreateJob(ctx context.Context, kind job.Kind, form *job.Form) (*job.Job, error) {
	path, err := route(kind)
	if err != nil {
		return nil, err
	}
	if form == nil {
		form = &job.Form{}
	}

	resp, err := a.client.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   path,
		Form:   form,
		Upload: kind.UploadsAudio(),
	})
	if err != nil {
		return nil, err
	}

	var dto jobDTO
	if err := resp.Decode(&dto); err != nil {
		return nil, err
	}
	return dto.toJob(kind), nil
}

// GetJob はジョブの現在の状態を取得する
func (a *JobAPI) GetJob(ctx context.Context, kind job.Kind, id string) (*job.Job, error) {
	path, err := route(kind)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, apierror.InvalidRequest("job id is required")
	}

	resp, err := a.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path + "/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var dto jobDTO
	if err := resp.Decode(&dto); err != nil {
		return nil, err
	}

	j := dto.toJob(kind)
	if j.ID == "" {
		j.ID = id
	}
	return j, nil
}

// ListJobs は種別ごとの最近のジョブ一覧を取得する
func (a *JobAPI) ListJobs(ctx context.Context, kind job.Kind, page, limit int) (*job.Page, error) {
	path, err := route(kind)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  pageQuery(page, limit),
	})
	if err != nil {
		return nil, err
	}

	var dto jobListDTO
	if err := resp.Decode(&dto); err != nil {
		return nil, err
	}
	return dto.toPage(kind), nil
}
