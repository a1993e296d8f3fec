package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jinford/kits-cli/internal/core/apierror"
)

// MaxUploadBytes はアップロード可能な音声ファイルの上限（100 MiB）
const MaxUploadBytes int64 = 100 * 1024 * 1024

// Submitter はローカルの前提条件を検証してリモートジョブを作成する
type Submitter struct {
	api    API
	logger *slog.Logger
}

type SubmitterOption func(*Submitter)

// WithSubmitterLogger は Submitter にロガーを設定する
func WithSubmitterLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		s.logger = logger
	}
}

// NewSubmitter は新しい Submitter を作成する
func NewSubmitter(api API, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Submit はリクエストを検証し、ジョブを1件作成する。
// 検証に失敗した場合はネットワーク呼び出しを行わない。
func (s *Submitter) Submit(ctx context.Context, req Request) (*Job, error) {
	form, err := buildForm(req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("ジョブを作成します", "kind", req.Kind, "fields", len(form.Fields), "files", len(form.Files))

	created, err := s.api.CreateJob(ctx, req.Kind, form)
	if err != nil {
		return nil, err
	}
	if created == nil || created.ID == "" {
		return nil, apierror.ServerError(0, "job created without an id")
	}

	job := *created
	job.Kind = req.Kind
	job.Status = StatusQueued

	s.logger.Debug("ジョブを作成しました", "kind", req.Kind, "jobID", job.ID)
	return &job, nil
}

// SubmitVoiceConversion は音声変換ジョブを作成する
func (s *Submitter) SubmitVoiceConversion(ctx context.Context, inputPath, modelID string, opts Options) (*Job, error) {
	return s.Submit(ctx, Request{
		Kind:      KindVoiceConversion,
		InputPath: inputPath,
		ModelID:   modelID,
		Options:   opts,
	})
}

// SubmitTTS はテキスト読み上げジョブを作成する
func (s *Submitter) SubmitTTS(ctx context.Context, text, modelID string, opts Options) (*Job, error) {
	return s.Submit(ctx, Request{
		Kind:    KindTextToSpeech,
		Text:    text,
		ModelID: modelID,
		Options: opts,
	})
}

// SubmitVocalSeparation はボーカル分離ジョブを作成する
func (s *Submitter) SubmitVocalSeparation(ctx context.Context, inputPath string, opts Options) (*Job, error) {
	return s.Submit(ctx, Request{
		Kind:      KindVocalSeparation,
		InputPath: inputPath,
		Options:   opts,
	})
}

// SubmitStemSplit はステム分割ジョブを作成する
func (s *Submitter) SubmitStemSplit(ctx context.Context, inputPath string, opts Options) (*Job, error) {
	return s.Submit(ctx, Request{
		Kind:      KindStemSplit,
		InputPath: inputPath,
		Options:   opts,
	})
}

// SubmitVoiceBlend はボイスブレンドジョブを作成する
func (s *Submitter) SubmitVoiceBlend(ctx context.Context, inputPath string, modelIDs []string, weights []float64, opts Options) (*Job, error) {
	return s.Submit(ctx, Request{
		Kind:      KindVoiceBlend,
		InputPath: inputPath,
		ModelIDs:  modelIDs,
		Weights:   weights,
		Options:   opts,
	})
}

// buildForm は種別ごとの送信フォームを組み立てる
func buildForm(req Request) (*Form, error) {
	if !req.Kind.Valid() {
		return nil, apierror.InvalidRequest("unknown job kind: %q", req.Kind)
	}

	if req.Kind == KindVoiceBlend {
		if err := ValidateBlend(req.ModelIDs, req.Weights); err != nil {
			return nil, err
		}
	}

	if req.Kind.UploadsAudio() {
		if err := CheckUpload(req.InputPath); err != nil {
			return nil, err
		}
	}

	form := &Form{}

	switch req.Kind {
	case KindVoiceConversion:
		if strings.TrimSpace(req.ModelID) == "" {
			return nil, apierror.InvalidRequest("voice model id is required")
		}
		form.Add("voiceModelId", req.ModelID)
		form.AddFile("soundFile", req.InputPath)
		addFloat(form, "conversionStrength", req.Options.ConversionStrength.ToPointer())
		addFloat(form, "modelVolumeMix", req.Options.ModelVolumeMix.ToPointer())
		if v, ok := req.Options.PitchShift.Get(); ok {
			form.Add("pitchShift", strconv.Itoa(v))
		}
		if err := addEffects(form, req.Options); err != nil {
			return nil, err
		}

	case KindTextToSpeech:
		if strings.TrimSpace(req.Text) == "" {
			return nil, apierror.InvalidRequest("text is required")
		}
		if strings.TrimSpace(req.ModelID) == "" {
			return nil, apierror.InvalidRequest("voice model id is required")
		}
		form.Add("inputTtsText", req.Text)
		form.Add("voiceModelId", req.ModelID)
		if err := addEffects(form, req.Options); err != nil {
			return nil, err
		}

	case KindVocalSeparation, KindStemSplit:
		form.AddFile("soundFile", req.InputPath)
		if v, ok := req.Options.OutputFormat.Get(); ok && v != "" {
			form.Add("outputFormat", v)
		}

	case KindVoiceBlend:
		form.AddFile("soundFile", req.InputPath)
		ids, err := json.Marshal(req.ModelIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode voice model ids: %w", err)
		}
		weights, err := json.Marshal(req.Weights)
		if err != nil {
			return nil, fmt.Errorf("failed to encode blend weights: %w", err)
		}
		form.Add("voiceModelIds", string(ids))
		form.Add("blendWeights", string(weights))
		if err := addEffects(form, req.Options); err != nil {
			return nil, err
		}
	}

	return form, nil
}

// CheckUpload は入力ファイルの存在とサイズ上限を検証する
func CheckUpload(path string) error {
	if strings.TrimSpace(path) == "" {
		return apierror.InvalidRequest("audio file path is required")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apierror.InvalidRequest("audio file not found: %s", path)
		}
		return apierror.Wrap(apierror.KindInvalidRequest, "cannot access audio file "+path, err)
	}
	if !info.Mode().IsRegular() {
		return apierror.InvalidRequest("audio file is not a regular file: %s", path)
	}

	if info.Size() > MaxUploadBytes {
		return &apierror.Error{
			Kind:   apierror.KindPayloadTooLarge,
			SizeMB: float64(info.Size()) / (1024 * 1024),
		}
	}
	return nil
}

// ValidateBlend はモデルIDと重みの対応と値域を検証する
func ValidateBlend(modelIDs []string, weights []float64) error {
	if len(modelIDs) == 0 {
		return apierror.InvalidRequest("at least one voice model id is required")
	}
	if len(modelIDs) != len(weights) {
		return apierror.InvalidRequest("number of model IDs (%d) must match number of weights (%d)", len(modelIDs), len(weights))
	}
	for i, id := range modelIDs {
		if strings.TrimSpace(id) == "" {
			return apierror.InvalidRequest("voice model id at position %d is empty", i+1)
		}
	}
	for _, w := range weights {
		if math.IsNaN(w) || w < 0 || w > 1 {
			return apierror.InvalidRequest("all weights must be between 0 and 1 (got %v)", w)
		}
	}
	return nil
}

func addFloat(form *Form, name string, v *float64) {
	if v == nil {
		return
	}
	form.Add(name, strconv.FormatFloat(*v, 'f', -1, 64))
}

func addEffects(form *Form, opts Options) error {
	if raw, ok := opts.PreprocessingEffects.Get(); ok {
		if !json.Valid(raw) {
			return apierror.InvalidRequest("preprocessing effects must be valid JSON")
		}
		form.Add("preprocessingEffects", string(raw))
	}
	if raw, ok := opts.PostprocessingEffects.Get(); ok {
		if !json.Valid(raw) {
			return apierror.InvalidRequest("postprocessing effects must be valid JSON")
		}
		form.Add("postprocessingEffects", string(raw))
	}
	return nil
}
