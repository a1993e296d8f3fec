package job

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/samber/mo"
)

// Kind はジョブ種別を表す
type Kind string

const (
	KindVoiceConversion Kind = "voice-conversion"
	KindTextToSpeech    Kind = "text-to-speech"
	KindVocalSeparation Kind = "vocal-separation"
	KindStemSplit       Kind = "stem-splitter"
	KindVoiceBlend      Kind = "voice-blender"
)

// Kinds は全ジョブ種別を定義順で返す
func Kinds() []Kind {
	return []Kind{
		KindVoiceConversion,
		KindTextToSpeech,
		KindVocalSeparation,
		KindStemSplit,
		KindVoiceBlend,
	}
}

// ParseKind は文字列をジョブ種別に変換する。未知の種別はエラー。
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k.Valid() {
		return k, nil
	}
	return "", apierror.InvalidRequest("unknown job kind: %q", s)
}

// Valid は定義済みの種別かどうかを返す
func (k Kind) Valid() bool {
	switch k {
	case KindVoiceConversion, KindTextToSpeech, KindVocalSeparation, KindStemSplit, KindVoiceBlend:
		return true
	}
	return false
}

// UploadsAudio は音声ファイルのアップロードを伴う種別かどうかを返す
func (k Kind) UploadsAudio() bool {
	return k != KindTextToSpeech
}

func (k Kind) String() string {
	return string(k)
}

// Status はジョブの状態を表す
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// NormalizeStatus はベンダーが返す状態文字列を4状態に正規化する。
// 未知の値は非終端（processing）として扱う。
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "queued", "pending", "":
		return StatusQueued
	case "processing", "running":
		return StatusProcessing
	case "completed":
		return StatusCompleted
	case "failed":
		return StatusFailed
	default:
		return StatusProcessing
	}
}

// IsTerminal は終端状態かどうかを返す
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Output はジョブの成果物URL
type Output struct {
	URL   string            // 単一出力
	Parts map[string]string // 名前付き複数出力（vocals, instrumental など）
}

// IsEmpty は成果物URLが1つもないかどうかを返す
func (o Output) IsEmpty() bool {
	return o.URL == "" && len(o.Parts) == 0
}

// PartNames は複数出力の名前をソートして返す
func (o Output) PartNames() []string {
	names := make([]string, 0, len(o.Parts))
	for name := range o.Parts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Job はリモートで実行される非同期ジョブのスナップショット
type Job struct {
	ID        string
	Kind      Kind
	Status    Status
	Progress  mo.Option[int]
	CreatedAt time.Time
	UpdatedAt time.Time
	Error     string
	Output    Output
}

// Options は種別ごとの任意パラメータ。None の項目は送信しない。
type Options struct {
	ConversionStrength    mo.Option[float64]
	ModelVolumeMix        mo.Option[float64]
	PitchShift            mo.Option[int]
	PreprocessingEffects  mo.Option[json.RawMessage]
	PostprocessingEffects mo.Option[json.RawMessage]
	OutputFormat          mo.Option[string]
}

// Request はジョブ作成リクエスト
type Request struct {
	Kind      Kind
	InputPath string    // 音声ファイル（TTS以外）
	Text      string    // TTS の入力テキスト
	ModelID   string    // voice-conversion / TTS
	ModelIDs  []string  // voice-blender
	Weights   []float64 // voice-blender
	Options   Options
}

// Page はジョブ一覧の1ページ
type Page struct {
	Jobs []*Job
	Meta PageMeta
}

// PageMeta はページネーション情報
type PageMeta struct {
	CurrentPage int
	LastPage    int
	Total       int
	PerPage     int
}

// HasNext は次のページがあるかどうかを返す
func (m PageMeta) HasNext() bool {
	return m.CurrentPage < m.LastPage
}
