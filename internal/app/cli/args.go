package cli

import (
	"encoding/json"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/job"
)

// SupportedAudioExtensions はアップロード可能な音声ファイルの拡張子
var SupportedAudioExtensions = []string{".wav", ".mp3", ".flac", ".m4a", ".ogg"}

// resolveAudioInput は入力ファイルを絶対パスにし、拡張子を検証する
func resolveAudioInput(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", apierror.InvalidRequest("input audio file is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", apierror.InvalidRequest("invalid input path %s: %v", path, err)
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if !slices.Contains(SupportedAudioExtensions, ext) {
		return "", apierror.InvalidRequest("unsupported file format: %q (supported: %s)",
			ext, strings.Join(SupportedAudioExtensions, ", "))
	}

	if err := job.CheckUpload(abs); err != nil {
		return "", err
	}
	return abs, nil
}

// requireArg は位置引数を1つ取り出す
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.Args().First())
	if v == "" {
		return "", apierror.InvalidRequest("%s is required", name)
	}
	return v, nil
}

// parseCSV はカンマ区切りの値を分割する（空要素は除く）
func parseCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseWeights はカンマ区切りの重みを解析する
func parseWeights(s string) ([]float64, error) {
	parts := parseCSV(s)
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, apierror.InvalidRequest("invalid weight %q", p)
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// parseEffects はJSON文字列のエフェクト設定を解析する
func parseEffects(flag, raw string) (mo.Option[json.RawMessage], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return mo.None[json.RawMessage](), nil
	}
	if !json.Valid([]byte(raw)) {
		return mo.None[json.RawMessage](), apierror.InvalidRequest("--%s must be valid JSON", flag)
	}
	return mo.Some(json.RawMessage(raw)), nil
}

// effectOptions は --pre-effects / --post-effects を Options に反映する
func effectOptions(cmd *cli.Command, opts *job.Options) error {
	pre, err := parseEffects("pre-effects", cmd.String("pre-effects"))
	if err != nil {
		return err
	}
	post, err := parseEffects("post-effects", cmd.String("post-effects"))
	if err != nil {
		return err
	}
	opts.PreprocessingEffects = pre
	opts.PostprocessingEffects = post
	return nil
}

// conversionOptions は voice-convert のフラグから Options を作る。
// 指定されなかったフラグは送信しない。
func conversionOptions(cmd *cli.Command) (job.Options, error) {
	var opts job.Options

	if cmd.IsSet("conversion-strength") {
		opts.ConversionStrength = mo.Some(cmd.Float("conversion-strength"))
	}
	if cmd.IsSet("model-volume-mix") {
		opts.ModelVolumeMix = mo.Some(cmd.Float("model-volume-mix"))
	}
	if cmd.IsSet("pitch-shift") {
		opts.PitchShift = mo.Some(int(cmd.Int("pitch-shift")))
	}

	if err := effectOptions(cmd, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// outputFormatOption は --output-format を Options に変換する
func outputFormatOption(cmd *cli.Command) job.Options {
	var opts job.Options
	if f := strings.TrimSpace(cmd.String("output-format")); f != "" {
		opts.OutputFormat = mo.Some(strings.ToLower(f))
	}
	return opts
}
