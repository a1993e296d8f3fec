package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/job"
)

type voiceConvertParams struct {
	Input   string
	ModelID string
	Output  string
	Options job.Options
}

// VoiceConvertAction は音声ファイルを別のボイスモデルに変換するコマンドのアクション
func VoiceConvertAction(ctx context.Context, cmd *cli.Command) error {
	input, err := requireArg(cmd, "input audio file")
	if err != nil {
		return err
	}
	opts, err := conversionOptions(cmd)
	if err != nil {
		return err
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}

	return runVoiceConvert(ctx, appCtx, voiceConvertParams{
		Input:   input,
		ModelID: strings.TrimSpace(cmd.String("model-id")),
		Output:  cmd.String("output"),
		Options: opts,
	})
}

func runVoiceConvert(ctx context.Context, ac *AppContext, p voiceConvertParams) error {
	input, err := resolveAudioInput(p.Input)
	if err != nil {
		return err
	}
	detailColor.Fprintf(ac.Out, "Input file: %s (%s)\n", input, fileSize(input))

	modelID := p.ModelID
	if modelID == "" {
		modelID, err = pickModel(ctx, ac, "Choose a voice model", 10)
		if err != nil {
			return err
		}
	}

	output := p.Output
	if output == "" {
		output = defaultOutputFile("voice_converted")
	}

	fmt.Fprintf(ac.Out, "Converting voice using model %s...\n", modelID)
	progress := newProgressPrinter(ac.Out)

	result, err := ac.Jobs.Run(ctx, job.Request{
		Kind:      job.KindVoiceConversion,
		InputPath: input,
		ModelID:   modelID,
		Options:   p.Options,
	}, job.Destination{FilePath: output}, progress.report)
	if err != nil {
		return handleRunError(ac.Out, result, err)
	}

	printResult(ac.Out, "Voice conversion completed!", result, []detail{
		{label: "Model", value: modelID},
		{label: "Input", value: input},
	})
	return nil
}

type ttsParams struct {
	Text    string
	ModelID string
	Output  string
	Options job.Options
}

// TTSAction はテキストを音声に変換するコマンドのアクション
func TTSAction(ctx context.Context, cmd *cli.Command) error {
	text, err := requireArg(cmd, "text")
	if err != nil {
		return err
	}
	var opts job.Options
	if err := effectOptions(cmd, &opts); err != nil {
		return err
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}

	return runTTS(ctx, appCtx, ttsParams{
		Text:    text,
		ModelID: strings.TrimSpace(cmd.String("model-id")),
		Output:  cmd.String("output"),
		Options: opts,
	})
}

func runTTS(ctx context.Context, ac *AppContext, p ttsParams) error {
	if strings.TrimSpace(p.Text) == "" {
		return apierror.InvalidRequest("text is required")
	}

	modelID := p.ModelID
	if modelID == "" {
		var err error
		modelID, err = pickModel(ctx, ac, "Choose a voice model for TTS", 10)
		if err != nil {
			return err
		}
	}

	output := p.Output
	if output == "" {
		output = defaultOutputFile("tts_output")
	}

	fmt.Fprintf(ac.Out, "Generating speech using model %s...\n", modelID)
	progress := newProgressPrinter(ac.Out)

	result, err := ac.Jobs.Run(ctx, job.Request{
		Kind:    job.KindTextToSpeech,
		Text:    p.Text,
		ModelID: modelID,
		Options: p.Options,
	}, job.Destination{FilePath: output}, progress.report)
	if err != nil {
		return handleRunError(ac.Out, result, err)
	}

	printResult(ac.Out, "Text-to-speech completed!", result, []detail{
		{label: "Model", value: modelID},
		{label: "Text", value: truncate(p.Text, 60)},
	})
	return nil
}

type voiceBlendParams struct {
	Input    string
	ModelIDs []string
	Weights  []float64
	Output   string
	Options  job.Options
}

// VoiceBlendAction は複数のボイスモデルをブレンドするコマンドのアクション
func VoiceBlendAction(ctx context.Context, cmd *cli.Command) error {
	input, err := requireArg(cmd, "input audio file")
	if err != nil {
		return err
	}

	modelsFlag := cmd.String("models")
	weightsFlag := cmd.String("weights")
	if (modelsFlag == "") != (weightsFlag == "") {
		return apierror.InvalidRequest("--models and --weights must be used together")
	}

	params := voiceBlendParams{
		Input:  input,
		Output: cmd.String("output"),
	}
	if modelsFlag != "" {
		params.ModelIDs = parseCSV(modelsFlag)
		params.Weights, err = parseWeights(weightsFlag)
		if err != nil {
			return err
		}
		if err := job.ValidateBlend(params.ModelIDs, params.Weights); err != nil {
			return err
		}
	}
	if err := effectOptions(cmd, &params.Options); err != nil {
		return err
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}

	return runVoiceBlend(ctx, appCtx, params)
}

func runVoiceBlend(ctx context.Context, ac *AppContext, p voiceBlendParams) error {
	input, err := resolveAudioInput(p.Input)
	if err != nil {
		return err
	}

	if len(p.ModelIDs) == 0 {
		p.ModelIDs, p.Weights, err = promptBlend(ctx, ac)
		if err != nil {
			return err
		}
	}

	output := p.Output
	if output == "" {
		output = defaultOutputFile("voice_blended")
	}

	fmt.Fprintf(ac.Out, "Blending %d voices...\n", len(p.ModelIDs))
	progress := newProgressPrinter(ac.Out)

	result, err := ac.Jobs.Run(ctx, job.Request{
		Kind:      job.KindVoiceBlend,
		InputPath: input,
		ModelIDs:  p.ModelIDs,
		Weights:   p.Weights,
		Options:   p.Options,
	}, job.Destination{FilePath: output}, progress.report)
	if err != nil {
		return handleRunError(ac.Out, result, err)
	}

	weights := make([]string, len(p.Weights))
	for i, w := range p.Weights {
		weights[i] = strconv.FormatFloat(w, 'f', -1, 64)
	}

	printResult(ac.Out, "Voice blending completed!", result, []detail{
		{label: "Input", value: input},
		{label: "Models", value: strings.Join(p.ModelIDs, ", ")},
		{label: "Weights", value: strings.Join(weights, ", ")},
	})
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
