package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/job"
)

type splitParams struct {
	Kind      job.Kind
	Input     string
	OutputDir string
	Options   job.Options
}

// VocalSeparateAction はボーカルと伴奏を分離するコマンドのアクション
func VocalSeparateAction(ctx context.Context, cmd *cli.Command) error {
	return splitAction(ctx, cmd, job.KindVocalSeparation)
}

// StemSplitAction は音源をステムに分割するコマンドのアクション
func StemSplitAction(ctx context.Context, cmd *cli.Command) error {
	return splitAction(ctx, cmd, job.KindStemSplit)
}

func splitAction(ctx context.Context, cmd *cli.Command, kind job.Kind) error {
	input, err := requireArg(cmd, "input audio file")
	if err != nil {
		return err
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}

	return runSplit(ctx, appCtx, splitParams{
		Kind:      kind,
		Input:     input,
		OutputDir: cmd.String("output-dir"),
		Options:   outputFormatOption(cmd),
	})
}

func runSplit(ctx context.Context, ac *AppContext, p splitParams) error {
	input, err := resolveAudioInput(p.Input)
	if err != nil {
		return err
	}

	prefix, verb, title := "vocal_separation", "Separating vocals", "Vocal separation completed!"
	if p.Kind == job.KindStemSplit {
		prefix, verb, title = "stem_split", "Splitting stems", "Stem splitting completed!"
	}

	outputDir := p.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir(prefix)
	}
	// 単一URLが返った場合はディレクトリ内に保存する
	outputFile := filepath.Join(outputDir, prefix+".wav")

	fmt.Fprintf(ac.Out, "%s from %s...\n", verb, filepath.Base(input))
	progress := newProgressPrinter(ac.Out)

	result, err := ac.Jobs.Run(ctx, job.Request{
		Kind:      p.Kind,
		InputPath: input,
		Options:   p.Options,
	}, job.Destination{FilePath: outputFile, Dir: outputDir}, progress.report)
	if err != nil {
		return handleRunError(ac.Out, result, err)
	}

	tracks := make([]string, 0, len(result.Files))
	for _, f := range result.Files {
		tracks = append(tracks, strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
	}

	printResult(ac.Out, title, result, []detail{
		{label: "Input", value: input},
		{label: "Output directory", value: outputDir},
		{label: "Tracks", value: strings.Join(tracks, ", ")},
	})
	return nil
}
