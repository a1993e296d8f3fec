package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/job"
)

type menuItem struct {
	label  string
	action func(ctx context.Context, ac *AppContext) error
}

func interactiveMenu() []menuItem {
	return []menuItem{
		{label: "Voice Conversion - Convert audio to different voices", action: interactiveVoiceConvert},
		{label: "Text-to-Speech - Convert text to speech", action: interactiveTTS},
		{label: "Vocal Separation - Separate vocals from instrumentals", action: interactiveSplit(job.KindVocalSeparation)},
		{label: "Stem Splitting - Split audio into different stems", action: interactiveSplit(job.KindStemSplit)},
		{label: "Voice Blending - Blend multiple voices together", action: interactiveVoiceBlend},
		{label: "Voice Models - Browse available voice models", action: interactiveModels},
		{label: "Check Job Status - Monitor your processing jobs", action: interactiveStatus},
		{label: "Configuration - Manage API settings", action: interactiveConfig},
		{label: "Exit"},
	}
}

// InteractiveAction は対話メニューで全機能を順に実行するコマンドのアクション
func InteractiveAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runInteractive(ctx, appCtx)
}

func runInteractive(ctx context.Context, ac *AppContext) error {
	headerColor.Fprintln(ac.Out, "Interactive Kits AI CLI")
	fmt.Fprintln(ac.Out)

	if ac.CredentialSource().Credential() == "" {
		errorColor.Fprintln(ac.Out, "No API key found.")
		setupNow, err := ac.Prompter.Confirm("Would you like to set up your API key now", true)
		if err != nil {
			return ignoreAbort(err)
		}
		if !setupNow {
			warnColor.Fprintln(ac.Out, `Please run "kits-cli setup" to configure your API key first.`)
			return nil
		}
		if err := runSetup(ac); err != nil {
			return ignoreAbort(err)
		}
	}

	if err := ac.Connect(); err != nil {
		return err
	}

	menu := interactiveMenu()
	labels := make([]string, len(menu))
	for i, item := range menu {
		labels[i] = item.label
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		idx, err := ac.Prompter.Select("What would you like to do?", labels)
		if err != nil {
			return ignoreAbort(err)
		}

		item := menu[idx]
		if item.action == nil {
			break
		}

		if err := item.action(ctx, ac); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, ErrPromptAborted) {
				PrintError(ac.Out, err)
			}
		}

		again, err := ac.Prompter.Confirm("Would you like to perform another action", true)
		if err != nil {
			return ignoreAbort(err)
		}
		if !again {
			break
		}
		fmt.Fprintln(ac.Out, strings.Repeat("─", 50))
	}

	headerColor.Fprintln(ac.Out, "Thanks for using Kits AI CLI! Happy creating!")
	return nil
}

func ignoreAbort(err error) error {
	if errors.Is(err, ErrPromptAborted) {
		return nil
	}
	return err
}

func requiredInput(label, message string) func(string) error {
	return func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New(message)
		}
		return nil
	}
}

func promptAudioPath(ac *AppContext) (string, error) {
	return ac.Prompter.Input("Enter the path to your audio file", "", false,
		requiredInput("audio file", "Please enter a valid file path"))
}

func interactiveVoiceConvert(ctx context.Context, ac *AppContext) error {
	input, err := promptAudioPath(ac)
	if err != nil {
		return err
	}
	return runVoiceConvert(ctx, ac, voiceConvertParams{Input: input})
}

func interactiveTTS(ctx context.Context, ac *AppContext) error {
	text, err := ac.Prompter.Input("Enter the text to convert to speech", "", false,
		requiredInput("text", "Please enter some text"))
	if err != nil {
		return err
	}
	return runTTS(ctx, ac, ttsParams{Text: text})
}

func interactiveSplit(kind job.Kind) func(ctx context.Context, ac *AppContext) error {
	return func(ctx context.Context, ac *AppContext) error {
		input, err := promptAudioPath(ac)
		if err != nil {
			return err
		}
		return runSplit(ctx, ac, splitParams{Kind: kind, Input: input})
	}
}

func interactiveVoiceBlend(ctx context.Context, ac *AppContext) error {
	input, err := promptAudioPath(ac)
	if err != nil {
		return err
	}
	return runVoiceBlend(ctx, ac, voiceBlendParams{Input: input})
}

func interactiveModels(ctx context.Context, ac *AppContext) error {
	idx, err := ac.Prompter.Select("Voice Models", []string{"List all models", "Get specific model details"})
	if err != nil {
		return err
	}
	if idx == 0 {
		return runModelsList(ctx, ac, 1, 20)
	}

	id, err := ac.Prompter.Input("Enter model ID", "", false,
		requiredInput("model id", "Please enter a valid model ID"))
	if err != nil {
		return err
	}
	return runModelsGet(ctx, ac, id)
}

func interactiveStatus(ctx context.Context, ac *AppContext) error {
	id, err := ac.Prompter.Input("Enter job ID to check", "", false,
		requiredInput("job id", "Please enter a valid job ID"))
	if err != nil {
		return err
	}
	return runStatus(ctx, ac, id, mo.None[job.Kind]())
}

func interactiveConfig(ctx context.Context, ac *AppContext) error {
	idx, err := ac.Prompter.Select("Configuration", []string{"Update API key", "Remove API key", "Show current config"})
	if err != nil {
		return err
	}

	switch idx {
	case 0:
		if err := runSetup(ac); err != nil {
			return err
		}
		return ac.Connect()
	case 1:
		return runConfigRemove(ac)
	}
	return runConfigShow(ac)
}
