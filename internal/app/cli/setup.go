package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/platform/config"
)

// SetupAction はAPIキーを対話的に設定するコマンドのアクション
func SetupAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runSetup(appCtx)
}

func runSetup(ac *AppContext) error {
	headerColor.Fprintln(ac.Out, "Setup Kits AI CLI")
	detailColor.Fprintln(ac.Out, "You need a Kits AI API key to use this CLI.")
	detailColor.Fprintln(ac.Out, "Get your API key from: https://docs.kits.ai/api-reference")
	fmt.Fprintln(ac.Out)

	apiKey, err := ac.Prompter.Input("Enter your Kits AI API key", "", true, func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New("API key is required")
		}
		return nil
	})
	if err != nil {
		return err
	}

	save, err := ac.Prompter.Confirm("Save API key to local config file", true)
	if err != nil {
		return err
	}

	if !save {
		warnColor.Fprintln(ac.Out, "API key not saved.")
		fmt.Fprintf(ac.Out, "Set the %s environment variable to use the CLI.\n", config.APIKeyEnv)
		return nil
	}

	if err := ac.Credentials.SetCredential(apiKey); err != nil {
		errorColor.Fprintln(ac.Out, "Failed to save API key to config file.")
		fmt.Fprintf(ac.Out, "You can set it as an environment variable: %s\n", config.APIKeyEnv)
		return err
	}

	ac.Logger.Debug("APIキーを保存しました", "path", ac.Credentials.Path())
	successColor.Fprintf(ac.Out, "API key saved to %s\n", ac.Credentials.Path())
	fmt.Fprintln(ac.Out, "Setup complete! Try running:")
	fmt.Fprintln(ac.Out, "  kits-cli models list")
	fmt.Fprintln(ac.Out, "  kits-cli interactive")
	return nil
}

// ConfigShowAction は現在の設定を表示するコマンドのアクション
func ConfigShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runConfigShow(appCtx)
}

func runConfigShow(ac *AppContext) error {
	key, origin := ac.Credentials.Resolve()
	if ac.apiKeyFlag != "" {
		key, origin = config.StaticCredential(ac.apiKeyFlag).Credential(), "--api-key flag"
	}

	printDetails(ac.Out, "Current configuration:", []detail{
		{label: "API Key", value: config.MaskCredential(key)},
		{label: "Source", value: string(origin)},
		{label: "Config file", value: ac.Credentials.Path()},
		{label: "API base URL", value: ac.Config.API.BaseURL},
		{label: "Timeout", value: ac.Config.API.Timeout.String()},
		{label: "Upload timeout", value: ac.Config.API.UploadTimeout.String()},
	})
	return nil
}

// ConfigRemoveAction は保存済みのAPIキーを削除するコマンドのアクション
func ConfigRemoveAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runConfigRemove(appCtx)
}

func runConfigRemove(ac *AppContext) error {
	if err := ac.Credentials.RemoveCredential(); err != nil {
		return err
	}
	successColor.Fprintln(ac.Out, "API key removed from config file")

	if _, origin := ac.Credentials.Resolve(); origin == config.OriginEnv {
		warnColor.Fprintf(ac.Out, "%s is still set in the environment\n", config.APIKeyEnv)
	}
	return nil
}
