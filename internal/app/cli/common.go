package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/job"
	"github.com/jinford/kits-cli/internal/core/voicemodel"
	"github.com/jinford/kits-cli/internal/infra/download"
	"github.com/jinford/kits-cli/internal/infra/kits"
	"github.com/jinford/kits-cli/internal/platform/config"
	"github.com/jinford/kits-cli/internal/platform/logger"
)

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config      *config.Config
	Logger      *slog.Logger
	Credentials *config.FileCredentialStore
	Prompter    Prompter
	Out         io.Writer

	// Connect 後に利用可能
	Jobs   *job.Service
	Models *voicemodel.Service

	apiKeyFlag string
}

// promptOverride はテストで Prompter を差し替えるためのフック
var promptOverride Prompter

// NewAppContext はグローバルフラグと設定を読み込み AppContext を作成する。
// APIへの接続は Connect で行う。
func NewAppContext(ctx context.Context, cmd *cli.Command) (*AppContext, error) {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if path := cmd.String("config"); path != "" {
		cfg.CredentialFile = path
	}

	appLogger := logger.New(logger.ForCLI(cmd.Bool("verbose"), cfg.Log.Format))

	prompter := promptOverride
	if prompter == nil {
		prompter = NewTerminalPrompter()
	}

	return &AppContext{
		Config:      cfg,
		Logger:      appLogger,
		Credentials: config.NewFileCredentialStore(cfg.CredentialFile),
		Prompter:    prompter,
		Out:         writerOf(cmd),
		apiKeyFlag:  cmd.String("api-key"),
	}, nil
}

// NewConnectedAppContext は AppContext を作成し、APIクライアントまで初期化する
func NewConnectedAppContext(ctx context.Context, cmd *cli.Command) (*AppContext, error) {
	appCtx, err := NewAppContext(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := appCtx.Connect(); err != nil {
		return nil, err
	}
	return appCtx, nil
}

// CredentialSource は --api-key > KITS_API_KEY > 設定ファイル の順で認証情報を解決する
func (ac *AppContext) CredentialSource() config.CredentialSource {
	if ac.apiKeyFlag != "" {
		return config.StaticCredential(ac.apiKeyFlag)
	}
	return ac.Credentials
}

// Connect はAPIクライアントとサービスを初期化する
func (ac *AppContext) Connect() error {
	client, err := kits.NewClient(ac.CredentialSource(),
		kits.WithBaseURL(ac.Config.API.BaseURL),
		kits.WithTimeout(ac.Config.API.Timeout),
		kits.WithUploadTimeout(ac.Config.API.UploadTimeout),
		kits.WithUserAgent(ac.Config.API.UserAgent),
		kits.WithLogger(ac.Logger),
	)
	if err != nil {
		return err
	}

	downloader := download.NewDownloader(
		download.WithMaxParallel(ac.Config.DownloadParallel),
		download.WithLogger(ac.Logger),
	)

	ac.Jobs = job.NewService(kits.NewJobAPI(client), downloader,
		job.WithServiceLogger(ac.Logger),
	)
	ac.Models = voicemodel.NewService(kits.NewModelAPI(client),
		voicemodel.WithServiceLogger(ac.Logger),
	)
	return nil
}

// Connected はAPIクライアントが初期化済みかどうかを返す
func (ac *AppContext) Connected() bool {
	return ac.Jobs != nil && ac.Models != nil
}

func writerOf(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}
