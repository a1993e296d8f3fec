package cli

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/job"
	"github.com/jinford/kits-cli/internal/core/voicemodel"
)

// Version はCLIのバージョン
const Version = "1.0.0"

func effectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "pre-effects",
			Usage: "前処理エフェクト（JSON）",
		},
		&cli.StringFlag{
			Name:  "post-effects",
			Usage: "後処理エフェクト（JSON）",
		},
	}
}

func outputFormatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "output-format",
		Usage: "出力フォーマット（例: wav, mp3）",
	}
}

func pagingFlags(defaultLimit int) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "ページ番号",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "1ページあたりの件数",
			Value: defaultLimit,
		},
	}
}

func kindNames() string {
	kinds := job.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

// NewCommand は kits-cli のルートコマンドを作成する
func NewCommand() *cli.Command {
	return &cli.Command{
		Name:    "kits-cli",
		Usage:   "Kits AI の音声変換・TTS・ボーカル分離などを実行するCLI",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "APIキー（環境変数・設定ファイルより優先）",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "デバッグログを出力",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "環境変数ファイルパス",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "設定ファイルパス（省略時は ~/.kits-cli/config.json）",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "setup",
				Usage:  "APIキーを設定",
				Action: SetupAction,
			},
			{
				Name:  "config",
				Usage: "設定の確認・削除",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "現在の設定を表示",
						Action: ConfigShowAction,
					},
					{
						Name:   "remove",
						Usage:  "保存済みのAPIキーを削除",
						Action: ConfigRemoveAction,
					},
				},
			},
			{
				Name:      "voice-convert",
				Usage:     "音声ファイルを別のボイスモデルに変換",
				ArgsUsage: "<input>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "model-id",
						Usage: "ボイスモデルID（省略時は一覧から選択）",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "出力ファイルパス",
					},
					&cli.FloatFlag{
						Name:  "conversion-strength",
						Usage: "変換の強さ（0-1）",
					},
					&cli.FloatFlag{
						Name:  "model-volume-mix",
						Usage: "モデル音量のミックス（0-1）",
					},
					&cli.IntFlag{
						Name:  "pitch-shift",
						Usage: "ピッチシフト（半音）",
					},
				}, effectFlags()...),
				Action: VoiceConvertAction,
			},
			{
				Name:      "tts",
				Usage:     "テキストを音声に変換",
				ArgsUsage: "<text>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "model-id",
						Usage: "ボイスモデルID（省略時は一覧から選択）",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "出力ファイルパス",
					},
				}, effectFlags()...),
				Action: TTSAction,
			},
			{
				Name:      "vocal-separate",
				Usage:     "ボーカルと伴奏を分離",
				ArgsUsage: "<input>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "出力ディレクトリ",
					},
					outputFormatFlag(),
				},
				Action: VocalSeparateAction,
			},
			{
				Name:      "stem-split",
				Usage:     "音源をステム（ドラム・ベースなど）に分割",
				ArgsUsage: "<input>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output-dir",
						Usage: "出力ディレクトリ",
					},
					outputFormatFlag(),
				},
				Action: StemSplitAction,
			},
			{
				Name:      "voice-blend",
				Usage:     "複数のボイスモデルをブレンド",
				ArgsUsage: "<input>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "models",
						Usage: "ブレンドするモデルID（カンマ区切り）",
					},
					&cli.StringFlag{
						Name:  "weights",
						Usage: "ブレンドの重み（カンマ区切り、0-1）",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "出力ファイルパス",
					},
				}, effectFlags()...),
				Action: VoiceBlendAction,
			},
			{
				Name:  "models",
				Usage: "ボイスモデルの一覧・詳細",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "ボイスモデル一覧を表示",
						Flags:  pagingFlags(voicemodel.DefaultLimit),
						Action: ModelsListAction,
					},
					{
						Name:      "get",
						Usage:     "ボイスモデルの詳細を表示",
						ArgsUsage: "<modelId>",
						Action:    ModelsGetAction,
					},
				},
			},
			{
				Name:  "jobs",
				Usage: "ジョブ管理",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "種別ごとの最近のジョブを表示",
						Flags: append([]cli.Flag{
							&cli.StringFlag{
								Name:     "kind",
								Usage:    "ジョブ種別（" + kindNames() + "）",
								Required: true,
							},
						}, pagingFlags(20)...),
						Action: JobsListAction,
					},
				},
			},
			{
				Name:      "status",
				Usage:     "ジョブの状態を確認",
				ArgsUsage: "<jobId>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "kind",
						Usage: "ジョブ種別（省略時は全種別を検索）",
					},
				},
				Action: StatusAction,
			},
			{
				Name:   "interactive",
				Usage:  "対話モードで全機能を利用",
				Action: InteractiveAction,
			},
		},
	}
}
