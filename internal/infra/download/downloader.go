package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/job"
	"golang.org/x/sync/errgroup"
)

// Downloader は成果物URLをローカルファイルに保存する。
// 成果物URLは署名付きのため認証ヘッダーは付与しない。
type Downloader struct {
	httpClient  *http.Client
	maxParallel int
	logger      *slog.Logger
}

var _ job.Downloader = (*Downloader)(nil)

// Option は Downloader のオプション
type Option func(*Downloader)

// WithHTTPClient は利用する *http.Client を差し替える
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Downloader) {
		if hc != nil {
			d.httpClient = hc
		}
	}
}

// WithMaxParallel は同時ダウンロード数の上限を設定する（0以下は無制限）
func WithMaxParallel(n int) Option {
	return func(d *Downloader) {
		d.maxParallel = n
	}
}

// WithLogger はロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDownloader は新しい Downloader を作成する
func NewDownloader(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadOne はURLの内容を destPath に保存する。
// 一時ファイルに書き込んでからリネームするため、destPath は常に完全な内容のみを持つ。
func (d *Downloader) DownloadOne(ctx context.Context, url, destPath string) error {
	if err := d.download(ctx, url, destPath); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &apierror.Error{Kind: apierror.KindDownloadError, URL: url, Err: err}
	}
	return nil
}

func (d *Downloader) download(ctx context.Context, url, destPath string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmpPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.part", filepath.Base(destPath), uuid.NewString()))

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(f, resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", destPath, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", destPath, err)
	}
	if err = os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s: %w", destPath, err)
	}

	d.logger.Debug("ダウンロード完了", "path", destPath, "bytes", written)
	return nil
}

// DownloadMany は名前付きの成果物を destDir に {name}.wav として並列に保存し、
// 書き込んだパスを名前順で返す。最初の失敗で残りをキャンセルする。
// 完了済みのファイルは削除しない。
func (d *Downloader) DownloadMany(ctx context.Context, parts map[string]string, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &apierror.Error{Kind: apierror.KindDownloadError, URL: destDir, Err: err}
	}

	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(destDir, partFileName(name))
	}

	eg, egCtx := errgroup.WithContext(ctx)
	if d.maxParallel > 0 {
		eg.SetLimit(d.maxParallel)
	}

	for i, name := range names {
		url := parts[name]
		dest := paths[i]
		eg.Go(func() error {
			d.logger.Debug("ダウンロード開始", "part", name, "path", dest)
			return d.DownloadOne(egCtx, url, dest)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// partFileName はパート名をディレクトリを含まないファイル名に変換する
func partFileName(name string) string {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." || base == "" {
		base = "output"
	}
	return base + ".wav"
}
