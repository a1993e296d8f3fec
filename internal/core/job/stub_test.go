package job

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// stubAPI はテスト用のジョブAPI。呼び出し回数を記録する。
type stubAPI struct {
	mu sync.Mutex

	CreateJobFunc func(ctx context.Context, kind Kind, form *Form) (*Job, error)
	GetJobFunc    func(ctx context.Context, kind Kind, id string) (*Job, error)
	ListJobsFunc  func(ctx context.Context, kind Kind, page, limit int) (*Page, error)

	createCalls int
	getCalls    int
	listCalls   int
	lastForm    *Form
	kindsSeen   []Kind
}

func (s *stubAPI) CreateJob(ctx context.Context, kind Kind, form *Form) (*Job, error) {
	s.mu.Lock()
	s.createCalls++
	s.lastForm = form
	s.mu.Unlock()
	if s.CreateJobFunc != nil {
		return s.CreateJobFunc(ctx, kind, form)
	}
	return &Job{ID: "job-1", Status: StatusQueued}, nil
}

func (s *stubAPI) GetJob(ctx context.Context, kind Kind, id string) (*Job, error) {
	s.mu.Lock()
	s.getCalls++
	s.kindsSeen = append(s.kindsSeen, kind)
	s.mu.Unlock()
	if s.GetJobFunc != nil {
		return s.GetJobFunc(ctx, kind, id)
	}
	return &Job{ID: id, Status: StatusCompleted}, nil
}

func (s *stubAPI) ListJobs(ctx context.Context, kind Kind, page, limit int) (*Page, error) {
	s.mu.Lock()
	s.listCalls++
	s.mu.Unlock()
	if s.ListJobsFunc != nil {
		return s.ListJobsFunc(ctx, kind, page, limit)
	}
	return &Page{}, nil
}

func (s *stubAPI) networkCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createCalls + s.getCalls + s.listCalls
}

// stubDownloader はテスト用のダウンローダー
type stubDownloader struct {
	oneCalls  []string
	manyCalls []map[string]string
	err       error
}

func (d *stubDownloader) DownloadOne(ctx context.Context, url, destPath string) error {
	d.oneCalls = append(d.oneCalls, url+" -> "+destPath)
	return d.err
}

func (d *stubDownloader) DownloadMany(ctx context.Context, parts map[string]string, destDir string) ([]string, error) {
	d.manyCalls = append(d.manyCalls, parts)
	if d.err != nil {
		return nil, d.err
	}
	files := make([]string, 0, len(parts))
	for name := range parts {
		files = append(files, filepath.Join(destDir, name+".wav"))
	}
	return files, nil
}

// writeAudio はテスト用の音声ファイルを作成する
func writeAudio(t *testing.T, size int64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	// スパースファイルで大きなサイズを作る
	require.NoError(t, f.Truncate(size))
	return path
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}
