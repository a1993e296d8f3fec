package job

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jinford/kits-cli/internal/core/apierror"
)

const (
	// PollInterval はステータス確認の間隔
	PollInterval = 5 * time.Second

	// MaxPollAttempts はステータス確認の最大回数（約5分）
	MaxPollAttempts = 60
)

// ProgressFunc はポーリングごとに最新のスナップショットを受け取る
type ProgressFunc func(*Job)

// Poller はジョブが終端状態になるまでステータスを確認する
type Poller struct {
	api      StatusFetcher
	interval time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *slog.Logger
}

type PollerOption func(*Poller)

// WithPollerLogger は Poller にロガーを設定する
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithPollInterval はポーリング間隔を差し替える（テスト用）
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		p.interval = d
	}
}

// WithSleeper は待機処理を差し替える（テスト用）
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) PollerOption {
	return func(p *Poller) {
		p.sleep = sleep
	}
}

// NewPoller は新しい Poller を作成する
func NewPoller(api StatusFetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		api:      api,
		interval: PollInterval,
		sleep:    sleepContext,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Poll はジョブが Completed になるまで待機して最終スナップショットを返す。
// Failed は即座に JobFailed、MaxPollAttempts 回で終わらなければ PollTimeout。
func (p *Poller) Poll(ctx context.Context, id string, kind Kind, onProgress ProgressFunc) (*Job, error) {
	if !kind.Valid() {
		return nil, apierror.InvalidRequest("unknown job kind: %q", kind)
	}
	if id == "" {
		return nil, apierror.InvalidRequest("job id is required")
	}

	for attempt := 1; attempt <= MaxPollAttempts; attempt++ {
		job, err := p.api.GetJob(ctx, kind, id)
		if err != nil {
			if apierror.IsStatus(err, http.StatusNotFound) {
				return nil, &apierror.Error{Kind: apierror.KindJobNotFound, JobID: id, Err: err}
			}
			return nil, err
		}
		if job.Kind == "" {
			job.Kind = kind
		}

		if onProgress != nil {
			onProgress(job)
		}

		p.logger.Debug("ジョブの状態を取得しました",
			"jobID", id,
			"kind", kind,
			"status", job.Status,
			"progress", job.Progress.OrElse(0),
			"attempt", attempt,
		)

		switch job.Status {
		case StatusCompleted:
			return job, nil
		case StatusFailed:
			msg := job.Error
			if msg == "" {
				msg = "Unknown error"
			}
			return nil, &apierror.Error{Kind: apierror.KindJobFailed, JobID: id, Message: msg}
		}

		if attempt == MaxPollAttempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}
	}

	return nil, &apierror.Error{
		Kind:    apierror.KindPollTimeout,
		JobID:   id,
		Message: "job polling timed out after 5 minutes",
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
