package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/samber/mo"
)

// ErrNoOutput は完了したジョブに成果物URLが含まれていない場合のエラー
var ErrNoOutput = errors.New("job completed but no output URL provided")

// Destination は成果物の保存先
type Destination struct {
	FilePath string // 単一出力の保存先
	Dir      string // 複数出力の保存ディレクトリ
}

// Result はジョブ実行の結果
type Result struct {
	Job   *Job
	Files []string
}

// Service は submit → poll → download を順に実行する
type Service struct {
	api        API
	submitter  *Submitter
	poller     *Poller
	downloader Downloader
	logger     *slog.Logger
}

type ServiceOption func(*Service)

// WithServiceLogger は Service にロガーを設定する
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPoller は Poller を差し替える
func WithPoller(p *Poller) ServiceOption {
	return func(s *Service) {
		s.poller = p
	}
}

// NewService は新しい Service を作成する
func NewService(api API, downloader Downloader, opts ...ServiceOption) *Service {
	svc := &Service{
		api:        api,
		downloader: downloader,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.poller == nil {
		svc.poller = NewPoller(api, WithPollerLogger(svc.logger))
	}
	svc.submitter = NewSubmitter(api, WithSubmitterLogger(svc.logger))
	return svc
}

// Submitter は内部の Submitter を返す
func (s *Service) Submitter() *Submitter {
	return s.submitter
}

// Run はジョブを作成し、完了を待って成果物をダウンロードする。
// 成果物がない完了ジョブは Result と ErrNoOutput を両方返す。
func (s *Service) Run(ctx context.Context, req Request, dest Destination, onProgress ProgressFunc) (*Result, error) {
	created, err := s.submitter.Submit(ctx, req)
	if err != nil {
		return nil, apierror.WithOp("submit "+req.Kind.String(), err)
	}
	s.logger.Info("ジョブを作成しました", "kind", req.Kind, "jobID", created.ID)
	if onProgress != nil {
		onProgress(created)
	}

	completed, err := s.poller.Poll(ctx, created.ID, req.Kind, onProgress)
	if err != nil {
		return nil, apierror.WithOp("poll "+req.Kind.String(), err)
	}
	s.logger.Info("ジョブが完了しました", "kind", req.Kind, "jobID", completed.ID)

	result := &Result{Job: completed}
	files, err := s.Download(ctx, completed, dest)
	if err != nil {
		return result, err
	}
	result.Files = files
	return result, nil
}

// Download は完了ジョブの成果物を保存先に書き出す
func (s *Service) Download(ctx context.Context, job *Job, dest Destination) ([]string, error) {
	switch {
	case job.Output.URL != "":
		if dest.FilePath == "" {
			return nil, apierror.WithOp("download", apierror.InvalidRequest("output file path is required"))
		}
		if err := s.downloader.DownloadOne(ctx, job.Output.URL, dest.FilePath); err != nil {
			return nil, apierror.WithOp("download", err)
		}
		return []string{dest.FilePath}, nil

	case len(job.Output.Parts) > 0:
		if dest.Dir == "" {
			return nil, apierror.WithOp("download", apierror.InvalidRequest("output directory is required"))
		}
		files, err := s.downloader.DownloadMany(ctx, job.Output.Parts, dest.Dir)
		if err != nil {
			return nil, apierror.WithOp("download", err)
		}
		return files, nil
	}

	return nil, ErrNoOutput
}

// Status はジョブの状態を1回だけ取得する。
// 種別が未指定の場合は全種別を順に試し、404 は次の種別へ進む。
func (s *Service) Status(ctx context.Context, id string, kind mo.Option[Kind]) (*Job, error) {
	if id == "" {
		return nil, apierror.WithOp("status", apierror.InvalidRequest("job id is required"))
	}

	kinds := Kinds()
	if k, ok := kind.Get(); ok {
		if !k.Valid() {
			return nil, apierror.WithOp("status", apierror.InvalidRequest("unknown job kind: %q", k))
		}
		kinds = []Kind{k}
	}

	for _, k := range kinds {
		job, err := s.api.GetJob(ctx, k, id)
		if err != nil {
			if apierror.IsStatus(err, http.StatusNotFound) {
				s.logger.Debug("この種別にはジョブが見つかりません", "jobID", id, "kind", k)
				continue
			}
			return nil, apierror.WithOp(fmt.Sprintf("status %s", k), err)
		}
		if job.Kind == "" {
			job.Kind = k
		}
		return job, nil
	}

	return nil, apierror.WithOp("status", &apierror.Error{Kind: apierror.KindJobNotFound, JobID: id})
}

// List は指定種別の最近のジョブを返す
func (s *Service) List(ctx context.Context, kind Kind, page, limit int) (*Page, error) {
	if !kind.Valid() {
		return nil, apierror.WithOp("list jobs", apierror.InvalidRequest("unknown job kind: %q", kind))
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	result, err := s.api.ListJobs(ctx, kind, page, limit)
	if err != nil {
		return nil, apierror.WithOp("list "+kind.String(), err)
	}
	for _, j := range result.Jobs {
		if j.Kind == "" {
			j.Kind = kind
		}
	}
	return result, nil
}
