package apierror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind はエラーの分類を表す
type Kind string

const (
	// KindInvalidRequest はローカルで検出した不正な引数（ネットワークには送信しない）
	KindInvalidRequest Kind = "invalid_request"
	// KindPayloadTooLarge はアップロードサイズ上限超過
	KindPayloadTooLarge Kind = "payload_too_large"
	// KindTimeout は呼び出しごとのタイムアウト超過
	KindTimeout Kind = "timeout"
	// KindConnectionRefused は接続拒否
	KindConnectionRefused Kind = "connection_refused"
	// KindHostUnresolved はホスト名解決の失敗
	KindHostUnresolved Kind = "host_unresolved"
	// KindNoResponse はリクエスト送信後にレスポンスを受け取れなかった
	KindNoResponse Kind = "no_response"
	// KindServerError は2xx以外のステータス
	KindServerError Kind = "server_error"
	// KindJobNotFound はジョブが存在しない
	KindJobNotFound Kind = "job_not_found"
	// KindJobFailed はジョブ自身が失敗を報告した
	KindJobFailed Kind = "job_failed"
	// KindPollTimeout はポーリング回数の上限到達
	KindPollTimeout Kind = "poll_timeout"
	// KindDownloadError は結果ファイルのダウンロード失敗
	KindDownloadError Kind = "download_error"
)

// 種別ごとのセンチネル。errors.Is は Kind だけを比較する。
var (
	ErrInvalidRequest    = &Error{Kind: KindInvalidRequest}
	ErrPayloadTooLarge   = &Error{Kind: KindPayloadTooLarge}
	ErrTimeout           = &Error{Kind: KindTimeout}
	ErrConnectionRefused = &Error{Kind: KindConnectionRefused}
	ErrHostUnresolved    = &Error{Kind: KindHostUnresolved}
	ErrNoResponse        = &Error{Kind: KindNoResponse}
	ErrServerError       = &Error{Kind: KindServerError}
	ErrJobNotFound       = &Error{Kind: KindJobNotFound}
	ErrJobFailed         = &Error{Kind: KindJobFailed}
	ErrPollTimeout       = &Error{Kind: KindPollTimeout}
	ErrDownloadError     = &Error{Kind: KindDownloadError}
)

// Error はCLI全体で共有する分類済みエラー
type Error struct {
	Kind    Kind
	Op      string  // 試行した操作（例: "submit voice-conversion"）
	Status  int     // ServerError のHTTPステータス
	Message string  // サーバーまたはジョブが返したメッセージ
	JobID   string  // JobNotFound の対象
	URL     string  // DownloadError の対象
	SizeMB  float64 // PayloadTooLarge の実サイズ
	Err     error   // 原因
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(string(e.Kind))

	if detail := e.detail(); detail != "" {
		sb.WriteString(": ")
		sb.WriteString(detail)
	}
	return sb.String()
}

func (e *Error) detail() string {
	switch e.Kind {
	case KindServerError:
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	case KindPayloadTooLarge:
		return fmt.Sprintf("file size (%.2fMB) exceeds the maximum limit of 100MB", e.SizeMB)
	case KindJobNotFound:
		return "job not found: " + e.JobID
	case KindJobFailed:
		return "job failed: " + e.Message
	case KindDownloadError:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.URL, e.Err)
		}
		return e.URL
	}

	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return ""
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is は Kind が一致すれば true を返す
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New は指定した種別のエラーを作成する
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap は原因エラーを保持した分類済みエラーを作成する
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// InvalidRequest は InvalidRequest{reason} を作成する
func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// ServerError は ServerError{status, message} を作成する
func ServerError(status int, message string) *Error {
	return &Error{Kind: KindServerError, Status: status, Message: message}
}

// WithOp は分類済みエラーに操作名を付与する。
// 既に Op を持つエラーはそのまま返す。分類されていないエラーは %w でラップする。
func WithOp(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Op != "" {
			return err
		}
		cp := *apiErr
		cp.Op = op
		return &cp
	}
	return fmt.Errorf("%s: %w", op, err)
}

// KindOf はエラーの分類を返す。分類できない場合は空文字を返す。
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsStatus は ServerError かつ指定ステータスであるかを判定する
func IsStatus(err error, status int) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == KindServerError && apiErr.Status == status
}
