package kits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/job"
	"github.com/jinford/kits-cli/internal/platform/config"
)

// Client は Kits AI API の認証付きHTTPクライアント
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	userAgent     string
	logger        *slog.Logger
}

// Option は Client のオプション
type Option func(*Client)

// WithBaseURL はAPIのベースURLを設定する
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout はメタデータ系リクエストのタイムアウトを設定する
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithUploadTimeout はアップロードを伴うリクエストのタイムアウトを設定する
func WithUploadTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.uploadTimeout = d
		}
	}
}

// WithHTTPClient は利用する *http.Client を差し替える
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent は User-Agent ヘッダーを設定する
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger はロガーを設定する
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient は新しい Client を作成する。
// 認証情報は作成時に一度だけ読み込み、空の場合は InvalidRequest を返す。
func NewClient(creds config.CredentialSource, opts ...Option) (*Client, error) {
	apiKey := ""
	if creds != nil {
		apiKey = creds.Credential()
	}
	if apiKey == "" {
		return nil, apierror.InvalidRequest("API key not configured. Run \"kits-cli setup\" or set %s", config.APIKeyEnv)
	}

	c := &Client{
		baseURL:       config.DefaultBaseURL,
		apiKey:        apiKey,
		httpClient:    &http.Client{},
		timeout:       config.DefaultTimeout,
		uploadTimeout: config.DefaultUploadTimeout,
		userAgent:     config.DefaultUserAgent,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request はAPIリクエスト
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any       // JSONボディ
	Form   *job.Form // multipart/form-data ボディ
	Upload bool      // アップロード用タイムアウトを使う
}

// Response はAPIレスポンス
type Response struct {
	StatusCode int
	Body       []byte
}

// Decode はレスポンスボディをJSONとしてデコードする
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return apierror.Wrap(apierror.KindServerError, "invalid response body", err)
	}
	return nil
}

// Do はリクエストを送信し、2xx のレスポンスを返す。
// 失敗は常に *apierror.Error に分類される（呼び出し元のキャンセルを除く）。
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := c.timeout
	if req.Upload || req.Form != nil {
		timeout = c.uploadTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := c.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	body, contentType, err := c.encodeBody(req)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, endpoint, body)
	if err != nil {
		return nil, apierror.InvalidRequest("failed to build request: %v", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	c.logger.Debug("APIリクエスト送信",
		"requestId", requestID,
		"method", method,
		"path", req.Path,
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		classified := classifyTransportError(ctx, err)
		c.logger.Debug("APIリクエスト失敗",
			"requestId", requestID,
			"error", classified,
			"elapsed", time.Since(started),
		)
		return nil, classified
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}

	c.logger.Debug("APIレスポンス受信",
		"requestId", requestID,
		"status", resp.StatusCode,
		"elapsed", time.Since(started),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apierror.ServerError(resp.StatusCode, errorMessage(data))
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) encodeBody(req Request) (io.Reader, string, error) {
	switch {
	case req.Form != nil:
		body, contentType := streamMultipart(req.Form)
		return body, contentType, nil
	case req.JSON != nil:
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", apierror.InvalidRequest("failed to encode request body: %v", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
	return nil, "", nil
}

// streamMultipart はフォームを io.Pipe 経由でストリーミング送信するリーダーを返す。
// ファイルはリクエスト送信中にディスクから読み出される。
func streamMultipart(form *job.Form) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, form))
	}()

	return pr, mw.FormDataContentType()
}

func writeMultipart(mw *multipart.Writer, form *job.Form) error {
	for _, field := range form.Fields {
		if err := mw.WriteField(field.Name, field.Value); err != nil {
			return err
		}
	}

	for _, part := range form.Files {
		if err := writeFilePart(mw, part); err != nil {
			return err
		}
	}

	return mw.Close()
}

func writeFilePart(mw *multipart.Writer, part job.FilePart) error {
	f, err := os.Open(part.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", part.Path, err)
	}
	defer f.Close()

	w, err := mw.CreateFormFile(part.Name, filepath.Base(part.Path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to stream %s: %w", part.Path, err)
	}
	return nil
}

// classifyTransportError はトランスポート層のエラーを分類する。
// 呼び出し元のキャンセルはそのまま返す。
func classifyTransportError(parent context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(parent.Err(), context.Canceled) {
		return context.Canceled
	}

	var netErr net.Error
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apierror.Wrap(apierror.KindTimeout, "request timed out", err)
	case errors.As(err, &dnsErr):
		return apierror.Wrap(apierror.KindHostUnresolved, "could not resolve host", err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return apierror.Wrap(apierror.KindConnectionRefused, "connection refused", err)
	case errors.As(err, &netErr) && netErr.Timeout():
		return apierror.Wrap(apierror.KindTimeout, "request timed out", err)
	}
	return apierror.Wrap(apierror.KindNoResponse, "no response from server", err)
}

// errorMessage はエラーレスポンスからメッセージを取り出す（message > error）
func errorMessage(body []byte) string {
	var payload struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := stringValue(payload.Message); msg != "" {
			return msg
		}
		if msg := stringValue(payload.Error); msg != "" {
			return msg
		}
	}
	return "Unknown error"
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case map[string]any:
		if msg, ok := t["message"].(string); ok {
			return msg
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
