package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// stubPrompter は事前に用意した回答を順番に返す
type stubPrompter struct {
	inputs   []string
	selects  []int
	confirms []bool

	labels []string
}

func (p *stubPrompter) Input(label, defaultValue string, mask bool, validate func(string) error) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.inputs) == 0 {
		return "", ErrPromptAborted
	}
	v := p.inputs[0]
	p.inputs = p.inputs[1:]
	if v == "" {
		v = defaultValue
	}
	if validate != nil {
		if err := validate(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (p *stubPrompter) Select(label string, items []string) (int, error) {
	p.labels = append(p.labels, label)
	if len(p.selects) == 0 {
		return -1, ErrPromptAborted
	}
	v := p.selects[0]
	p.selects = p.selects[1:]
	if v < 0 || v >= len(items) {
		return -1, errors.New("selection out of range")
	}
	return v, nil
}

func (p *stubPrompter) Confirm(label string, defaultYes bool) (bool, error) {
	p.labels = append(p.labels, label)
	if len(p.confirms) == 0 {
		return false, ErrPromptAborted
	}
	v := p.confirms[0]
	p.confirms = p.confirms[1:]
	return v, nil
}

func usePrompter(t *testing.T, p Prompter) {
	t.Helper()

	promptOverride = p
	t.Cleanup(func() { promptOverride = nil })
}

// fakeKits はリクエストを記録する Kits API のテストサーバー
type fakeKits struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	routes   map[string]http.HandlerFunc
}

func newFakeKits(t *testing.T) *fakeKits {
	t.Helper()

	f := &fakeKits{routes: map[string]http.HandlerFunc{}}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		f.mu.Lock()
		f.requests = append(f.requests, key)
		handler, ok := f.routes[key]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeKits) handle(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeKits) json(method, path, body string) {
	f.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func (f *fakeKits) file(path string, body []byte) {
	f.handle(http.MethodGet, path, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	})
}

func (f *fakeKits) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// setupEnv はテスト用の環境変数を設定し、設定ファイルのパスを返す
func setupEnv(t *testing.T, baseURL string) string {
	t.Helper()

	configFile := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("KITS_API_BASE_URL", baseURL)
	t.Setenv("KITS_CONFIG_FILE", configFile)
	t.Setenv("KITS_API_KEY", "")
	t.Setenv("KITS_DOWNLOAD_PARALLEL", "")
	return configFile
}

// runCLI はルートコマンドを実行し、出力を返す
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := NewCommand()
	root.Writer = &out
	root.ErrWriter = &out

	err := root.Run(context.Background(), append([]string{"kits-cli", "--env", filepath.Join(t.TempDir(), "none.env")}, args...))
	return out.String(), err
}

func mustRunCLI(t *testing.T, args ...string) string {
	t.Helper()

	out, err := runCLI(t, args...)
	require.NoError(t, err, out)
	return out
}
