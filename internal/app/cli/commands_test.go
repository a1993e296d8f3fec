package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/kits-cli/internal/core/apierror"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func writeAudio(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVEfmt "), 0o644))
	return path
}

func TestVoiceConvertCommand(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	audio := []byte("converted-audio-bytes")
	var gotModelID, gotPitch, gotAuth string
	f.handle(http.MethodPost, "/voice-conversions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotModelID = r.FormValue("voiceModelId")
			gotPitch = r.FormValue("pitchShift")
		}
		_, _ = w.Write([]byte(`{"id":42,"status":"queued"}`))
	})
	f.json(http.MethodGet, "/voice-conversions/42",
		fmt.Sprintf(`{"id":42,"status":"completed","outputUrl":%q}`, f.URL+"/files/out.wav"))
	f.file("/files/out.wav", audio)

	input := writeAudio(t, "voice.wav")
	output := filepath.Join(t.TempDir(), "nested", "converted.wav")

	out := mustRunCLI(t, "--api-key", "sk-flag", "voice-convert",
		"--model-id", "1118", "--pitch-shift=-3", "--output", output, input)

	assert.Contains(t, out, "Voice conversion completed!")
	assert.Contains(t, out, "Job ID: 42")
	assert.Equal(t, "Bearer sk-flag", gotAuth)
	assert.Equal(t, "1118", gotModelID)
	assert.Equal(t, "-3", gotPitch)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, audio, got)
}

func TestVoiceConvertCommand_ModelPicker(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	f.json(http.MethodGet, "/voice-models",
		`{"data":[{"id":1,"title":"Alto"},{"id":2,"title":"Tenor"}],"meta":{"currentPage":1,"lastPage":1,"total":2,"perPage":10}}`)

	var gotModelID string
	f.handle(http.MethodPost, "/voice-conversions", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotModelID = r.FormValue("voiceModelId")
		}
		_, _ = w.Write([]byte(`{"id":"7","status":"queued"}`))
	})
	f.json(http.MethodGet, "/voice-conversions/7",
		fmt.Sprintf(`{"id":"7","status":"completed","outputUrl":%q}`, f.URL+"/files/7.wav"))
	f.file("/files/7.wav", []byte("x"))

	p := &stubPrompter{selects: []int{1}}
	usePrompter(t, p)

	output := filepath.Join(t.TempDir(), "picked.wav")
	mustRunCLI(t, "--api-key", "k", "voice-convert", "--output", output, writeAudio(t, "in.mp3"))

	assert.Equal(t, "2", gotModelID)
	assert.Contains(t, p.labels, "Choose a voice model")
}

func TestVoiceConvertCommand_InvalidInput(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	_, err := runCLI(t, "--api-key", "k", "voice-convert", "--model-id", "1", txt)
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidRequest, apierror.KindOf(err))
	assert.Empty(t, f.recorded())
}

func TestVoiceConvertCommand_MissingAPIKey(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	_, err := runCLI(t, "voice-convert", "--model-id", "1", writeAudio(t, "a.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not configured")
	assert.Empty(t, f.recorded())
}

func TestTTSCommand(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	var gotText string
	f.handle(http.MethodPost, "/tts", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotText = r.FormValue("inputTtsText")
		}
		_, _ = w.Write([]byte(`{"id":5,"status":"processing"}`))
	})
	f.json(http.MethodGet, "/tts/5",
		fmt.Sprintf(`{"id":5,"status":"completed","outputUrl":%q}`, f.URL+"/files/tts.wav"))
	f.file("/files/tts.wav", []byte("speech"))

	output := filepath.Join(t.TempDir(), "tts.wav")
	out := mustRunCLI(t, "--api-key", "k", "tts", "--model-id", "9", "--output", output, "Hello world")

	assert.Equal(t, "Hello world", gotText)
	assert.Contains(t, out, "Text-to-speech completed!")
	assert.FileExists(t, output)
}

func TestTTSCommand_InvalidEffects(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	_, err := runCLI(t, "--api-key", "k", "tts", "--model-id", "9", "--post-effects", "{bad", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--post-effects must be valid JSON")
	assert.Empty(t, f.recorded())
}

func TestVocalSeparateCommand(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	var gotFormat string
	f.handle(http.MethodPost, "/vocal-separations", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotFormat = r.FormValue("outputFormat")
		}
		_, _ = w.Write([]byte(`{"id":11,"status":"queued"}`))
	})
	f.json(http.MethodGet, "/vocal-separations/11", fmt.Sprintf(
		`{"id":11,"status":"completed","outputUrls":{"vocals":%q,"instrumental":%q}}`,
		f.URL+"/files/v.wav", f.URL+"/files/i.wav"))
	f.file("/files/v.wav", []byte("vocals"))
	f.file("/files/i.wav", []byte("instrumental"))

	outDir := filepath.Join(t.TempDir(), "split")
	out := mustRunCLI(t, "--api-key", "k", "vocal-separate",
		"--output-dir", outDir, "--output-format", "WAV", writeAudio(t, "song.wav"))

	assert.Equal(t, "wav", gotFormat)
	assert.Contains(t, out, "Vocal separation completed!")
	assert.Contains(t, out, "instrumental, vocals")

	vocals, err := os.ReadFile(filepath.Join(outDir, "vocals.wav"))
	require.NoError(t, err)
	assert.Equal(t, "vocals", string(vocals))
	assert.FileExists(t, filepath.Join(outDir, "instrumental.wav"))
}

func TestStemSplitCommand_SingleOutput(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	f.json(http.MethodPost, "/stem-splitter", `{"id":12,"status":"queued"}`)
	f.json(http.MethodGet, "/stem-splitter/12",
		fmt.Sprintf(`{"id":12,"status":"completed","outputUrl":%q}`, f.URL+"/files/stems.zip"))
	f.file("/files/stems.zip", []byte("stems"))

	outDir := filepath.Join(t.TempDir(), "stems")
	mustRunCLI(t, "--api-key", "k", "stem-split", "--output-dir", outDir, writeAudio(t, "song.flac"))

	assert.FileExists(t, filepath.Join(outDir, "stem_split.wav"))
}

func TestVoiceBlendCommand(t *testing.T) {
	t.Run("モデルと重みを指定", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		var gotIDs, gotWeights string
		f.handle(http.MethodPost, "/voice-blender", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				gotIDs = r.FormValue("voiceModelIds")
				gotWeights = r.FormValue("blendWeights")
			}
			_, _ = w.Write([]byte(`{"id":3,"status":"queued"}`))
		})
		f.json(http.MethodGet, "/voice-blender/3",
			fmt.Sprintf(`{"id":3,"status":"completed","outputUrl":%q}`, f.URL+"/files/blend.wav"))
		f.file("/files/blend.wav", []byte("blend"))

		output := filepath.Join(t.TempDir(), "blend.wav")
		out := mustRunCLI(t, "--api-key", "k", "voice-blend",
			"--models", "1,2", "--weights", "0.7,0.3", "--output", output, writeAudio(t, "in.wav"))

		var ids []string
		require.NoError(t, json.Unmarshal([]byte(gotIDs), &ids))
		assert.Equal(t, []string{"1", "2"}, ids)
		var weights []float64
		require.NoError(t, json.Unmarshal([]byte(gotWeights), &weights))
		assert.Equal(t, []float64{0.7, 0.3}, weights)
		assert.Contains(t, out, "Voice blending completed!")
		assert.FileExists(t, output)
	})

	t.Run("重みだけを指定", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		_, err := runCLI(t, "--api-key", "k", "voice-blend", "--weights", "0.5,0.5", writeAudio(t, "in.wav"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--models and --weights must be used together")
		assert.Empty(t, f.recorded())
	})

	t.Run("モデル数と重みの数が不一致", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		_, err := runCLI(t, "--api-key", "k", "voice-blend",
			"--models", "1,2,3", "--weights", "0.5,0.5", writeAudio(t, "in.wav"))
		require.Error(t, err)
		assert.Equal(t, apierror.KindInvalidRequest, apierror.KindOf(err))
		assert.Empty(t, f.recorded())
	})

	t.Run("対話でモデルを選択", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		f.json(http.MethodGet, "/voice-models",
			`{"data":[{"id":1,"title":"A"},{"id":2,"title":"B"},{"id":3,"title":"C"}],"meta":{"currentPage":1,"lastPage":1,"total":3,"perPage":20}}`)
		var gotIDs string
		f.handle(http.MethodPost, "/voice-blender", func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				gotIDs = r.FormValue("voiceModelIds")
			}
			_, _ = w.Write([]byte(`{"id":4,"status":"queued"}`))
		})
		f.json(http.MethodGet, "/voice-blender/4",
			fmt.Sprintf(`{"id":4,"status":"completed","outputUrl":%q}`, f.URL+"/files/b.wav"))
		f.file("/files/b.wav", []byte("b"))

		// C を選び、残り [A, B] から A を選び、[B, Done] から Done を選ぶ
		usePrompter(t, &stubPrompter{
			selects: []int{2, 0, 1},
			inputs:  []string{"0.6", "0.4"},
		})

		output := filepath.Join(t.TempDir(), "b.wav")
		mustRunCLI(t, "--api-key", "k", "voice-blend", "--output", output, writeAudio(t, "in.wav"))

		var ids []string
		require.NoError(t, json.Unmarshal([]byte(gotIDs), &ids))
		assert.Equal(t, []string{"3", "1"}, ids)
	})
}

func TestModelsCommands(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	var gotQuery string
	f.handle(http.MethodGet, "/voice-models", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"data":[{"id":1118,"title":"Female Pop","tags":["pop","female"],"isUsable":true}],` +
			`"meta":{"currentPage":2,"lastPage":5,"total":50,"perPage":10}}`))
	})
	f.json(http.MethodGet, "/voice-models/1118",
		`{"id":1118,"title":"Female Pop","description":"Bright pop voice","language":"en","isUsable":false}`)

	out := mustRunCLI(t, "--api-key", "k", "models", "list", "--page", "2", "--limit", "10")
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "limit=10")
	assert.Contains(t, out, "Female Pop")
	assert.Contains(t, out, "pop, female")
	assert.Contains(t, out, "Page 2 of 5")
	assert.Contains(t, out, "kits-cli models list --page 3")

	out = mustRunCLI(t, "--api-key", "k", "models", "get", "1118")
	assert.Contains(t, out, "Name: Female Pop")
	assert.Contains(t, out, "Description: Bright pop voice")
	assert.Contains(t, out, "Available: No")
}

func TestJobsListCommand(t *testing.T) {
	f := newFakeKits(t)
	setupEnv(t, f.URL)

	f.json(http.MethodGet, "/tts",
		`{"data":[{"id":1,"status":"completed","outputUrl":"https://cdn.example.com/1.wav"},{"id":2,"status":"running","progress":40}],`+
			`"meta":{"currentPage":1,"lastPage":1,"total":2,"perPage":20}}`)

	out := mustRunCLI(t, "--api-key", "k", "jobs", "list", "--kind", "text-to-speech")
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "processing")
	assert.Contains(t, out, "40%")
	assert.Contains(t, out, "1 file")

	_, err := runCLI(t, "--api-key", "k", "jobs", "list", "--kind", "karaoke")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job kind")
}

func TestStatusCommand(t *testing.T) {
	t.Run("種別を省略すると全種別を検索", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		f.json(http.MethodGet, "/tts/abc", `{"id":"abc","status":"processing","progress":55}`)

		out := mustRunCLI(t, "--api-key", "k", "status", "abc")
		assert.Contains(t, out, "Job ID: abc")
		assert.Contains(t, out, "Type: text-to-speech")
		assert.Contains(t, out, "Progress: 55%")
		assert.Contains(t, out, "Job is still processing...")
		assert.Equal(t, []string{"GET /voice-conversions/abc", "GET /tts/abc"}, f.recorded())
	})

	t.Run("どの種別にも存在しない", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		_, err := runCLI(t, "--api-key", "k", "status", "nope")
		require.Error(t, err)
		assert.Equal(t, apierror.KindJobNotFound, apierror.KindOf(err))
		assert.Len(t, f.recorded(), 5)
	})

	t.Run("種別を指定", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		f.json(http.MethodGet, "/voice-blender/9", `{"id":9,"status":"failed","error":"model unavailable"}`)

		out := mustRunCLI(t, "--api-key", "k", "status", "--kind", "voice-blender", "9")
		assert.Contains(t, out, "Error: model unavailable")
		assert.NotContains(t, out, "still processing")
		assert.Equal(t, []string{"GET /voice-blender/9"}, f.recorded())
	})
}

func TestSetupAndConfigCommands(t *testing.T) {
	f := newFakeKits(t)
	configFile := setupEnv(t, f.URL)

	usePrompter(t, &stubPrompter{
		inputs:   []string{"sk-test-abcd1234"},
		confirms: []bool{true},
	})

	out := mustRunCLI(t, "setup")
	assert.Contains(t, out, "API key saved to "+configFile)

	raw, err := os.ReadFile(configFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sk-test-abcd1234")

	out = mustRunCLI(t, "config", "show")
	assert.Contains(t, out, "API Key: ***1234")
	assert.Contains(t, out, "Source: config file")
	assert.NotContains(t, out, "sk-test-abcd1234")

	out = mustRunCLI(t, "--api-key", "override-9999", "config", "show")
	assert.Contains(t, out, "API Key: ***9999")
	assert.Contains(t, out, "Source: --api-key flag")

	out = mustRunCLI(t, "config", "remove")
	assert.Contains(t, out, "API key removed from config file")

	out = mustRunCLI(t, "config", "show")
	assert.Contains(t, out, "API Key: Not set")
}

func TestSetupCommand_NotSaved(t *testing.T) {
	f := newFakeKits(t)
	configFile := setupEnv(t, f.URL)

	usePrompter(t, &stubPrompter{
		inputs:   []string{"sk-temp"},
		confirms: []bool{false},
	})

	out := mustRunCLI(t, "setup")
	assert.Contains(t, out, "API key not saved.")
	assert.NoFileExists(t, configFile)
}

func TestInteractiveCommand(t *testing.T) {
	t.Run("APIキー未設定でセットアップを断る", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		usePrompter(t, &stubPrompter{confirms: []bool{false}})

		out := mustRunCLI(t, "interactive")
		assert.Contains(t, out, "No API key found.")
		assert.Contains(t, out, `Please run "kits-cli setup"`)
		assert.Empty(t, f.recorded())
	})

	t.Run("ステータス確認のエラーを表示して続行", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)
		t.Setenv("KITS_API_KEY", "sk-env")

		f.json(http.MethodGet, "/voice-models",
			`{"data":[{"id":1,"title":"Solo"}],"meta":{"currentPage":1,"lastPage":1,"total":1,"perPage":20}}`)

		menu := interactiveMenu()
		statusIdx, modelsIdx := -1, -1
		for i, item := range menu {
			switch item.label {
			case "Check Job Status - Monitor your processing jobs":
				statusIdx = i
			case "Voice Models - Browse available voice models":
				modelsIdx = i
			}
		}
		require.NotEqual(t, -1, statusIdx)
		require.NotEqual(t, -1, modelsIdx)

		usePrompter(t, &stubPrompter{
			selects:  []int{statusIdx, modelsIdx, 0, len(menu) - 1},
			inputs:   []string{"missing"},
			confirms: []bool{true, true},
		})

		out := mustRunCLI(t, "interactive")
		assert.Contains(t, out, "Error:")
		assert.Contains(t, out, "Solo")
		assert.Contains(t, out, "Thanks for using Kits AI CLI!")
	})

	t.Run("プロンプトの中断は正常終了", func(t *testing.T) {
		f := newFakeKits(t)
		setupEnv(t, f.URL)

		usePrompter(t, &stubPrompter{})

		_, err := runCLI(t, "--api-key", "k", "interactive")
		assert.NoError(t, err)
	})
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, apierror.ServerError(403, "Forbidden"))

	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "Authentication tips:")
	assert.Contains(t, buf.String(), `kits-cli config show`)
}
