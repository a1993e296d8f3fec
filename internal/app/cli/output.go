package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/job"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	detailColor  = color.New(color.FgHiBlack)
)

// nowFunc は既定の出力ファイル名に使う現在時刻（テストで差し替える）
var nowFunc = time.Now

// statusText はジョブ状態を色付きで返す
func statusText(s job.Status) string {
	switch s {
	case job.StatusCompleted:
		return color.GreenString(string(s))
	case job.StatusFailed:
		return color.RedString(string(s))
	case job.StatusProcessing:
		return color.YellowString(string(s))
	case job.StatusQueued:
		return color.BlueString(string(s))
	}
	return string(s)
}

// progressPrinter はポーリング中の状態変化だけを出力する
type progressPrinter struct {
	w    io.Writer
	last string
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) report(j *job.Job) {
	line := fmt.Sprintf("Job %s: %s", j.ID, j.Status)
	if progress, ok := j.Progress.Get(); ok {
		line += fmt.Sprintf(" (%d%%)", progress)
	}
	if line == p.last {
		return
	}
	p.last = line
	detailColor.Fprintln(p.w, line)
}

// defaultOutputFile は prefix_<unix-ms>.wav を返す
func defaultOutputFile(prefix string) string {
	return fmt.Sprintf("%s_%d.wav", prefix, nowFunc().UnixMilli())
}

// defaultOutputDir は prefix_<unix-ms> を返す
func defaultOutputDir(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, nowFunc().UnixMilli())
}

// fileSize はファイルサイズを人間が読める形式で返す
func fileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.IBytes(uint64(info.Size()))
}

type detail struct {
	label string
	value string
}

// printDetails はラベル付きの詳細を出力する
func printDetails(w io.Writer, title string, details []detail) {
	fmt.Fprintln(w)
	headerColor.Fprintln(w, title)
	for _, d := range details {
		if d.value == "" {
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", d.label, d.value)
	}
	fmt.Fprintln(w)
}

// printResult はジョブ実行結果を出力する
func printResult(w io.Writer, title string, result *job.Result, extra []detail) {
	details := []detail{
		{label: "Job ID", value: result.Job.ID},
		{label: "Status", value: statusText(result.Job.Status)},
	}
	details = append(details, extra...)
	for _, f := range result.Files {
		details = append(details, detail{label: "Output", value: fmt.Sprintf("%s (%s)", f, fileSize(f))})
	}

	successColor.Fprintln(w, title)
	printDetails(w, "Job Details:", details)
}

// handleRunError は Service.Run のエラーのうち、成果物なしの完了を警告として扱う
func handleRunError(w io.Writer, result *job.Result, err error) error {
	if errors.Is(err, job.ErrNoOutput) && result != nil {
		warnColor.Fprintf(w, "Job %s completed but no output URL provided\n", result.Job.ID)
		return nil
	}
	return err
}

// PrintError はエラーと対処のヒントを出力する
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	errorColor.Fprintf(w, "Error: %v\n", err)

	tips := errorTips(err)
	if len(tips) == 0 {
		return
	}
	fmt.Fprintln(w)
	warnColor.Fprintln(w, tips[0])
	for _, tip := range tips[1:] {
		fmt.Fprintf(w, "  • %s\n", tip)
	}
}

func errorTips(err error) []string {
	switch apierror.KindOf(err) {
	case apierror.KindTimeout, apierror.KindPollTimeout:
		return []string{
			"Tips to resolve timeout issues:",
			"Check your internet connection",
			"Try with a smaller audio file",
			"Wait a few minutes and try again",
			"The server might be experiencing high load",
		}
	case apierror.KindPayloadTooLarge:
		return []string{
			"File size tips:",
			"Maximum file size is 100MB",
			"Try compressing your audio file",
			"Use a shorter audio clip",
		}
	case apierror.KindConnectionRefused, apierror.KindHostUnresolved, apierror.KindNoResponse:
		return []string{
			"Network tips:",
			"Check your internet connection and try again",
		}
	case apierror.KindServerError:
		if apierror.IsStatus(err, 401) || apierror.IsStatus(err, 403) {
			return []string{
				"Authentication tips:",
				"Check your API key with \"kits-cli config show\"",
				"Run \"kits-cli setup\" to store a new key",
			}
		}
	case apierror.KindInvalidRequest:
		if strings.Contains(err.Error(), "API key not configured") {
			return []string{
				"Setup tips:",
				"Run \"kits-cli setup\" or set the KITS_API_KEY environment variable",
			}
		}
	}
	return nil
}
