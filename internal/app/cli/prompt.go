package cli

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// Prompter は対話入力のインターフェース
type Prompter interface {
	// Input はテキスト入力を受け付ける。mask が true の場合は入力を伏せる。
	Input(label, defaultValue string, mask bool, validate func(string) error) (string, error)
	// Select は選択肢から1つ選ばせ、そのインデックスを返す
	Select(label string, items []string) (int, error)
	// Confirm は y/N の確認を受け付ける
	Confirm(label string, defaultYes bool) (bool, error)
}

// ErrPromptAborted はユーザーが入力を中断した場合のエラー
var ErrPromptAborted = errors.New("prompt aborted")

// terminalPrompter は promptui を使った Prompter
type terminalPrompter struct{}

// NewTerminalPrompter は端末用の Prompter を作成する
func NewTerminalPrompter() Prompter {
	return terminalPrompter{}
}

func (terminalPrompter) Input(label, defaultValue string, mask bool, validate func(string) error) (string, error) {
	prompt := promptui.Prompt{
		Label:   label,
		Default: defaultValue,
	}
	if mask {
		prompt.Mask = '*'
	}
	if validate != nil {
		prompt.Validate = promptui.ValidateFunc(validate)
	}

	value, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(value), nil
}

func (terminalPrompter) Select(label string, items []string) (int, error) {
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return -1, promptError(err)
	}
	return idx, nil
}

func (terminalPrompter) Confirm(label string, defaultYes bool) (bool, error) {
	def := "n"
	if defaultYes {
		def = "y"
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Default:   def,
	}

	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		// IsConfirm で "n" が入力された場合も ErrAbort になる
		return false, nil
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, ErrPromptAborted
	}
	return false, err
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrPromptAborted
	}
	return err
}
