package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/apierror"
	"github.com/jinford/kits-cli/internal/core/voicemodel"
)

const (
	minBlendModels = 2
	maxBlendModels = 4
)

// ModelsListAction はボイスモデル一覧を表示するコマンドのアクション
func ModelsListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runModelsList(ctx, appCtx, int(cmd.Int("page")), int(cmd.Int("limit")))
}

func runModelsList(ctx context.Context, ac *AppContext, page, limit int) error {
	result, err := ac.Models.List(ctx, page, limit)
	if err != nil {
		return err
	}

	if len(result.Models) == 0 {
		warnColor.Fprintln(ac.Out, "No voice models found")
		return nil
	}

	headerColor.Fprintf(ac.Out, "Found %d voice models\n\n", len(result.Models))
	renderModelTable(ac.Out, result.Models)

	meta := result.Meta
	if meta.LastPage > 0 {
		fmt.Fprintf(ac.Out, "\nPage %d of %d (total %d, %d per page)\n",
			meta.CurrentPage, meta.LastPage, meta.Total, meta.PerPage)
	}
	if result.HasNext() {
		detailColor.Fprintf(ac.Out, "Next page: kits-cli models list --page %d\n", meta.CurrentPage+1)
	}
	return nil
}

func renderModelTable(w io.Writer, models []*voicemodel.Model) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Type", "Tags", "Available")

	for _, m := range models {
		available := "-"
		if usable, ok := m.Usable.Get(); ok {
			available = yesNo(usable)
		}
		table.Append(
			m.ID,
			m.DisplayName(),
			m.Type,
			strings.Join(m.Tags, ", "),
			available,
		)
	}

	table.Render()
}

// ModelsGetAction はボイスモデルの詳細を表示するコマンドのアクション
func ModelsGetAction(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "model id")
	if err != nil {
		return err
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runModelsGet(ctx, appCtx, id)
}

func runModelsGet(ctx context.Context, ac *AppContext, id string) error {
	m, err := ac.Models.Get(ctx, id)
	if err != nil {
		return err
	}

	details := []detail{
		{label: "ID", value: m.ID},
		{label: "Description", value: m.Description},
		{label: "Type", value: m.Type},
		{label: "Tags", value: strings.Join(m.Tags, ", ")},
		{label: "Language", value: m.Language},
		{label: "Gender", value: m.Gender},
		{label: "Age", value: m.Age},
		{label: "Accent", value: m.Accent},
		{label: "Style", value: m.Style},
		{label: "Demo", value: m.DemoURL},
		{label: "Image", value: m.ImageURL},
	}
	if usable, ok := m.Usable.Get(); ok {
		details = append(details, detail{label: "Available", value: yesNo(usable)})
	}
	if !m.CreatedAt.IsZero() {
		details = append(details, detail{label: "Created", value: m.CreatedAt.Local().Format("2006-01-02")})
	}
	if !m.UpdatedAt.IsZero() {
		details = append(details, detail{label: "Updated", value: m.UpdatedAt.Local().Format("2006-01-02")})
	}

	printDetails(ac.Out, "Name: "+m.DisplayName(), details)
	return nil
}

// pickModel はモデル一覧から1つ選ばせる
func pickModel(ctx context.Context, ac *AppContext, label string, limit int) (string, error) {
	models, err := fetchModelChoices(ctx, ac, limit)
	if err != nil {
		return "", err
	}

	idx, err := ac.Prompter.Select(label, modelLabels(models))
	if err != nil {
		return "", err
	}
	return models[idx].ID, nil
}

// promptBlend はブレンドするモデル（2〜4個）と重みを対話的に選ばせる
func promptBlend(ctx context.Context, ac *AppContext) ([]string, []float64, error) {
	models, err := fetchModelChoices(ctx, ac, 20)
	if err != nil {
		return nil, nil, err
	}
	if len(models) < minBlendModels {
		return nil, nil, apierror.InvalidRequest("at least %d voice models are required for blending", minBlendModels)
	}

	const done = "Done"
	remaining := models
	var selected []*voicemodel.Model

	for len(selected) < maxBlendModels && len(remaining) > 0 {
		items := modelLabels(remaining)
		if len(selected) >= minBlendModels {
			items = append(items, done)
		}

		label := fmt.Sprintf("Choose voice model %d (select %d-%d)", len(selected)+1, minBlendModels, maxBlendModels)
		idx, err := ac.Prompter.Select(label, items)
		if err != nil {
			return nil, nil, err
		}
		if idx >= len(remaining) {
			break
		}

		selected = append(selected, remaining[idx])
		remaining = append(remaining[:idx:idx], remaining[idx+1:]...)
	}

	ids := make([]string, len(selected))
	weights := make([]float64, len(selected))
	def := strconv.FormatFloat(1/float64(len(selected)), 'f', 2, 64)

	for i, m := range selected {
		ids[i] = m.ID
		answer, err := ac.Prompter.Input(fmt.Sprintf("Weight for model %s (0-1)", m.ID), def, false, validateWeight)
		if err != nil {
			return nil, nil, err
		}
		weights[i], _ = strconv.ParseFloat(answer, 64)
	}
	return ids, weights, nil
}

func validateWeight(input string) error {
	w, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || w < 0 || w > 1 {
		return fmt.Errorf("weight must be a number between 0 and 1")
	}
	return nil
}

func fetchModelChoices(ctx context.Context, ac *AppContext, limit int) ([]*voicemodel.Model, error) {
	fmt.Fprintln(ac.Out, "Fetching available voice models...")
	page, err := ac.Models.List(ctx, 1, limit)
	if err != nil {
		return nil, err
	}
	if len(page.Models) == 0 {
		return nil, apierror.InvalidRequest("no voice models available")
	}
	return page.Models, nil
}

func modelLabels(models []*voicemodel.Model) []string {
	labels := make([]string, len(models))
	for i, m := range models {
		labels[i] = fmt.Sprintf("%s (ID: %s)", m.DisplayName(), m.ID)
	}
	return labels
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
