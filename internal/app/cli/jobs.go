package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/jinford/kits-cli/internal/core/job"
)

const timeLayout = "2006-01-02 15:04:05"

// JobsListAction は種別ごとの最近のジョブを表示するコマンドのアクション
func JobsListAction(ctx context.Context, cmd *cli.Command) error {
	kind, err := job.ParseKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runJobsList(ctx, appCtx, kind, int(cmd.Int("page")), int(cmd.Int("limit")))
}

func runJobsList(ctx context.Context, ac *AppContext, kind job.Kind, page, limit int) error {
	result, err := ac.Jobs.List(ctx, kind, page, limit)
	if err != nil {
		return err
	}

	if len(result.Jobs) == 0 {
		warnColor.Fprintf(ac.Out, "No %s jobs found\n", kind)
		return nil
	}

	table := tablewriter.NewWriter(ac.Out)
	table.Header("Job ID", "Status", "Progress", "Created At", "Outputs")

	for _, j := range result.Jobs {
		progress := "-"
		if p, ok := j.Progress.Get(); ok {
			progress = strconv.Itoa(p) + "%"
		}
		created := "-"
		if !j.CreatedAt.IsZero() {
			created = j.CreatedAt.Local().Format(timeLayout)
		}
		table.Append(
			j.ID,
			string(j.Status),
			progress,
			created,
			outputSummary(j.Output),
		)
	}
	table.Render()

	if result.Meta.HasNext() {
		detailColor.Fprintf(ac.Out, "Next page: kits-cli jobs list --kind %s --page %d\n", kind, result.Meta.CurrentPage+1)
	}
	return nil
}

func outputSummary(o job.Output) string {
	switch {
	case o.URL != "":
		return "1 file"
	case len(o.Parts) > 0:
		return strings.Join(o.PartNames(), ", ")
	}
	return "-"
}

// StatusAction はジョブの状態を表示するコマンドのアクション
func StatusAction(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "job id")
	if err != nil {
		return err
	}

	kind := mo.None[job.Kind]()
	if raw := cmd.String("kind"); raw != "" {
		k, err := job.ParseKind(raw)
		if err != nil {
			return err
		}
		kind = mo.Some(k)
	}

	appCtx, err := NewConnectedAppContext(ctx, cmd)
	if err != nil {
		return err
	}
	return runStatus(ctx, appCtx, id, kind)
}

func runStatus(ctx context.Context, ac *AppContext, id string, kind mo.Option[job.Kind]) error {
	j, err := ac.Jobs.Status(ctx, id, kind)
	if err != nil {
		return err
	}

	details := []detail{
		{label: "Type", value: j.Kind.String()},
		{label: "Status", value: statusText(j.Status)},
	}
	if p, ok := j.Progress.Get(); ok {
		details = append(details, detail{label: "Progress", value: fmt.Sprintf("%d%%", p)})
	}
	if !j.CreatedAt.IsZero() {
		details = append(details, detail{label: "Created", value: j.CreatedAt.Local().Format(timeLayout)})
	}
	if !j.UpdatedAt.IsZero() {
		details = append(details, detail{label: "Updated", value: j.UpdatedAt.Local().Format(timeLayout)})
	}
	if j.Error != "" {
		details = append(details, detail{label: "Error", value: errorColor.Sprint(j.Error)})
	}
	if j.Output.URL != "" {
		details = append(details, detail{label: "Output URL", value: j.Output.URL})
	}
	for _, name := range j.Output.PartNames() {
		details = append(details, detail{label: "Output " + name, value: j.Output.Parts[name]})
	}

	printDetails(ac.Out, "Job ID: "+j.ID, details)

	if !j.Status.IsTerminal() {
		warnColor.Fprintln(ac.Out, "Job is still processing...")
		fmt.Fprintf(ac.Out, "Check again in a few moments: kits-cli status %s --kind %s\n", j.ID, j.Kind)
	}
	return nil
}
