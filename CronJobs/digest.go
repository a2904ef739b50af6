package CronJobs

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"AuditDesk/AbstractFunctions"
	"AuditDesk/Lifecycle"
	"AuditDesk/Models"
	"AuditDesk/Reports"
	"AuditDesk/Slack"
	"AuditDesk/email"
)

// Publisher shows the latest digest somewhere people look, e.g. a pinned
// Slack message.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// DigestJob reports the tasks still in progress, grouped by employee. It
// mails the list with the open rows attached as a workbook when Sender is
// set, and refreshes Board when that is set.
type DigestJob struct {
	Tasks  *Models.TaskRepository
	Sender email.Sender
	To     []string
	Board  Publisher
	Clock  Lifecycle.Clock
	Log    *zap.Logger
}

func (j *DigestJob) Name() string { return "digest" }

func (j *DigestJob) Run(ctx context.Context) error {
	tasks, _, err := j.Tasks.List(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	open := Reports.FilterTasks(tasks, Reports.Filter{ActiveOnly: true})

	if j.Board != nil {
		text := j.Body(open) + "\n" + Slack.UpdatedPrefix + " " + j.Clock.Now().Format("02/Jan/2006 03:04 PM")
		if err := j.Board.Publish(ctx, text); err != nil {
			j.Log.Error("board update failed", zap.Error(err))
		}
	}

	if j.Sender == nil {
		return nil
	}
	if len(open) == 0 {
		j.Log.Info("digest mail skipped, no open tasks")
		return nil
	}
	message, err := j.Compose(open)
	if err != nil {
		return err
	}
	if err := j.Sender.Send(message); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	j.Log.Info("digest sent", zap.Int("open_tasks", len(open)), zap.Strings("to", j.To))
	return nil
}

// Body lists the open tasks per employee with how long each has been open.
func (j *DigestJob) Body(open []Models.Task) string {
	today, clock := AbstractFunctions.Split(j.Clock.Now())

	byEmployee := map[string][]Models.Task{}
	for _, t := range open {
		byEmployee[t.Employee] = append(byEmployee[t.Employee], t)
	}
	employees := make([]string, 0, len(byEmployee))
	for e := range byEmployee {
		employees = append(employees, e)
	}
	slices.Sort(employees)

	var body strings.Builder
	fmt.Fprintf(&body, "Open audit tasks as of %s: %d\n", today, len(open))
	for _, e := range employees {
		fmt.Fprintf(&body, "\n%s (%d)\n", e, len(byEmployee[e]))
		for _, t := range byEmployee[e] {
			fmt.Fprintf(&body, "  - %s %s, journal %s, assigned %s %s, open %s\n",
				t.Branch, t.TaskType, t.JournalDate, t.AssignedDate, t.AssignedTime,
				Lifecycle.ComputeDuration(t.AssignedDate, t.AssignedTime, today, clock))
		}
	}
	return body.String()
}

// Compose renders the digest mail for the given open tasks.
func (j *DigestJob) Compose(open []Models.Task) (Models.EmailMessage, error) {
	now := j.Clock.Now()
	today, _ := AbstractFunctions.Split(now)

	header, rows := Models.EncodeTasks(open)
	f, err := Models.BuildWorkbook([]Models.Sheet{{Name: "Open Tasks", Header: header, Rows: rows}})
	if err != nil {
		return Models.EmailMessage{}, err
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return Models.EmailMessage{}, fmt.Errorf("write digest workbook: %w", err)
	}

	return Models.EmailMessage{
		To:      j.To,
		Subject: fmt.Sprintf("Audit digest %s: %d open tasks", today, len(open)),
		Body:    j.Body(open),
		Attachments: []Models.Attachment{{
			Filename: fmt.Sprintf("open_tasks_%s.xlsx", now.Format("20060102")),
			Data:     buf.Bytes(),
			MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		}},
	}, nil
}
