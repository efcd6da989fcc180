package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/schedule"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultTitle         = "HVAC Schedule"
	defaultSubjectPrefix = "HVAC schedule update"
	sentAtLayout         = "Mon Jan 2, 2006 3:04 PM MST"

	NoChangesText       = "No changes detected."
	BaselineInitialized = "Baseline initialized: this is the first update sent for this week, so no changes are listed. Future updates will list changes made after this message."
)

// Input 是渲染一次通知所需的全部数据，SentAt 由调用方传入以保证渲染结果可重现
type Input struct {
	WeekKey  string
	Actor    string
	Note     string
	Rows     []schedule.Row
	Omitted  int
	MetaNote string
	SentAt   time.Time
}

type Report struct {
	Subject string
	Text    string
	HTML    string
}

type Options struct {
	Title         string
	SubjectPrefix string
	AppURL        string
	Location      *time.Location
}

type Renderer struct {
	tmpl          *template.Template
	title         string
	subjectPrefix string
	appURL        string
	location      *time.Location
}

func NewRenderer(opts Options) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/update_email.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		tmpl:          tmpl,
		title:         opts.Title,
		subjectPrefix: opts.SubjectPrefix,
		appURL:        opts.AppURL,
		location:      opts.Location,
	}
	if r.title == "" {
		r.title = defaultTitle
	}
	if r.subjectPrefix == "" {
		r.subjectPrefix = defaultSubjectPrefix
	}
	if r.location == nil {
		r.location = time.UTC
	}
	return r, nil
}

// Render 生成邮件主题、纯文本与 HTML 正文，相同输入得到逐字节相同的输出
func (r *Renderer) Render(in Input) (Report, error) {
	total := len(in.Rows) + in.Omitted
	weekRange := schedule.WeekRange(in.WeekKey)
	sentAt := in.SentAt.In(r.location).Format(sentAtLayout)

	var html bytes.Buffer
	data := struct {
		Input
		Title       string
		WeekRange   string
		SentAt      string
		AppURL      string
		OmittedText string
	}{
		Input:       in,
		Title:       r.title,
		WeekRange:   weekRange,
		SentAt:      sentAt,
		AppURL:      r.appURL,
		OmittedText: omittedText(in.Omitted),
	}
	if err := r.tmpl.ExecuteTemplate(&html, "update_email.html", data); err != nil {
		return Report{}, err
	}

	return Report{
		Subject: fmt.Sprintf("%s — %s (%d %s)", r.subjectPrefix, in.WeekKey, total, plural(total, "change", "changes")),
		Text:    r.renderText(in, weekRange, sentAt),
		HTML:    html.String(),
	}, nil
}

func (r *Renderer) renderText(in Input, weekRange, sentAt string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Schedule updated by %s for %s.\n", in.Actor, in.WeekKey))
	if weekRange != "" {
		sb.WriteString(fmt.Sprintf("Week of %s.\n", weekRange))
	}
	sb.WriteString(fmt.Sprintf("Time: %s\n", sentAt))
	if in.MetaNote != "" {
		sb.WriteString("\n" + in.MetaNote + "\n")
	}
	if in.Note != "" {
		sb.WriteString("\nNote:\n" + in.Note + "\n")
	}

	sb.WriteString("\n")
	if len(in.Rows) == 0 {
		sb.WriteString(NoChangesText + "\n")
	} else {
		sb.WriteString("Changes:\n")
		for _, row := range in.Rows {
			sb.WriteString(fmt.Sprintf("- %s: %s → %s\n", row.Field, row.From, row.To))
		}
		if in.Omitted > 0 {
			sb.WriteString(omittedText(in.Omitted) + "\n")
		}
	}

	if r.appURL != "" {
		sb.WriteString(fmt.Sprintf("\nOpen the schedule: %s\n", r.appURL))
	}
	return sb.String()
}

func omittedText(n int) string {
	return fmt.Sprintf("…and %d more %s not shown.", n, plural(n, "change", "changes"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
