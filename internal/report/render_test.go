package report

import (
	"testing"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedSentAt = time.Date(2025, time.September, 2, 15, 4, 0, 0, time.UTC)

func newTestRenderer(t *testing.T, appURL string) *Renderer {
	t.Helper()
	r, err := NewRenderer(Options{AppURL: appURL})
	require.NoError(t, err)
	return r
}

func TestRenderJobAndPTOChanges(t *testing.T) {
	previous := domain.Snapshot{"Mon:01:job": domain.String("Install")}
	current := domain.Snapshot{"Mon:01:job": domain.String("Repair"), "Mon:01:pto": domain.Bool(true)}
	rows := schedule.LabelAll(schedule.Diff(previous, current, 0), nil)

	rep, err := newTestRenderer(t, "").Render(Input{
		WeekKey: "2025-W36",
		Actor:   "dana",
		Rows:    rows,
		SentAt:  fixedSentAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "HVAC schedule update — 2025-W36 (2 changes)", rep.Subject)
	assert.Contains(t, rep.Text, "Schedule updated by dana for 2025-W36.\n")
	assert.Contains(t, rep.Text, "Week of Mon 9/1 – Fri 9/5.\n")
	assert.Contains(t, rep.Text, "- Mon 1 — Job: Install → Repair\n")
	assert.Contains(t, rep.Text, "- Mon 1 — Lead PTO: — → ✓ PTO\n")
	assert.NotContains(t, rep.Text, NoChangesText)

	assert.Contains(t, rep.HTML, "<th style=\"text-align:left; padding:8px 10px; border:1px solid #ddd; background:#fafafa;\">Field</th>")
	assert.Contains(t, rep.HTML, ">Mon 1 — Lead PTO</td>")
	assert.Contains(t, rep.HTML, ">✓ PTO</td>")
	assert.NotContains(t, rep.HTML, ">true</td>")
}

func TestRenderNoChanges(t *testing.T) {
	rows := schedule.LabelAll(schedule.Diff(domain.Snapshot{}, domain.Snapshot{}, 0), nil)
	rep, err := newTestRenderer(t, "").Render(Input{WeekKey: "custom-week", Actor: "dana", Rows: rows, SentAt: fixedSentAt})
	require.NoError(t, err)

	assert.Equal(t, "HVAC schedule update — custom-week (0 changes)", rep.Subject)
	assert.Contains(t, rep.Text, "\n"+NoChangesText+"\n")
	assert.NotContains(t, rep.Text, "Week of")
	assert.Contains(t, rep.HTML, NoChangesText)
}

func TestRenderEscapesUserInput(t *testing.T) {
	note := `<script>alert("x")</script> & 'more'`
	rep, err := newTestRenderer(t, "").Render(Input{
		WeekKey: "2025-W36",
		Actor:   "<b>mallory</b>",
		Note:    note,
		Rows:    []schedule.Row{{Field: "Mon 1 — <i>Crew</i> — Job", From: "a&b", To: `"quoted"`}},
		SentAt:  fixedSentAt,
	})
	require.NoError(t, err)

	assert.NotContains(t, rep.HTML, "<script>")
	assert.NotContains(t, rep.HTML, "<b>mallory</b>")
	assert.NotContains(t, rep.HTML, "<i>Crew</i>")
	assert.Contains(t, rep.HTML, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; &#39;more&#39;")
	assert.Contains(t, rep.HTML, "a&amp;b")
	assert.Contains(t, rep.HTML, "&#34;quoted&#34;")

	// 纯文本原样保留
	assert.Contains(t, rep.Text, "Note:\n"+note+"\n")
	assert.Contains(t, rep.Text, "Schedule updated by <b>mallory</b> for 2025-W36.")
}

func TestRenderMetaNoteAndOmitted(t *testing.T) {
	rep, err := newTestRenderer(t, "https://schedule.example.com").Render(Input{
		WeekKey:  "2025-W36",
		Actor:    "dana",
		Rows:     []schedule.Row{{Field: "Mon 1 — Job", From: "—", To: "Install"}},
		Omitted:  4,
		MetaNote: BaselineInitialized,
		SentAt:   fixedSentAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "HVAC schedule update — 2025-W36 (5 changes)", rep.Subject)
	assert.Contains(t, rep.Text, BaselineInitialized)
	assert.Contains(t, rep.HTML, "Baseline initialized")
	assert.Contains(t, rep.Text, "…and 4 more changes not shown.")
	assert.Contains(t, rep.HTML, "…and 4 more changes not shown.")
	assert.Contains(t, rep.Text, "Open the schedule: https://schedule.example.com\n")
	assert.Contains(t, rep.HTML, `href="https://schedule.example.com"`)
}

func TestRenderIsDeterministic(t *testing.T) {
	r := newTestRenderer(t, "")
	in := Input{
		WeekKey: "2025-W36",
		Actor:   "dana",
		Note:    "swap crews",
		Rows:    []schedule.Row{{Field: "Tue 2 — Helper", From: "Lee", To: "Kim"}},
		SentAt:  fixedSentAt,
	}

	first, err := r.Render(in)
	require.NoError(t, err)
	second, err := r.Render(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first.Text, "Time: Tue Sep 2, 2025 3:04 PM UTC\n")
}

func TestRenderSingularSubject(t *testing.T) {
	rep, err := newTestRenderer(t, "").Render(Input{
		WeekKey: "2025-W36",
		Actor:   "dana",
		Rows:    []schedule.Row{{Field: "Mon 1 — Job", From: "—", To: "Install"}},
		SentAt:  fixedSentAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "HVAC schedule update — 2025-W36 (1 change)", rep.Subject)
}
