package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/report"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
	"github.com/spf13/cobra"
)

var (
	diffBefore   string
	diffAfter    string
	diffSettings string
	diffWeek     string
	diffActor    string
	diffMax      int
	diffHTML     bool
)

// diffCmd 离线渲染两个快照之间的变更报告，不读写存储也不发送邮件
var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Render the change report between two snapshot files",
	Long: `Render the change report between two week snapshots stored as JSON.

Each file may hold a bare snapshot object or an envelope with a "data"
field, as returned by GET /weeks/{weekKey}.`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffBefore, "before", "", "Snapshot file used as baseline (required)")
	diffCmd.Flags().StringVar(&diffAfter, "after", "", "Current snapshot file (required)")
	diffCmd.Flags().StringVar(&diffSettings, "settings", "", "Settings snapshot file with Lead:/Apprentice: crew names")
	diffCmd.Flags().StringVar(&diffWeek, "week", "week", "Week key shown in the report")
	diffCmd.Flags().StringVar(&diffActor, "actor", "schedctl", "Actor shown in the report")
	diffCmd.Flags().IntVar(&diffMax, "max", schedule.DefaultMaxChanges, "Maximum number of listed changes")
	diffCmd.Flags().BoolVar(&diffHTML, "html", false, "Print the HTML body instead of plain text")
	_ = diffCmd.MarkFlagRequired("before")
	_ = diffCmd.MarkFlagRequired("after")
}

func runDiff(cmd *cobra.Command, args []string) error {
	before, err := readSnapshotFile(diffBefore)
	if err != nil {
		return err
	}
	after, err := readSnapshotFile(diffAfter)
	if err != nil {
		return err
	}

	var crews schedule.CrewMap
	if diffSettings != "" {
		settings, err := readSnapshotFile(diffSettings)
		if err != nil {
			return err
		}
		crews = schedule.CrewMapFromSettings(settings)
	}

	renderer, err := report.NewRenderer(report.Options{})
	if err != nil {
		return err
	}

	changes := schedule.Diff(before, after, diffMax)
	rep, err := renderer.Render(report.Input{
		WeekKey: diffWeek,
		Actor:   diffActor,
		Rows:    schedule.LabelAll(changes, crews),
		Omitted: changes.Omitted,
		SentAt:  time.Now(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rep.Subject)
	fmt.Fprintln(out)
	if diffHTML {
		fmt.Fprint(out, rep.HTML)
	} else {
		fmt.Fprint(out, rep.Text)
	}
	return nil
}

func readSnapshotFile(path string) (domain.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(raw)
}

// decodeSnapshot 接受裸快照或 {"data": {...}} 形式的包装
func decodeSnapshot(raw []byte) (domain.Snapshot, error) {
	var envelope struct {
		Data domain.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	snap := domain.Snapshot{}
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
