package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
)

// CSV 的表头，每行是某一天某一行的四个字段
var weekHeader = []string{"day", "row", "job", "helper", "pto", "helperPto"}

type Saver interface {
	SaveBlob(ctx context.Context, blob *domain.Blob) error
}

// ParseWeekCSV 读取导出的排班表：day,row,job,helper,pto,helperPto
func ParseWeekCSV(r io.Reader) (domain.Snapshot, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(weekHeader) {
		return nil, fmt.Errorf("expected header %s", strings.Join(weekHeader, ","))
	}
	for i, name := range weekHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("expected header %s", strings.Join(weekHeader, ","))
		}
	}

	week := domain.Snapshot{}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil || row < 0 || row > 99 {
			return nil, fmt.Errorf("line %d: invalid row %q", line, record[1])
		}
		prefix := fmt.Sprintf("%s:%02d:", strings.TrimSpace(record[0]), row)
		if !schedule.IsCellKey(prefix + "job") {
			return nil, fmt.Errorf("line %d: invalid day %q", line, record[0])
		}

		if job := strings.TrimSpace(record[2]); job != "" {
			week[prefix+"job"] = domain.String(job)
		}
		if helper := strings.TrimSpace(record[3]); helper != "" {
			week[prefix+"helper"] = domain.String(helper)
		}
		if parseFlag(record[4]) {
			week[prefix+"pto"] = domain.Bool(true)
		}
		if parseFlag(record[5]) {
			week[prefix+"helperPto"] = domain.Bool(true)
		}
	}
	return week, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "x", "1", "✓":
		return true
	default:
		return false
	}
}

func SeedWeek(ctx context.Context, store Saver, weekKey string, week domain.Snapshot) error {
	return store.SaveBlob(ctx, &domain.Blob{
		Namespace: domain.NamespaceWeeks,
		Key:       weekKey,
		Data:      week,
		Metadata:  map[string]string{"savedBy": "seed"},
	})
}

func SeedRoster(ctx context.Context, store Saver, roster domain.Snapshot) error {
	return store.SaveBlob(ctx, &domain.Blob{
		Namespace: domain.NamespacePersistent,
		Key:       domain.PersistentSettingsKey,
		Data:      roster,
		Metadata:  map[string]string{"savedBy": "seed"},
	})
}
