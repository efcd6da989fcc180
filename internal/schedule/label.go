package schedule

import (
	"fmt"
	"strings"

	"github.com/hvac-crew/schedule/backend/internal/domain"
)

const (
	PTOMark     = "✓ PTO"
	EmptyMark   = "—"
	labelJoiner = " — "
)

// Row 是报告中的一行：字段标签及变更前后的展示值
type Row struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Label 把一个变更转成可读的报告行。
// 可解析的键标签格式为 "<Day> <Row>[ — <Crew>] — <Field>"，例如 "Mon 1 — Acme Crew — Job"；
// 无法解析的键原样作为标签。
func Label(change Change, crews CrewMap) Row {
	ck, ok := ParseCellKey(change.Key)
	if !ok {
		return Row{Field: change.Key, From: display(change.From), To: display(change.To)}
	}

	parts := []string{fmt.Sprintf("%s %d", ck.Day, ck.Row)}
	if name := crews.Name(ck.RowPadded); name != "" {
		parts = append(parts, name)
	}
	parts = append(parts, ck.FieldName())
	field := strings.Join(parts, labelJoiner)

	if ck.IsPTO() {
		return Row{Field: field, From: ptoDisplay(change.From), To: ptoDisplay(change.To)}
	}
	return Row{Field: field, From: display(change.From), To: display(change.To)}
}

// LabelAll 对变更集合中的每一项调用 Label，保持原有顺序
func LabelAll(cs ChangeSet, crews CrewMap) []Row {
	rows := make([]Row, 0, len(cs.Changes))
	for _, c := range cs.Changes {
		rows = append(rows, Label(c, crews))
	}
	return rows
}

func display(v domain.Value) string {
	if v.IsEmpty() {
		return EmptyMark
	}
	return v.Text()
}

func ptoDisplay(v domain.Value) string {
	if v.Truthy() {
		return PTOMark
	}
	return EmptyMark
}
