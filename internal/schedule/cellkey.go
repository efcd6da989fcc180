package schedule

import (
	"regexp"
	"strconv"
)

var cellKeyPattern = regexp.MustCompile(`^(Mon|Tue|Wed|Thu|Fri):(\d{2}):(job|helper|pto|helperPto)$`)

// Days 是排班表中的工作日，顺序即相对周一的偏移
var Days = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

var fieldNames = map[string]string{
	"job":       "Job",
	"helper":    "Helper",
	"pto":       "Lead PTO",
	"helperPto": "Helper PTO",
}

// CellKey 是 "<Day>:<RowIndex>:<FieldKind>" 解析后的结果
type CellKey struct {
	Day       string
	Row       int
	RowPadded string
	Field     string
}

// ParseCellKey 解析单元格键，不符合格式的键返回 false
func ParseCellKey(key string) (CellKey, bool) {
	m := cellKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return CellKey{}, false
	}
	row, _ := strconv.Atoi(m[2])
	return CellKey{Day: m[1], Row: row, RowPadded: m[2], Field: m[3]}, true
}

func IsCellKey(key string) bool {
	return cellKeyPattern.MatchString(key)
}

// FieldName 返回字段的展示名
func (k CellKey) FieldName() string {
	return fieldNames[k.Field]
}

func (k CellKey) IsPTO() bool {
	return k.Field == "pto" || k.Field == "helperPto"
}
