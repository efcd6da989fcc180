package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var isoWeekPattern = regexp.MustCompile(`^(\d{4})-W(\d{2})$`)

// ParseISOWeek 把 "2025-W36" 转换为该 ISO 周的周一（UTC 零点）
func ParseISOWeek(weekKey string) (time.Time, bool) {
	m := isoWeekPattern.FindStringSubmatch(weekKey)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	week, _ := strconv.Atoi(m[2])
	if week < 1 || week > 53 {
		return time.Time{}, false
	}

	// 1 月 4 日总在第一周内，先回退到那一周的周一
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, -(weekday-1)+(week-1)*7)

	// 第 53 周只在部分年份存在
	if _, w := monday.ISOWeek(); w != week {
		return time.Time{}, false
	}
	return monday, true
}

// WeekRange 返回 "Mon 9/1 – Fri 9/5" 形式的日期范围，周标识无法解析时返回空串
func WeekRange(weekKey string) string {
	monday, ok := ParseISOWeek(weekKey)
	if !ok {
		return ""
	}
	friday := monday.AddDate(0, 0, len(Days)-1)
	return fmt.Sprintf("Mon %s – Fri %s", monthDay(monday), monthDay(friday))
}

func monthDay(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Day())
}
