package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hvac-crew/schedule/backend/internal/domain"
)

// CrewMap 把两位行号映射为班组显示名，nil 也可以安全使用
type CrewMap map[string]string

func (m CrewMap) Name(rowPadded string) string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[rowPadded])
}

// CrewMapFromSettings 从设置快照中的 "Lead:<RR>" 与 "Apprentice:<RR>" 推导班组名，
// 同一行两者都存在时显示为 "Lead / Apprentice"
func CrewMapFromSettings(settings domain.Snapshot) CrewMap {
	leads := map[string]string{}
	apprentices := map[string]string{}

	for key, value := range settings {
		role, row, ok := strings.Cut(key, ":")
		if !ok {
			continue
		}
		padded, ok := padRow(row)
		if !ok {
			continue
		}
		name := strings.TrimSpace(value.Text())
		if name == "" || value.Kind() != domain.KindString {
			continue
		}
		switch role {
		case "Lead":
			leads[padded] = name
		case "Apprentice":
			apprentices[padded] = name
		}
	}

	crews := CrewMap{}
	for row, lead := range leads {
		crews[row] = lead
	}
	for row, apprentice := range apprentices {
		if lead, ok := crews[row]; ok {
			crews[row] = lead + " / " + apprentice
		} else {
			crews[row] = apprentice
		}
	}
	return crews
}

// Merge 返回合并后的新映射，overrides 中的非空名称优先
func (m CrewMap) Merge(overrides map[string]string) CrewMap {
	out := CrewMap{}
	for k, v := range m {
		out[k] = v
	}
	for row, name := range overrides {
		padded, ok := padRow(row)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		out[padded] = strings.TrimSpace(name)
	}
	return out
}

func padRow(row string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(row))
	if err != nil || n < 0 || n > 99 {
		return "", false
	}
	return fmt.Sprintf("%02d", n), true
}
