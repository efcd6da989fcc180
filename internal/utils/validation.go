package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
)

var (
	ErrMissingWeekKey  = errors.New("missing-weekKey")
	ErrMissingWeekData = errors.New("missing-week-data")
	ErrMissingData     = errors.New("missing-data")
)

// 周键一般是 ISO 周（2025-W36），也允许其他不含路径分隔符的短标识
var storeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

func ValidateWeekKey(weekKey string) error {
	if weekKey == "" {
		return ErrMissingWeekKey
	}
	if !storeKeyPattern.MatchString(weekKey) {
		return fmt.Errorf("invalid weekKey %q", weekKey)
	}
	return nil
}

// ExtractWeekData 从保存请求中取出排班数据：优先使用 data 字段，
// 否则收集请求体顶层中所有形如 "Mon:01:job" 的字段
func ExtractWeekData(body map[string]json.RawMessage) (domain.Snapshot, error) {
	if raw, ok := body["data"]; ok {
		data := domain.Snapshot{}
		if err := json.Unmarshal(raw, &data); err == nil && len(data) > 0 {
			return data, nil
		}
	}

	data := domain.Snapshot{}
	for key, raw := range body {
		if !schedule.IsCellKey(key) {
			continue
		}
		var v domain.Value
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("invalid value for %s", key)
		}
		data[key] = v
	}
	if len(data) == 0 {
		return nil, ErrMissingWeekData
	}
	return data, nil
}

// ExtractSettingsData 只接受 data 字段中的非空对象
func ExtractSettingsData(body map[string]json.RawMessage) (domain.Snapshot, error) {
	raw, ok := body["data"]
	if !ok {
		return nil, ErrMissingData
	}
	data := domain.Snapshot{}
	if err := json.Unmarshal(raw, &data); err != nil || len(data) == 0 {
		return nil, ErrMissingData
	}
	return data, nil
}
