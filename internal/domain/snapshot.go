package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind 表示单元格取值的类型
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindBool
	KindJSON
)

// Value 是单元格的取值，只可能是 null、字符串、布尔或结构化 JSON 之一
type Value struct {
	kind ValueKind
	str  string
	b    bool
	raw  string // KindJSON 时为规范化后的 JSON 文本
}

func Null() Value { return Value{kind: KindNull} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func (v Value) Kind() ValueKind { return v.kind }

// JSON 以规范化形式保存结构化取值，使结构相同的对象序列化结果一致
func JSON(raw []byte) (Value, error) {
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return Value{}, err
	}
	// 不转义 < > &，否则报告中会出现 \u003c 之类的文本
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(decoded); err != nil {
		return Value{}, err
	}
	return Value{kind: KindJSON, raw: strings.TrimSuffix(buf.String(), "\n")}, nil
}

// Text 返回取值的字符串形式，null 为空串
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindJSON:
		return v.raw
	default:
		return ""
	}
}

// Truthy 用于 PTO 类字段：只有 true 或字符串 "true" 视为真
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return strings.EqualFold(strings.TrimSpace(v.str), "true")
	default:
		return false
	}
}

// IsEmpty 判断取值是否等价于缺失
func (v Value) IsEmpty() bool {
	return v.kind == KindNull || (v.kind == KindString && v.str == "")
}

// Equal 按非 PTO 字段的规则比较：null 与空串等价，布尔只与布尔相等，结构化取值比较规范化文本
func (v Value) Equal(other Value) bool {
	if v.IsEmpty() && other.IsEmpty() {
		return true
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindJSON:
		return v.raw == other.raw
	default:
		return v.str == other.str
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	case KindJSON:
		return []byte(v.raw), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*v = Null()
	case bytes.Equal(trimmed, []byte("true")):
		*v = Bool(true)
	case bytes.Equal(trimmed, []byte("false")):
		*v = Bool(false)
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case trimmed[0] == '{' || trimmed[0] == '[':
		parsed, err := JSON(trimmed)
		if err != nil {
			return err
		}
		*v = parsed
	default:
		// 数字统一按字符串处理
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*v = String(n.String())
	}
	return nil
}

// Snapshot 是某一时刻一周排班（或设置）的完整状态，捕获后不再修改
type Snapshot map[string]Value

// Clone 返回快照的浅拷贝（Value 本身不可变）
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
