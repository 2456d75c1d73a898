package rules

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// MalformedKey ключ условия, которым помечается нечитаемый набор условий целиком.
const MalformedKey = "_malformed"

type rawCondition struct {
	original string
	cond     models.Condition
}

// ParseConditions разбирает JSON-объект условий правила.
// Результат отсортирован по ключу, синонимы одного ключа схлопываются.
// Пустой объект означает универсальное правило.
func ParseConditions(raw []byte) []models.Condition {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return []models.Condition{{Key: MalformedKey, Kind: models.ConditionInvalid}}
	}

	parsed := make([]rawCondition, 0, len(fields))
	for key, value := range fields {
		parsed = append(parsed, rawCondition{
			original: key,
			cond:     parseCondition(CanonicalKey(key), value),
		})
	}
	sort.Slice(parsed, func(i, j int) bool {
		if parsed[i].cond.Key != parsed[j].cond.Key {
			return parsed[i].cond.Key < parsed[j].cond.Key
		}
		return parsed[i].original < parsed[j].original
	})

	// Синонимы одного ключа дают одно условие: берётся первое по исходному ключу.
	out := make([]models.Condition, 0, len(parsed))
	for i, p := range parsed {
		if i > 0 && parsed[i-1].cond.Key == p.cond.Key {
			continue
		}
		out = append(out, p.cond)
	}
	return out
}

func parseCondition(key string, raw json.RawMessage) models.Condition {
	invalid := models.Condition{Key: key, Kind: models.ConditionInvalid}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return invalid
	}

	switch v := value.(type) {
	case string:
		n := models.Normalize(v)
		if n == "" {
			return invalid
		}
		return models.Condition{Key: key, Kind: models.ConditionSet, Values: []string{n}}
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return invalid
		}
		return models.Condition{Key: key, Kind: models.ConditionNumeric, Bounds: []models.Bound{{Op: models.OpEQ, Value: f}}}
	case bool:
		return models.Condition{Key: key, Kind: models.ConditionBool, Bool: v}
	case []any:
		return parseList(key, v)
	case map[string]any:
		return parseOperators(key, v)
	default:
		return invalid
	}
}

func parseList(key string, items []any) models.Condition {
	invalid := models.Condition{Key: key, Kind: models.ConditionInvalid}
	if len(items) == 0 {
		return invalid
	}

	var strs []string
	var nums []float64
	for _, item := range items {
		switch v := item.(type) {
		case string:
			strs = append(strs, v)
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return invalid
			}
			nums = append(nums, f)
		default:
			return invalid
		}
	}

	switch {
	case len(strs) > 0 && len(nums) > 0:
		return invalid
	case len(strs) > 0:
		values := models.NormalizeSet(strs)
		if len(values) == 0 {
			return invalid
		}
		return models.Condition{Key: key, Kind: models.ConditionSet, Values: values}
	case len(nums) == 2:
		if nums[0] > nums[1] {
			return invalid
		}
		return models.Condition{Key: key, Kind: models.ConditionNumeric, Bounds: []models.Bound{
			{Op: models.OpGTE, Value: nums[0]},
			{Op: models.OpLTE, Value: nums[1]},
		}}
	default:
		values := make([]string, 0, len(nums))
		for _, f := range nums {
			values = append(values, FormatNumber(f))
		}
		return models.Condition{Key: key, Kind: models.ConditionSet, Values: models.NormalizeSet(values)}
	}
}

func parseOperators(key string, ops map[string]any) models.Condition {
	invalid := models.Condition{Key: key, Kind: models.ConditionInvalid}
	if len(ops) == 0 {
		return invalid
	}

	if in, ok := ops["in"]; ok {
		if len(ops) != 1 {
			return invalid
		}
		list, ok := in.([]any)
		if !ok {
			return invalid
		}
		cond := parseList(key, list)
		if cond.Kind != models.ConditionSet {
			return invalid
		}
		return cond
	}

	bounds := make([]models.Bound, 0, len(ops))
	for name, raw := range ops {
		op := models.Operator(strings.ToLower(strings.TrimSpace(name)))
		switch op {
		case models.OpGTE, models.OpLTE, models.OpGT, models.OpLT, models.OpEQ:
		default:
			return invalid
		}
		num, ok := raw.(json.Number)
		if !ok {
			return invalid
		}
		f, err := num.Float64()
		if err != nil {
			return invalid
		}
		bounds = append(bounds, models.Bound{Op: op, Value: f})
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Op < bounds[j].Op })
	return models.Condition{Key: key, Kind: models.ConditionNumeric, Bounds: bounds}
}

// FormatNumber форматирует число без лишних нулей: 2 -> "2", 2.5 -> "2.5".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalConditions сериализует условия обратно в JSON-объект, который понимает ParseConditions.
func MarshalConditions(conds []models.Condition) ([]byte, error) {
	out := make(map[string]any, len(conds))
	for _, c := range conds {
		switch c.Kind {
		case models.ConditionSet:
			out[c.Key] = c.Values
		case models.ConditionNumeric:
			ops := make(map[string]float64, len(c.Bounds))
			for _, b := range c.Bounds {
				ops[string(b.Op)] = b.Value
			}
			out[c.Key] = ops
		case models.ConditionBool:
			out[c.Key] = c.Bool
		default:
			out[c.Key] = nil
		}
	}
	return json.Marshal(out)
}
