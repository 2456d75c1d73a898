package rules

import (
	"bytes"
	"encoding/json"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// ParseSteps разбирает шаги правила, сохраняя порядок объявления.
// Принимает JSON-объект {"cleanser": {...}, ...} или массив [{"name": "cleanser", ...}].
// Нечитаемый вход даёт пустой список шагов.
func ParseSteps(raw []byte) []models.Step {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}

	switch trimmed[0] {
	case '{':
		return parseStepObject(trimmed)
	case '[':
		return parseStepArray(trimmed)
	default:
		return nil
	}
}

func parseStepObject(raw []byte) []models.Step {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var steps []models.Step
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return steps
		}
		name, ok := tok.(string)
		if !ok {
			return steps
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return steps
		}
		steps = appendStep(steps, ParseStep(name, value))
	}
	return steps
}

func parseStepArray(raw []byte) []models.Step {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var steps []models.Step
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		var name string
		for key, value := range fields {
			if k := CanonicalKey(key); k == "name" || k == "step" {
				_ = json.Unmarshal(value, &name)
			}
		}
		if nested, ok := fields["spec"]; ok {
			item = nested
		}
		steps = appendStep(steps, ParseStep(name, item))
	}
	return steps
}

func appendStep(steps []models.Step, step models.Step) []models.Step {
	if step.Name == "" {
		return steps
	}
	for _, s := range steps {
		if s.Name == step.Name {
			return steps
		}
	}
	return append(steps, step)
}

// ParseStep разбирает спецификацию одного шага. Неизвестные поля игнорируются.
func ParseStep(name string, raw []byte) models.Step {
	name = models.Normalize(name)
	spec := models.StepSpec{MaxItems: 1}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		for key, value := range fields {
			switch CanonicalKey(key) {
			case "category", "categories":
				spec.Categories = decodeStrings(value)
			case "skin_types", KeySkinType:
				spec.SkinTypes = decodeStrings(value)
			case KeyConcerns:
				spec.Concerns = decodeStrings(value)
			case "active_ingredients", "ingredients", "actives":
				spec.ActiveIngredients = decodeStrings(value)
			case "is_non_comedogenic", "non_comedogenic":
				spec.IsNonComedogenic = decodeBool(value)
			case "is_fragrance_free", "fragrance_free":
				spec.IsFragranceFree = decodeBool(value)
			case "max_items", "max", "limit":
				var n float64
				if err := json.Unmarshal(value, &n); err == nil {
					spec.MaxItems = int(n)
				}
			}
		}
	}

	if len(spec.Categories) == 0 && name != "" {
		spec.Categories = []string{name}
	}
	if spec.MaxItems < 1 {
		spec.MaxItems = 1
	}
	return models.Step{Name: name, Spec: spec}
}

func decodeStrings(raw json.RawMessage) []string {
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return models.NormalizeSet(list)
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return models.NormalizeSet([]string{single})
	}
	return nil
}

func decodeBool(raw json.RawMessage) *bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil
	}
	return &b
}

type stepDTO struct {
	Name              string   `json:"name"`
	Category          []string `json:"category"`
	SkinTypes         []string `json:"skin_types,omitempty"`
	Concerns          []string `json:"concerns,omitempty"`
	ActiveIngredients []string `json:"active_ingredients,omitempty"`
	IsNonComedogenic  *bool    `json:"is_non_comedogenic,omitempty"`
	IsFragranceFree   *bool    `json:"is_fragrance_free,omitempty"`
	MaxItems          int      `json:"max_items"`
}

// MarshalSteps сериализует шаги в JSON-массив: в отличие от объекта, массив
// сохраняет порядок шагов и в JSONB-колонке.
func MarshalSteps(steps []models.Step) ([]byte, error) {
	out := make([]stepDTO, 0, len(steps))
	for _, s := range steps {
		out = append(out, stepDTO{
			Name:              s.Name,
			Category:          s.Spec.Categories,
			SkinTypes:         s.Spec.SkinTypes,
			Concerns:          s.Spec.Concerns,
			ActiveIngredients: s.Spec.ActiveIngredients,
			IsNonComedogenic:  s.Spec.IsNonComedogenic,
			IsFragranceFree:   s.Spec.IsFragranceFree,
			MaxItems:          s.Spec.MaxItems,
		})
	}
	return json.Marshal(out)
}
