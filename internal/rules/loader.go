package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// File содержимое YAML-файла с правилами.
type File struct {
	Rules    []models.Rule
	Fallback *models.Rule
}

type yamlFile struct {
	Rules    []yamlRule `yaml:"rules"`
	Fallback *yamlRule  `yaml:"fallback"`
}

type yamlRule struct {
	ID         string    `yaml:"id"`
	Name       string    `yaml:"name"`
	Priority   int       `yaml:"priority"`
	Active     *bool     `yaml:"active"`
	Conditions yaml.Node `yaml:"conditions"`
	Steps      yaml.Node `yaml:"steps"`
}

var validate = validator.New()

// LoadFile читает и разбирает YAML-файл с правилами.
func LoadFile(path string) (*File, error) {
	const op = "rules.LoadFile"
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	file, err := Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return file, nil
}

// Parse разбирает YAML-документ с правилами и проверяет их.
// Порядок шагов берётся из порядка ключей в YAML.
func Parse(payload []byte) (*File, error) {
	const op = "rules.Parse"

	var doc yamlFile
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	file := &File{Rules: make([]models.Rule, 0, len(doc.Rules))}
	seen := make(map[string]struct{}, len(doc.Rules))
	for _, yr := range doc.Rules {
		rule, err := yr.toRule()
		if err != nil {
			return nil, fmt.Errorf("%s: rule %q: %w", op, yr.ID, err)
		}
		if _, dup := seen[rule.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate rule id %q", op, rule.ID)
		}
		seen[rule.ID] = struct{}{}
		file.Rules = append(file.Rules, rule)
	}

	if doc.Fallback != nil {
		if doc.Fallback.ID == "" {
			doc.Fallback.ID = "fallback"
		}
		rule, err := doc.Fallback.toRule()
		if err != nil {
			return nil, fmt.Errorf("%s: fallback: %w", op, err)
		}
		file.Fallback = &rule
	}
	return file, nil
}

func (yr yamlRule) toRule() (models.Rule, error) {
	active := true
	if yr.Active != nil {
		active = *yr.Active
	}
	rule := models.Rule{
		ID:       yr.ID,
		Name:     yr.Name,
		Priority: yr.Priority,
		IsActive: active,
	}

	if yr.Conditions.Kind != 0 {
		var conds map[string]any
		if err := yr.Conditions.Decode(&conds); err != nil {
			return models.Rule{}, err
		}
		raw, err := json.Marshal(conds)
		if err != nil {
			return models.Rule{}, err
		}
		rule.Conditions = ParseConditions(raw)
	}

	steps, err := stepsFromNode(&yr.Steps)
	if err != nil {
		return models.Rule{}, err
	}
	rule.Steps = steps

	if err := Validate(rule); err != nil {
		return models.Rule{}, err
	}
	return rule, nil
}

func stepsFromNode(node *yaml.Node) ([]models.Step, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.MappingNode:
		var steps []models.Step
		for i := 0; i+1 < len(node.Content); i += 2 {
			var spec map[string]any
			if err := node.Content[i+1].Decode(&spec); err != nil {
				return nil, err
			}
			raw, err := json.Marshal(spec)
			if err != nil {
				return nil, err
			}
			steps = appendStep(steps, ParseStep(node.Content[i].Value, raw))
		}
		return steps, nil
	case yaml.SequenceNode:
		var items []map[string]any
		if err := node.Decode(&items); err != nil {
			return nil, err
		}
		raw, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		return ParseSteps(raw), nil
	default:
		return nil, errors.New("steps must be a mapping or a list")
	}
}

// Validate проверяет структурную корректность правила.
func Validate(rule models.Rule) error {
	if err := validate.Struct(rule); err != nil {
		return err
	}
	if len(rule.Steps) == 0 {
		return errors.New("rule has no steps")
	}
	return nil
}
