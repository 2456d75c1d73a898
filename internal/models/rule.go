package models

// ConditionKind вид условия правила.
type ConditionKind int

const (
	// ConditionInvalid условие не удалось разобрать, оно никогда не выполняется.
	ConditionInvalid ConditionKind = iota
	// ConditionSet значение профиля должно входить во множество Values.
	ConditionSet
	// ConditionNumeric значение профиля должно удовлетворять всем Bounds.
	ConditionNumeric
	// ConditionBool значение профиля должно совпасть с Bool.
	ConditionBool
)

// Operator оператор числового сравнения.
type Operator string

const (
	OpGTE Operator = "gte"
	OpLTE Operator = "lte"
	OpGT  Operator = "gt"
	OpLT  Operator = "lt"
	OpEQ  Operator = "eq"
)

// Bound одно числовое ограничение условия.
type Bound struct {
	Op    Operator `json:"op"`
	Value float64  `json:"value"`
}

// Condition типизированное условие правила для одного ключа профиля.
type Condition struct {
	Key    string        `json:"key"`
	Kind   ConditionKind `json:"kind"`
	Values []string      `json:"values,omitempty"`
	Bounds []Bound       `json:"bounds,omitempty"`
	Bool   bool          `json:"bool,omitempty"`
}

// StepSpec требования правила к продуктам одного шага ухода.
type StepSpec struct {
	Categories        []string `json:"category"`
	SkinTypes         []string `json:"skin_types,omitempty"`
	Concerns          []string `json:"concerns,omitempty"`
	ActiveIngredients []string `json:"active_ingredients,omitempty"`
	IsNonComedogenic  *bool    `json:"is_non_comedogenic,omitempty"`
	IsFragranceFree   *bool    `json:"is_fragrance_free,omitempty"`
	MaxItems          int      `json:"max_items" validate:"gte=1"`
}

// Step именованный шаг правила. Порядок шагов в правиле задаётся порядком объявления.
type Step struct {
	Name string   `json:"name" validate:"required"`
	Spec StepSpec `json:"spec"`
}

// Rule правило подбора с приоритетом.
type Rule struct {
	ID         string      `json:"id" validate:"required"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Steps      []Step      `json:"steps" validate:"dive"`
	Priority   int         `json:"priority"`
	IsActive   bool        `json:"is_active"`
}

// StepByName ищет шаг правила по имени.
func (r Rule) StepByName(name string) (Step, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Названия основных шагов ухода.
const (
	StepCleanser    = "cleanser"
	StepToner       = "toner"
	StepSerum       = "serum"
	StepTreatment   = "treatment"
	StepMoisturizer = "moisturizer"
	StepSPF         = "spf"
	StepMask        = "mask"
)

// CoreSteps шаги, которые обязан покрывать резервный набор правил.
var CoreSteps = []string{StepCleanser, StepMoisturizer, StepSPF}
