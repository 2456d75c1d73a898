package models

// PlanDays длина плана ухода.
const PlanDays = 28

// Phase фаза 28-дневного плана.
type Phase string

const (
	PhaseAdaptation Phase = "adaptation"
	PhaseActive     Phase = "active"
	PhaseSupport    Phase = "support"
)

// TimeOfDay время применения продукта.
type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Evening TimeOfDay = "evening"
)

// Frequency частота применения продукта.
type Frequency string

const (
	FrequencyDaily         Frequency = "daily"
	FrequencyEveryOtherDay Frequency = "every_other_day"
	FrequencyTwiceWeekly   Frequency = "twice_weekly"
)

// PlanStep применение одного продукта в конкретный день.
type PlanStep struct {
	ProductID string    `json:"product_id"`
	Step      string    `json:"step"`
	TimeOfDay TimeOfDay `json:"time_of_day"`
	Frequency Frequency `json:"frequency"`
}

// PlanDay один день плана.
type PlanDay struct {
	DayNumber int        `json:"day_number"`
	Phase     Phase      `json:"phase"`
	Steps     []PlanStep `json:"steps"`
}

// Plan28 план ухода на 28 дней.
type Plan28 struct {
	UserID         int64     `json:"user_id"`
	ProfileID      string    `json:"profile_id"`
	ProfileVersion int       `json:"profile_version"`
	Days           []PlanDay `json:"days"`
}

// Progress выполненные дни плана для версии профиля.
type Progress struct {
	UserID         int64 `json:"user_id"`
	ProfileVersion int   `json:"profile_version"`
	CompletedDays  []int `json:"completed_days"`
}
