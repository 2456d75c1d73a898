package plan

import (
	"fmt"
	"sort"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// ValidateDay проверяет, что номер дня входит в план.
func ValidateDay(day int) error {
	if day < 1 || day > models.PlanDays {
		return fmt.Errorf("%w: %d", models.ErrInvalidDay, day)
	}
	return nil
}

// Complete отмечает день выполненным. Повторная отметка ничего не меняет.
func Complete(progress models.Progress, day int) (models.Progress, error) {
	if err := ValidateDay(day); err != nil {
		return progress, err
	}
	days := make([]int, 0, len(progress.CompletedDays)+1)
	for _, d := range progress.CompletedDays {
		if d == day {
			return progress, nil
		}
		days = append(days, d)
	}
	days = append(days, day)
	sort.Ints(days)
	progress.CompletedDays = days
	return progress, nil
}

// Summary сводка прогресса по плану.
type Summary struct {
	CompletedDays []int        `json:"completed_days"`
	CurrentDay    int          `json:"current_day"`
	Phase         models.Phase `json:"phase"`
	Percent       int          `json:"percent"`
	Finished      bool         `json:"finished"`
}

// Summarize считает текущий день (первый невыполненный), его фазу и процент выполнения.
// Дни вне диапазона плана игнорируются.
func Summarize(progress models.Progress) Summary {
	done := make(map[int]struct{}, len(progress.CompletedDays))
	completed := make([]int, 0, len(progress.CompletedDays))
	for _, d := range progress.CompletedDays {
		if ValidateDay(d) != nil {
			continue
		}
		if _, dup := done[d]; dup {
			continue
		}
		done[d] = struct{}{}
		completed = append(completed, d)
	}
	sort.Ints(completed)

	current := models.PlanDays
	for d := 1; d <= models.PlanDays; d++ {
		if _, ok := done[d]; !ok {
			current = d
			break
		}
	}

	return Summary{
		CompletedDays: completed,
		CurrentDay:    current,
		Phase:         PhaseForDay(current),
		Percent:       len(completed) * 100 / models.PlanDays,
		Finished:      len(completed) == models.PlanDays,
	}
}
