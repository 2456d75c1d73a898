// Package plan раскладывает подобранные продукты по 28-дневному календарю
// и отслеживает выполненные дни.
package plan

import (
	"sort"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Границы фаз плана.
const (
	LastAdaptationDay = 7
	LastActiveDay     = 21
)

// PhaseForDay возвращает фазу дня: 1–7 adaptation, 8–21 active, 22–28 support.
func PhaseForDay(day int) models.Phase {
	switch {
	case day <= LastAdaptationDay:
		return models.PhaseAdaptation
	case day <= LastActiveDay:
		return models.PhaseActive
	default:
		return models.PhaseSupport
	}
}

// ProductLookup источник сведений о продуктах для раскладки.
type ProductLookup interface {
	ProductByID(id string) (models.Product, bool)
}

// ProductIndex ProductLookup поверх map.
type ProductIndex map[string]models.Product

// ProductByID ищет продукт в индексе.
func (i ProductIndex) ProductByID(id string) (models.Product, bool) {
	p, ok := i[id]
	return p, ok
}

// Builder строит Plan28.
type Builder struct {
	products ProductLookup
}

// NewBuilder создаёт Builder поверх источника продуктов.
func NewBuilder(products ProductLookup) *Builder {
	return &Builder{products: products}
}

type slot struct {
	morning bool
	evening bool
}

type schedule struct {
	productID string
	step      string
	order     int
	slot      slot
	irritant  bool
	mask      bool
}

var stepOrder = map[string]int{
	models.StepCleanser:    0,
	models.StepToner:       1,
	models.StepSerum:       2,
	models.StepTreatment:   3,
	models.StepMoisturizer: 4,
	models.StepSPF:         5,
	models.StepMask:        6,
}

const otherStepOrder = 7

// Build раскладывает продукты результата по 28 дням.
// Каждый продукт из result.ProductIDs появляется хотя бы в одном дне.
func (b *Builder) Build(result models.RecommendationResult, profile models.SkinProfile) models.Plan28 {
	items := b.schedules(result)
	sensitive := models.SensitivityLevel(models.Normalize(string(profile.SensitivityLevel))).IsHigh()

	plan := models.Plan28{
		UserID:         result.UserID,
		ProfileID:      result.ProfileID,
		ProfileVersion: result.ProfileVersion,
		Days:           make([]models.PlanDay, 0, models.PlanDays),
	}

	for day := 1; day <= models.PlanDays; day++ {
		phase := PhaseForDay(day)
		pd := models.PlanDay{DayNumber: day, Phase: phase, Steps: []models.PlanStep{}}
		for _, tod := range []models.TimeOfDay{models.Morning, models.Evening} {
			for _, it := range items {
				if tod == models.Morning && !it.slot.morning || tod == models.Evening && !it.slot.evening {
					continue
				}
				freq := frequency(it, phase, sensitive)
				if !appliesOn(freq, day) {
					continue
				}
				pd.Steps = append(pd.Steps, models.PlanStep{
					ProductID: it.productID,
					Step:      it.step,
					TimeOfDay: tod,
					Frequency: freq,
				})
			}
		}
		plan.Days = append(plan.Days, pd)
	}
	return plan
}

// schedules определяет шаг, слот и признаки продукта в порядке раскладки внутри дня.
func (b *Builder) schedules(result models.RecommendationResult) []schedule {
	items := make([]schedule, 0, len(result.ProductIDs))
	for i, id := range result.ProductIDs {
		var product models.Product
		known := false
		if b.products != nil {
			product, known = b.products.ProductByID(id)
		}

		step, ok := result.StepOf(id)
		if !ok && known {
			step = product.Category
		}
		step = canonicalStep(step)
		category := canonicalStep(product.Category)

		it := schedule{
			productID: id,
			step:      step,
			irritant:  known && product.IsIrritant(),
			mask:      step == models.StepMask || category == models.StepMask,
		}
		it.slot = slotFor(step, category, it.irritant)

		order, ok := stepOrder[step]
		if !ok {
			order = otherStepOrder
		}
		it.order = order*len(result.ProductIDs) + i
		items = append(items, it)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].order < items[j].order })
	return items
}

func canonicalStep(s string) string {
	s = models.Normalize(s)
	switch s {
	case "sunscreen", "sun_protection", "spf_cream":
		return models.StepSPF
	case "cream", "moisturiser":
		return models.StepMoisturizer
	case "cleansing", "wash", "face_wash":
		return models.StepCleanser
	}
	return s
}

// slotFor выбирает утро и вечер по шагу, а если шаг не из известных, по категории.
// Раздражающий актив переводит на вечер только сыворотки, средства лечения и неизвестные шаги.
func slotFor(step, category string, irritant bool) slot {
	if step == models.StepSPF || category == models.StepSPF {
		return slot{morning: true}
	}
	kind := step
	if _, ok := stepOrder[kind]; !ok {
		kind = category
	}
	switch kind {
	case models.StepCleanser, models.StepToner, models.StepMoisturizer:
		return slot{morning: true, evening: true}
	case models.StepTreatment, models.StepMask:
		return slot{evening: true}
	}
	if irritant {
		return slot{evening: true}
	}
	return slot{morning: true, evening: true}
}

// frequency частота применения продукта в фазе.
// Маски дважды в неделю во всех фазах, независимо от активов.
// Раздражающие активы: через день в адаптации, ежедневно дальше;
// при высокой чувствительности через день все 28 дней.
func frequency(it schedule, phase models.Phase, sensitive bool) models.Frequency {
	switch {
	case it.mask:
		return models.FrequencyTwiceWeekly
	case it.irritant && (sensitive || phase == models.PhaseAdaptation):
		return models.FrequencyEveryOtherDay
	default:
		return models.FrequencyDaily
	}
}

// appliesOn сообщает, применяется ли продукт с частотой freq в день day.
func appliesOn(freq models.Frequency, day int) bool {
	switch freq {
	case models.FrequencyEveryOtherDay:
		return day%2 == 1
	case models.FrequencyTwiceWeekly:
		return day%7 == 3 || day%7 == 0
	default:
		return true
	}
}
