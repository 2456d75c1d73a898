package matching

import (
	"sort"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// CatalogLookup источник продуктов для заполнения шагов.
type CatalogLookup interface {
	FindProducts(filter models.ProductFilter) []models.Product
}

// Snapshot снимок каталога в памяти, отфильтровывается на месте.
type Snapshot []models.Product

// FindProducts возвращает продукты нужных категорий в порядке снимка.
func (s Snapshot) FindProducts(filter models.ProductFilter) []models.Product {
	out := make([]models.Product, 0, len(s))
	for _, p := range s {
		if filter.OnlyEligible && !p.Eligible() {
			continue
		}
		if len(filter.Categories) > 0 && !models.Contains(filter.Categories, p.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByID индексирует снимок по идентификатору продукта.
func (s Snapshot) ByID() map[string]models.Product {
	index := make(map[string]models.Product, len(s))
	for _, p := range s {
		index[p.ID] = p
	}
	return index
}

// StepResult продукты шага и признаки ослабления фильтров.
type StepResult struct {
	Step               string
	Products           []models.Product
	SkinTypeRelaxed    bool
	IngredientsRelaxed bool
}

// Empty true, если для шага не нашлось ни одного продукта.
func (r StepResult) Empty() bool {
	return len(r.Products) == 0
}

// Fill подбирает не более spec.MaxItems продуктов для шага.
func Fill(spec models.StepSpec, profile models.SkinProfile, catalog CatalogLookup) []models.Product {
	return FillStep("", spec, profile, catalog).Products
}

// FillStep подбирает продукты для шага и сообщает, какие фильтры пришлось ослабить.
//
// Исключения по ингредиентам и противопоказаниям не ослабляются никогда.
// Фильтр по типу кожи снимается, только если после жёстких фильтров не осталось кандидатов.
// Требование по активным ингредиентам снимается, если ему не отвечает ни один кандидат.
func FillStep(name string, spec models.StepSpec, profile models.SkinProfile, catalog CatalogLookup) StepResult {
	result := StepResult{Step: name}
	if catalog == nil {
		return result
	}
	profile = profile.Normalized()

	base := make([]models.Product, 0)
	for _, p := range catalog.FindProducts(models.ProductFilter{Categories: spec.Categories, OnlyEligible: true}) {
		p = p.Normalized()
		if !p.Eligible() || !models.Contains(spec.Categories, p.Category) {
			continue
		}
		if !passesExclusions(p, spec, profile) {
			continue
		}
		base = append(base, p)
	}

	skinTypes := append(models.NormalizeSet(spec.SkinTypes), string(profile.SkinType))
	candidates := make([]models.Product, 0, len(base))
	for _, p := range base {
		if len(p.SkinTypes) == 0 || models.Intersects(p.SkinTypes, skinTypes) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 && len(base) > 0 {
		candidates = base
		result.SkinTypeRelaxed = true
	}

	if len(spec.ActiveIngredients) > 0 && len(candidates) > 0 {
		withActives := make([]models.Product, 0, len(candidates))
		for _, p := range candidates {
			if models.Intersects(p.ActiveIngredients, spec.ActiveIngredients) {
				withActives = append(withActives, p)
			}
		}
		if len(withActives) > 0 {
			candidates = withActives
		} else {
			result.IngredientsRelaxed = true
		}
	}

	result.Products = rank(candidates, spec)
	return result
}

// passesExclusions жёсткие фильтры: исключённые ингредиенты, противопоказания и флаги формулы.
func passesExclusions(p models.Product, spec models.StepSpec, profile models.SkinProfile) bool {
	if models.Intersects(p.ActiveIngredients, profile.ExcludedIngredients) {
		return false
	}
	if models.Intersects(p.AvoidIf, profile.ContraindicationTags()) {
		return false
	}
	if spec.IsNonComedogenic != nil && *spec.IsNonComedogenic && !p.IsNonComedogenic {
		return false
	}
	if spec.IsFragranceFree != nil && *spec.IsFragranceFree && !p.IsFragranceFree {
		return false
	}
	return true
}

type scored struct {
	product models.Product
	score   float64
}

// rank считает score = 2*concernMatch + isHero + normalizedPriority и берёт первые MaxItems.
func rank(candidates []models.Product, spec models.StepSpec) []models.Product {
	if len(candidates) == 0 {
		return nil
	}

	maxPriority := 0
	for _, p := range candidates {
		if p.Priority > maxPriority {
			maxPriority = p.Priority
		}
	}

	items := make([]scored, 0, len(candidates))
	for _, p := range candidates {
		var score float64
		if len(spec.Concerns) > 0 && models.Intersects(p.Concerns, spec.Concerns) {
			score += 2
		}
		if p.IsHero {
			score++
		}
		if maxPriority > 0 && p.Priority > 0 {
			score += float64(p.Priority) / float64(maxPriority)
		}
		items = append(items, scored{product: p, score: score})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].product.ID < items[j].product.ID
	})

	limit := spec.MaxItems
	if limit < 1 {
		limit = 1
	}
	if len(items) > limit {
		items = items[:limit]
	}
	out := make([]models.Product, 0, len(items))
	for _, it := range items {
		out = append(out, it.product)
	}
	return out
}
