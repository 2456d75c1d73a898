package models

// Product позиция каталога. Пустой SkinTypes означает универсальный продукт.
type Product struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Brand             string   `json:"brand"`
	Category          string   `json:"category"`
	SkinTypes         []string `json:"skin_types"`
	Concerns          []string `json:"concerns"`
	ActiveIngredients []string `json:"active_ingredients"`
	AvoidIf           []string `json:"avoid_if"`
	IsNonComedogenic  bool     `json:"is_non_comedogenic"`
	IsFragranceFree   bool     `json:"is_fragrance_free"`
	Published         bool     `json:"published"`
	BrandActive       bool     `json:"brand_active"`
	Priority          int      `json:"priority"`
	IsHero            bool     `json:"is_hero"`
}

// Eligible участвует в подборе только опубликованный продукт активного бренда.
func (p Product) Eligible() bool {
	return p.Published && p.BrandActive
}

// irritantActives ингредиенты, требующие постепенного введения.
var irritantActives = map[string]struct{}{
	"retinol":          {},
	"retinal":          {},
	"retinaldehyde":    {},
	"tretinoin":        {},
	"adapalene":        {},
	"tazarotene":       {},
	"retinoid":         {},
	"benzoyl_peroxide": {},
	"bpo":              {},
	"glycolic_acid":    {},
	"lactic_acid":      {},
	"salicylic_acid":   {},
	"mandelic_acid":    {},
	"aha":              {},
	"bha":              {},
	"tca":              {},
}

// IsIrritantIngredient сообщает, относится ли ингредиент к раздражающим активам.
func IsIrritantIngredient(ingredient string) bool {
	_, ok := irritantActives[Normalize(ingredient)]
	return ok
}

// IsIrritant true, если среди активов продукта есть ретиноид, BPO или сильная кислота.
func (p Product) IsIrritant() bool {
	for _, ing := range p.ActiveIngredients {
		if IsIrritantIngredient(ing) {
			return true
		}
	}
	return false
}

// Normalized возвращает копию продукта с нормализованными множествами.
func (p Product) Normalized() Product {
	p.Category = Normalize(p.Category)
	p.SkinTypes = NormalizeSet(p.SkinTypes)
	p.Concerns = NormalizeSet(p.Concerns)
	p.ActiveIngredients = NormalizeSet(p.ActiveIngredients)
	p.AvoidIf = NormalizeSet(p.AvoidIf)
	return p
}

// ProductFilter параметры выборки из каталога.
type ProductFilter struct {
	Categories   []string
	OnlyEligible bool
}
