package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

func cleanserCatalog() Snapshot {
	return Snapshot{
		product("c-1", "cleanser", skinTypes("dry"), priority(5)),
		product("c-2", "cleanser", skinTypes("oily"), priority(1)),
		product("c-3", "cleanser", priority(3), hero()),
		product("c-4", "cleanser", skinTypes("oily", "combination_oily"), priority(3)),
		product("c-5", "cleanser", skinTypes("oily"), priority(9), unpublished()),
		product("c-6", "cleanser", skinTypes("oily"), priority(9), brandInactive()),
		product("m-1", "moisturizer", skinTypes("oily"), priority(9)),
	}
}

func TestFill_ScoreThenIDOrder(t *testing.T) {
	spec := models.StepSpec{Categories: []string{"cleanser"}, MaxItems: 2}

	got := Fill(spec, oilyAcneProfile(), cleanserCatalog())
	assert.Equal(t, []string{"c-3", "c-4"}, ids(got))

	spec.MaxItems = 10
	got = Fill(spec, oilyAcneProfile(), cleanserCatalog())
	assert.Equal(t, []string{"c-3", "c-4", "c-2"}, ids(got), "dry-only and ineligible products are dropped")
}

func TestFill_IDBreaksScoreTies(t *testing.T) {
	catalog := Snapshot{
		product("b", "serum"),
		product("c", "serum"),
		product("a", "serum"),
	}
	spec := models.StepSpec{Categories: []string{"serum"}, MaxItems: 3}
	assert.Equal(t, []string{"a", "b", "c"}, ids(Fill(spec, oilyAcneProfile(), catalog)))
}

func TestFill_ConcernsBoostDoesNotFilter(t *testing.T) {
	catalog := Snapshot{
		product("t-1", "treatment", concerns("dryness"), priority(10)),
		product("t-2", "treatment", concerns("acne")),
	}
	spec := models.StepSpec{Categories: []string{"treatment"}, Concerns: []string{"acne"}, MaxItems: 2}

	got := Fill(spec, oilyAcneProfile(), catalog)
	assert.Equal(t, []string{"t-2", "t-1"}, ids(got))
}

func TestFill_StepSkinTypesWidenCompatibility(t *testing.T) {
	catalog := Snapshot{
		product("s-dry", "serum", skinTypes("dry")),
		product("s-normal", "serum", skinTypes("normal")),
	}
	spec := models.StepSpec{Categories: []string{"serum"}, SkinTypes: []string{"normal"}, MaxItems: 5}

	res := FillStep("serum", spec, oilyAcneProfile(), catalog)
	assert.Equal(t, []string{"s-normal"}, ids(res.Products))
	assert.False(t, res.SkinTypeRelaxed)
}

func TestFill_SkinTypeRelaxedWhenNothingFits(t *testing.T) {
	catalog := Snapshot{
		product("m-dry", "moisturizer", skinTypes("dry")),
	}
	spec := models.StepSpec{Categories: []string{"moisturizer"}, MaxItems: 1}

	res := FillStep("moisturizer", spec, oilyAcneProfile(), catalog)
	assert.Equal(t, []string{"m-dry"}, ids(res.Products))
	assert.True(t, res.SkinTypeRelaxed)
}

func TestFill_ExcludedIngredientsAreHardFilter(t *testing.T) {
	profile := oilyAcneProfile()
	profile.ExcludedIngredients = []string{"Salicylic Acid"}

	catalog := Snapshot{
		product("s-bha", "serum", actives("salicylic_acid"), priority(10), hero()),
		product("s-ok", "serum", actives("niacinamide")),
	}
	spec := models.StepSpec{Categories: []string{"serum"}, MaxItems: 5}
	assert.Equal(t, []string{"s-ok"}, ids(Fill(spec, profile, catalog)))

	only := Snapshot{catalog[0]}
	res := FillStep("serum", spec, profile, only)
	assert.True(t, res.Empty(), "exclusion is never relaxed, even if the step ends up empty")
}

func TestFill_ContraindicationsAreHardFilter(t *testing.T) {
	profile := oilyAcneProfile()
	profile.HasPregnancy = true
	profile.Diagnoses = []string{"eczema"}

	catalog := Snapshot{
		product("t-retinol", "treatment", actives("retinol"), avoidIf("pregnancy")),
		product("t-eczema", "treatment", avoidIf("Eczema")),
		product("t-ok", "treatment", avoidIf("rosacea")),
	}
	spec := models.StepSpec{Categories: []string{"treatment"}, MaxItems: 5}
	assert.Equal(t, []string{"t-ok"}, ids(Fill(spec, profile, catalog)))

	profile.RosaceaRisk = models.RiskHigh
	assert.Empty(t, Fill(spec, profile, catalog))
}

func TestFill_FormulaFlags(t *testing.T) {
	yes, no := true, false
	catalog := Snapshot{
		product("plain", "moisturizer"),
		product("nc", "moisturizer", func(p *models.Product) { p.IsNonComedogenic = true }),
	}

	spec := models.StepSpec{Categories: []string{"moisturizer"}, IsNonComedogenic: &yes, MaxItems: 5}
	assert.Equal(t, []string{"nc"}, ids(Fill(spec, oilyAcneProfile(), catalog)))

	spec.IsNonComedogenic = &no
	assert.Equal(t, []string{"nc", "plain"}, ids(Fill(spec, oilyAcneProfile(), catalog)))
}

// Требование по активам ослабляется, исключения остаются в силе.
func TestFill_ActiveIngredientRelaxationVsHardExclusion(t *testing.T) {
	profile := oilyAcneProfile()
	profile.ExcludedIngredients = []string{"retinol"}

	spec := models.StepSpec{
		Categories:        []string{"serum"},
		ActiveIngredients: []string{"retinol"},
		MaxItems:          2,
	}

	t.Run("requirement satisfied when a match exists", func(t *testing.T) {
		catalog := Snapshot{
			product("s-retinal", "serum", actives("retinal")),
			product("s-niacin", "serum", actives("niacinamide"), priority(5)),
		}
		noExclusions := oilyAcneProfile()
		spec := spec
		spec.ActiveIngredients = []string{"retinal"}

		res := FillStep("serum", spec, noExclusions, catalog)
		assert.Equal(t, []string{"s-retinal"}, ids(res.Products))
		assert.False(t, res.IngredientsRelaxed)
	})

	t.Run("soft requirement relaxed when only excluded products carry the active", func(t *testing.T) {
		catalog := Snapshot{
			product("s-retinol", "serum", actives("retinol"), priority(10), hero()),
			product("s-niacin", "serum", actives("niacinamide"), priority(5)),
			product("s-peptide", "serum", actives("peptides"), priority(1)),
		}

		res := FillStep("serum", spec, profile, catalog)
		assert.True(t, res.IngredientsRelaxed)
		assert.Equal(t, []string{"s-niacin", "s-peptide"}, ids(res.Products))
		for _, p := range res.Products {
			assert.NotContains(t, p.ActiveIngredients, "retinol", "hard exclusion never violated")
		}
	})
}

func TestFill_EmptyCatalog(t *testing.T) {
	spec := models.StepSpec{Categories: []string{"cleanser"}, MaxItems: 2}

	assert.Empty(t, Fill(spec, oilyAcneProfile(), Snapshot{}))
	assert.Empty(t, Fill(spec, oilyAcneProfile(), nil))
	assert.NotPanics(t, func() {
		res := FillStep("cleanser", spec, oilyAcneProfile(), nil)
		assert.True(t, res.Empty())
	})
}

func TestFill_Deterministic(t *testing.T) {
	spec := models.StepSpec{Categories: []string{"cleanser", "moisturizer"}, MaxItems: 4}
	first := Fill(spec, oilyAcneProfile(), cleanserCatalog())
	require.NotEmpty(t, first)

	reversed := cleanserCatalog()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	for range 10 {
		assert.Equal(t, ids(first), ids(Fill(spec, oilyAcneProfile(), reversed)))
	}
}
