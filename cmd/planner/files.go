package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/magabrotheeeer/skincare-planner/internal/matching"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/storage/repository"
)

// catalogFile JSON-выгрузка каталога: бренды и продукты.
type catalogFile struct {
	Brands   []brandJSON      `json:"brands"`
	Products []models.Product `json:"products"`
}

type brandJSON struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive *bool  `json:"is_active"`
}

func (b brandJSON) toBrand() repository.Brand {
	return repository.Brand{ID: b.ID, Name: b.Name, IsActive: b.IsActive == nil || *b.IsActive}
}

func readCatalogFile(path string) (*catalogFile, error) {
	const op = "planner.readCatalogFile"
	var file catalogFile
	if err := readJSON(path, &file); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range file.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("%s: product without id in %s", op, path)
		}
	}
	return &file, nil
}

// Snapshot собирает каталог так же, как его отдаёт хранилище: BrandActive берётся из брендов,
// продукт без бренда или с неизвестным брендом считается продуктом активного бренда.
func (f *catalogFile) Snapshot() matching.Snapshot {
	active := make(map[string]bool, len(f.Brands))
	for _, b := range f.Brands {
		active[b.ID] = b.toBrand().IsActive
	}
	out := make(matching.Snapshot, 0, len(f.Products))
	for _, p := range f.Products {
		p = p.Normalized()
		brandActive, known := active[p.Brand]
		p.BrandActive = !known || brandActive
		out = append(out, p)
	}
	return out
}

func readProfileFile(path string) (models.SkinProfile, error) {
	const op = "planner.readProfileFile"
	var profile models.SkinProfile
	if err := readJSON(path, &profile); err != nil {
		return models.SkinProfile{}, fmt.Errorf("%s: %w", op, err)
	}
	if !profile.Normalized().SkinType.Valid() {
		return models.SkinProfile{}, fmt.Errorf("%s: unknown skin_type %q", op, profile.SkinType)
	}
	return profile.Normalized(), nil
}

func readJSON(path string, out any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}
