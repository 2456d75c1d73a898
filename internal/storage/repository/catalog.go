package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// Brand бренд каталога. Продукты неактивного бренда не участвуют в подборе.
type Brand struct {
	ID       string
	Name     string
	IsActive bool
}

// UpsertBrand создает или обновляет бренд.
func (s *Storage) UpsertBrand(ctx context.Context, brand Brand) error {
	const op = "storage.UpsertBrand"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	query := `INSERT INTO brands (id, name, is_active) VALUES ($1, $2, $3)
			  ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active`
	if _, err := s.DB.ExecContext(ctx, query, brand.ID, brand.Name, brand.IsActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertProduct создает или обновляет продукт. Product.Brand ссылается на brands.id, пустое значение
// означает продукт без бренда.
func (s *Storage) UpsertProduct(ctx context.Context, p models.Product) error {
	const op = "storage.UpsertProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	p = p.Normalized()

	sets := make([]any, 0, 4)
	for _, set := range [][]string{p.SkinTypes, p.Concerns, p.ActiveIngredients, p.AvoidIf} {
		arg, err := jsonArg(set)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		sets = append(sets, arg)
	}
	brandID := sql.NullString{String: p.Brand, Valid: p.Brand != ""}

	query := `INSERT INTO products (id, brand_id, name, category, skin_types, concerns, active_ingredients,
				  avoid_if, is_non_comedogenic, is_fragrance_free, published, priority, is_hero)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  ON CONFLICT (id) DO UPDATE SET
				  brand_id = EXCLUDED.brand_id, name = EXCLUDED.name, category = EXCLUDED.category,
				  skin_types = EXCLUDED.skin_types, concerns = EXCLUDED.concerns,
				  active_ingredients = EXCLUDED.active_ingredients, avoid_if = EXCLUDED.avoid_if,
				  is_non_comedogenic = EXCLUDED.is_non_comedogenic, is_fragrance_free = EXCLUDED.is_fragrance_free,
				  published = EXCLUDED.published, priority = EXCLUDED.priority, is_hero = EXCLUDED.is_hero,
				  updated_at = now()`
	_, err := s.DB.ExecContext(ctx, query, p.ID, brandID, p.Name, p.Category,
		sets[0], sets[1], sets[2], sets[3],
		p.IsNonComedogenic, p.IsFragranceFree, p.Published, p.Priority, p.IsHero)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListProducts возвращает продукты каталога по фильтру, упорядоченные по id.
func (s *Storage) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	const op = "storage.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if len(filter.Categories) > 0 {
		placeholders := make([]string, 0, len(filter.Categories))
		for _, c := range filter.Categories {
			args = append(args, models.Normalize(c))
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		where = append(where, "p.category IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.OnlyEligible {
		where = append(where, "p.published AND COALESCE(b.is_active, TRUE)")
	}

	query := `SELECT p.id, COALESCE(p.brand_id, ''), p.name, p.category, p.skin_types, p.concerns,
				  p.active_ingredients, p.avoid_if, p.is_non_comedogenic, p.is_fragrance_free,
				  p.published, COALESCE(b.is_active, TRUE), p.priority, p.is_hero
			  FROM products p
			  LEFT JOIN brands b ON b.id = p.brand_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.id"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]models.Product, 0)
	for rows.Next() {
		var p models.Product
		var skinTypes, concerns, actives, avoidIf []byte
		if err := rows.Scan(&p.ID, &p.Brand, &p.Name, &p.Category, &skinTypes, &concerns,
			&actives, &avoidIf, &p.IsNonComedogenic, &p.IsFragranceFree,
			&p.Published, &p.BrandActive, &p.Priority, &p.IsHero); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p.SkinTypes, err = decodeJSON[string](skinTypes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p.Concerns, err = decodeJSON[string](concerns); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p.ActiveIngredients, err = decodeJSON[string](actives); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if p.AvoidIf, err = decodeJSON[string](avoidIf); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}
