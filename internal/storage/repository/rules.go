package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/rules"
)

// ListActiveRules возвращает активные правила. Условия и шаги разбираются без ошибок:
// испорченные данные дают правило, которое ни с кем не совпадёт.
func (s *Storage) ListActiveRules(ctx context.Context) ([]models.Rule, error) {
	const op = "storage.ListActiveRules"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, name, conditions, steps, priority, is_active
			  FROM rules
			  WHERE is_active
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]models.Rule, 0)
	for rows.Next() {
		var r models.Rule
		var conditions, steps []byte
		if err := rows.Scan(&r.ID, &r.Name, &conditions, &steps, &r.Priority, &r.IsActive); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		r.Conditions = rules.ParseConditions(conditions)
		r.Steps = rules.ParseSteps(steps)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpsertRule создает или заменяет правило. Шаги пишутся массивом, чтобы JSONB сохранил их порядок.
func (s *Storage) UpsertRule(ctx context.Context, rule models.Rule) error {
	const op = "storage.UpsertRule"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if err := rules.Validate(rule); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	conditions, err := rules.MarshalConditions(rule.Conditions)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	steps, err := rules.MarshalSteps(rule.Steps)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO rules (id, name, conditions, steps, priority, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (id) DO UPDATE SET
				  name = EXCLUDED.name, conditions = EXCLUDED.conditions, steps = EXCLUDED.steps,
				  priority = EXCLUDED.priority, is_active = EXCLUDED.is_active, updated_at = now()`
	if _, err := s.DB.ExecContext(ctx, query, rule.ID, rule.Name, string(conditions), string(steps),
		rule.Priority, rule.IsActive); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetRuleActive включает или выключает правило.
func (s *Storage) SetRuleActive(ctx context.Context, id string, active bool) (bool, error) {
	const op = "storage.SetRuleActive"
	res, err := s.DB.ExecContext(ctx, `UPDATE rules SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
