// Package recommendation связывает движок подбора с хранилищем, кэшем и брокером:
// загружает правила и каталог, собирает и сохраняет подбор, строит 28-дневный план.
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/skincare-planner/internal/cache"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
	"github.com/magabrotheeeer/skincare-planner/internal/matching"
	"github.com/magabrotheeeer/skincare-planner/internal/metrics"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
	"github.com/magabrotheeeer/skincare-planner/internal/plan"
)

// Repository доступ к профилям, правилам, каталогу и сохранённым подборам.
type Repository interface {
	// GetCurrentProfile возвращает последнюю версию профиля или models.ErrProfileNotFound.
	GetCurrentProfile(ctx context.Context, userID int64) (*models.SkinProfile, error)
	// ListActiveRules возвращает активные правила.
	ListActiveRules(ctx context.Context) ([]models.Rule, error)
	// ListProducts возвращает продукты каталога по фильтру.
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	// GetExistingResult возвращает подбор для пары (userID, profileID) или models.ErrResultNotFound.
	GetExistingResult(ctx context.Context, userID int64, profileID string) (*models.RecommendationResult, error)
	// SaveResult сохраняет подбор с перезаписью и возвращает сохранённую запись.
	SaveResult(ctx context.Context, result models.RecommendationResult) (models.RecommendationResult, error)
}

// Cache кэш снимков правил и каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher отправка событий в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// ReadyEvent событие о сохранённом подборе.
type ReadyEvent struct {
	ResultID       string   `json:"result_id"`
	UserID         int64    `json:"user_id"`
	ProfileID      string   `json:"profile_id"`
	ProfileVersion int      `json:"profile_version"`
	RuleID         *string  `json:"rule_id"`
	ProductCount   int      `json:"product_count"`
	EmptySteps     []string `json:"empty_steps,omitempty"`
}

// Service сервис подбора ухода.
type Service struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	selector  *matching.Selector
	assembler *matching.Assembler
	cacheTTL  time.Duration
	log       *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService создает сервис. publisher может быть nil, тогда события не публикуются.
func NewService(repo Repository, cache Cache, publisher Publisher, selector *matching.Selector, cacheTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		selector:  selector,
		assembler: matching.NewAssembler(log, selector),
		cacheTTL:  cacheTTL,
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Match возвращает подбор для профиля. Без forceRebuild отдаёт сохранённый результат для
// (userID, profileID), если он есть. Иначе подбирает заново и перезаписывает.
func (s *Service) Match(ctx context.Context, profile *models.SkinProfile, forceRebuild bool) (models.RecommendationResult, error) {
	const op = "services.recommendation.Match"
	if profile == nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, models.ErrProfileNotFound)
	}

	if !forceRebuild {
		existing, err := s.repo.GetExistingResult(ctx, profile.UserID, profile.ID)
		switch {
		case err == nil:
			metrics.ObserveMatch(metrics.OutcomeCached, time.Now())
			return *existing, nil
		case !errors.Is(err, models.ErrResultNotFound):
			metrics.ObserveMatch(metrics.OutcomeError, time.Now())
			return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	result, err := s.rebuild(ctx, *profile)
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MatchForUser берёт текущий профиль пользователя и подбирает для него уход.
// Сохранённый подбор для другой версии профиля считается устаревшим и пересобирается.
func (s *Service) MatchForUser(ctx context.Context, userID int64, forceRebuild bool) (models.RecommendationResult, error) {
	const op = "services.recommendation.MatchForUser"
	profile, err := s.repo.GetCurrentProfile(ctx, userID)
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result, err := s.matchProfile(ctx, profile, forceRebuild)
	if err != nil {
		return models.RecommendationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) matchProfile(ctx context.Context, profile *models.SkinProfile, forceRebuild bool) (models.RecommendationResult, error) {
	if profile == nil {
		return models.RecommendationResult{}, models.ErrProfileNotFound
	}
	if forceRebuild {
		return s.Match(ctx, profile, true)
	}

	existing, err := s.repo.GetExistingResult(ctx, profile.UserID, profile.ID)
	switch {
	case err == nil && existing.ProfileVersion == profile.Version:
		metrics.ObserveMatch(metrics.OutcomeCached, time.Now())
		return *existing, nil
	case err == nil:
		s.log.Info("stored recommendation is stale, rebuilding",
			slog.Int64("user_id", profile.UserID),
			slog.Int("stored_version", existing.ProfileVersion),
			slog.Int("profile_version", profile.Version),
		)
	case !errors.Is(err, models.ErrResultNotFound):
		return models.RecommendationResult{}, err
	}
	return s.Match(ctx, profile, true)
}

// BuildPlan строит 28-дневный план по подбору. Сведения о продуктах берутся из всего каталога,
// включая снятые с публикации позиции.
func (s *Service) BuildPlan(ctx context.Context, result models.RecommendationResult, profile models.SkinProfile) (models.Plan28, error) {
	const op = "services.recommendation.BuildPlan"
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return models.Plan28{}, fmt.Errorf("%s: %w", op, err)
	}
	index := plan.ProductIndex(matching.Snapshot(catalog).ByID())
	return plan.NewBuilder(index).Build(result, profile), nil
}

// PlanForUser подбор для текущего профиля и план по нему.
func (s *Service) PlanForUser(ctx context.Context, userID int64) (models.Plan28, error) {
	const op = "services.recommendation.PlanForUser"
	profile, err := s.repo.GetCurrentProfile(ctx, userID)
	if err != nil {
		return models.Plan28{}, fmt.Errorf("%s: %w", op, err)
	}
	result, err := s.matchProfile(ctx, profile, false)
	if err != nil {
		return models.Plan28{}, fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.BuildPlan(ctx, result, *profile)
	if err != nil {
		return models.Plan28{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// InvalidateCatalog сбрасывает кэшированные снимки правил и каталога.
func (s *Service) InvalidateCatalog(ctx context.Context) error {
	const op = "services.recommendation.InvalidateCatalog"
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, cache.KeyActiveRules, cache.KeyCatalog); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("catalog cache invalidated")
	return nil
}

func (s *Service) rebuild(ctx context.Context, profile models.SkinProfile) (models.RecommendationResult, error) {
	started := time.Now()

	var (
		rules   []models.Rule
		catalog []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rules, err = s.loadRules(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.loadCatalog(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.ObserveMatch(metrics.OutcomeError, started)
		return models.RecommendationResult{}, err
	}

	selected := s.selector.Select(profile, rules)
	assembly := s.assembler.Assemble(profile, selected, matching.Snapshot(catalog))

	result := assembly.Result
	result.ID = s.newID()
	result.CreatedAt = s.now().UTC()

	saved, err := s.repo.SaveResult(ctx, result)
	if err != nil {
		metrics.ObserveMatch(metrics.OutcomeError, started)
		return models.RecommendationResult{}, err
	}

	outcome := metrics.OutcomeRule
	if assembly.Rule.IsFallback {
		outcome = metrics.OutcomeFallback
	}
	metrics.ObserveMatch(outcome, started)
	metrics.ObserveEmptySteps(assembly.EmptySteps())

	s.log.Info("recommendation built",
		slog.Int64("user_id", saved.UserID),
		slog.String("profile_id", saved.ProfileID),
		slog.String("rule_id", assembly.Rule.Rule.ID),
		slog.Bool("fallback", assembly.Rule.IsFallback),
		slog.Int("products", len(saved.ProductIDs)),
	)

	s.publishReady(ctx, saved, assembly.EmptySteps())
	return saved, nil
}

func (s *Service) publishReady(ctx context.Context, result models.RecommendationResult, emptySteps []string) {
	if s.publisher == nil {
		return
	}
	event := ReadyEvent{
		ResultID:       result.ID,
		UserID:         result.UserID,
		ProfileID:      result.ProfileID,
		ProfileVersion: result.ProfileVersion,
		RuleID:         result.RuleID,
		ProductCount:   len(result.ProductIDs),
		EmptySteps:     emptySteps,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingRecommendationReady, event); err != nil {
		s.log.Warn("failed to publish recommendation event", slog.String("result_id", result.ID), sl.Err(err))
	}
}

func (s *Service) loadRules(ctx context.Context) ([]models.Rule, error) {
	const op = "services.recommendation.loadRules"
	var rules []models.Rule
	if s.fromCache(ctx, cache.KeyActiveRules, &rules) {
		return rules, nil
	}

	rules, err := s.repo.ListActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, cache.KeyActiveRules, rules)
	return rules, nil
}

func (s *Service) loadCatalog(ctx context.Context) ([]models.Product, error) {
	const op = "services.recommendation.loadCatalog"
	var products []models.Product
	if s.fromCache(ctx, cache.KeyCatalog, &products) {
		return products, nil
	}

	products, err := s.repo.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, cache.KeyCatalog, products)
	return products, nil
}

// fromCache ошибки кэша не фатальны, запрос уходит в хранилище.
func (s *Service) fromCache(ctx context.Context, key string, out any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, out)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
		return false
	}
	metrics.ObserveCache(key, found)
	return found
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache snapshot", slog.String("key", key), sl.Err(err))
	}
}
