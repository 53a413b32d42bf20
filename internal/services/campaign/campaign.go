// Package services содержит логику кампаний: продукты, креаторы,
// дополнительные расходы и расчёт стоимости.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/ugc-tracker/internal/cache"
	"github.com/magabrotheeeer/ugc-tracker/internal/cost"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	"github.com/magabrotheeeer/ugc-tracker/internal/storage/repository"
)

// DateLayout формат дат кампании во входящих запросах.
const DateLayout = "02-01-2006"

var (
	// ErrNotFound кампания, продукт или креатор не найдены у пользователя.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDates даты кампании некорректны.
	ErrInvalidDates = errors.New("invalid campaign dates")
)

// CampaignRepository хранилище кампаний.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, c models.Campaign) (int64, error)
	GetCampaign(ctx context.Context, userUID string, id int64) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, userUID string) ([]*models.Campaign, error)
	CreateProduct(ctx context.Context, p models.Product) (int64, error)
	ListProducts(ctx context.Context, userUID string) ([]*models.Product, error)
	CreateCreator(ctx context.Context, c models.Creator) (int64, error)
	ListCreators(ctx context.Context, userUID string) ([]*models.Creator, error)
	AttachProduct(ctx context.Context, userUID string, campaignID, productID int64) error
	AssignCreator(ctx context.Context, userUID string, campaignID, creatorID int64) error
	AddExpense(ctx context.Context, userUID string, e models.CampaignExpense) (int64, error)
	ListExpenses(ctx context.Context, userUID string, campaignID int64) ([]*models.CampaignExpense, error)
	CampaignCostInputs(ctx context.Context, userUID string, campaignID int64) (*models.CampaignCostInputs, error)
}

// Cache кэш агрегатов стоимости.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// cachedCost агрегат стоимости вместе с владельцем кампании.
type cachedCost struct {
	UserID    string         `json:"user_id"`
	Breakdown cost.Breakdown `json:"breakdown"`
}

// CampaignService бизнес-логика кампаний.
type CampaignService struct {
	repo  CampaignRepository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCampaignService создает новый экземпляр CampaignService.
func NewCampaignService(repo CampaignRepository, cache Cache, ttl time.Duration, log *slog.Logger) *CampaignService {
	return &CampaignService{repo: repo, cache: cache, ttl: ttl, log: log}
}

// CreateCampaign создаёт кампанию пользователя.
func (s *CampaignService) CreateCampaign(ctx context.Context, userID string, in models.DummyCampaign) (int64, error) {
	const op = "services.campaign.CreateCampaign"
	status, err := models.ParseCampaignStatus(in.Status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	start, err := parseDate(in.StartDate)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if start != nil && end != nil && end.Before(*start) {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidDates)
	}

	id, err := s.repo.CreateCampaign(ctx, models.Campaign{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Status:    status,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetCampaign возвращает кампанию пользователя.
func (s *CampaignService) GetCampaign(ctx context.Context, userID string, id int64) (*models.Campaign, error) {
	const op = "services.campaign.GetCampaign"
	c, err := s.repo.GetCampaign(ctx, userID, id)
	if err != nil {
		return nil, wrap(op, err)
	}
	return c, nil
}

// ListCampaigns возвращает кампании пользователя.
func (s *CampaignService) ListCampaigns(ctx context.Context, userID string) ([]*models.Campaign, error) {
	const op = "services.campaign.ListCampaigns"
	list, err := s.repo.ListCampaigns(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return list, nil
}

// CreateProduct создаёт продукт.
func (s *CampaignService) CreateProduct(ctx context.Context, userID string, in models.DummyProduct) (int64, error) {
	const op = "services.campaign.CreateProduct"
	id, err := s.repo.CreateProduct(ctx, models.Product{UserID: userID, Name: strings.TrimSpace(in.Name), CostPrice: in.CostPrice})
	if err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// ListProducts возвращает продукты пользователя.
func (s *CampaignService) ListProducts(ctx context.Context, userID string) ([]*models.Product, error) {
	const op = "services.campaign.ListProducts"
	list, err := s.repo.ListProducts(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return list, nil
}

// CreateCreator создаёт креатора.
func (s *CampaignService) CreateCreator(ctx context.Context, userID string, in models.DummyCreator) (int64, error) {
	const op = "services.campaign.CreateCreator"
	id, err := s.repo.CreateCreator(ctx, models.Creator{
		UserID:   userID,
		Name:     strings.TrimSpace(in.Name),
		Handle:   strings.TrimSpace(in.Handle),
		Platform: strings.ToLower(strings.TrimSpace(in.Platform)),
		Email:    strings.TrimSpace(in.Email),
	})
	if err != nil {
		return 0, wrap(op, err)
	}
	return id, nil
}

// ListCreators возвращает креаторов пользователя.
func (s *CampaignService) ListCreators(ctx context.Context, userID string) ([]*models.Creator, error) {
	const op = "services.campaign.ListCreators"
	list, err := s.repo.ListCreators(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return list, nil
}

// AttachProduct привязывает продукт к кампании.
func (s *CampaignService) AttachProduct(ctx context.Context, userID string, campaignID, productID int64) error {
	const op = "services.campaign.AttachProduct"
	if err := s.repo.AttachProduct(ctx, userID, campaignID, productID); err != nil {
		return wrap(op, err)
	}
	s.invalidateCost(ctx, campaignID)
	return nil
}

// AssignCreator назначает креатора на кампанию.
func (s *CampaignService) AssignCreator(ctx context.Context, userID string, campaignID, creatorID int64) error {
	const op = "services.campaign.AssignCreator"
	if err := s.repo.AssignCreator(ctx, userID, campaignID, creatorID); err != nil {
		return wrap(op, err)
	}
	s.invalidateCost(ctx, campaignID)
	return nil
}

// AddExpense добавляет дополнительный расход. Сумма сохраняется как есть;
// некорректные значения не учитываются при расчёте стоимости.
func (s *CampaignService) AddExpense(ctx context.Context, userID string, campaignID int64, in models.DummyExpense) (int64, error) {
	const op = "services.campaign.AddExpense"
	id, err := s.repo.AddExpense(ctx, userID, models.CampaignExpense{
		CampaignID:  campaignID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
	})
	if err != nil {
		return 0, wrap(op, err)
	}
	s.invalidateCost(ctx, campaignID)
	return id, nil
}

// ListExpenses возвращает расходы кампании.
func (s *CampaignService) ListExpenses(ctx context.Context, userID string, campaignID int64) ([]*models.CampaignExpense, error) {
	const op = "services.campaign.ListExpenses"
	list, err := s.repo.ListExpenses(ctx, userID, campaignID)
	if err != nil {
		return nil, wrap(op, err)
	}
	return list, nil
}

// Cost считает стоимость кампании. Результат кэшируется до следующего
// изменения продуктов, креаторов или расходов кампании.
func (s *CampaignService) Cost(ctx context.Context, userID string, campaignID int64) (cost.Breakdown, error) {
	const op = "services.campaign.Cost"
	key := cache.CostKey(campaignID)

	var cached cachedCost
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("cost cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found && cached.UserID == userID {
		return cached.Breakdown, nil
	}

	in, err := s.repo.CampaignCostInputs(ctx, userID, campaignID)
	if err != nil {
		return cost.Breakdown{}, wrap(op, err)
	}

	products := make([]cost.ProductCost, 0, len(in.ProductCosts))
	for _, p := range in.ProductCosts {
		products = append(products, cost.ProductCost{CostPrice: p})
	}
	expenses := make([]cost.Expense, 0, len(in.Expenses))
	for _, e := range in.Expenses {
		expenses = append(expenses, cost.Expense{Amount: e})
	}
	b := cost.Aggregate(products, in.CreatorCount, expenses)

	if err = s.cache.Set(ctx, key, cachedCost{UserID: userID, Breakdown: b}, s.ttl); err != nil {
		s.log.Warn("cost cache write failed", slog.String("op", op), sl.Err(err))
	}
	return b, nil
}

func (s *CampaignService) invalidateCost(ctx context.Context, campaignID int64) {
	if err := s.cache.Invalidate(ctx, cache.CostKey(campaignID)); err != nil {
		s.log.Warn("cost cache invalidation failed", slog.Int64("campaign_id", campaignID), sl.Err(err))
	}
}

func parseDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDates, err)
	}
	return &t, nil
}

func wrap(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
