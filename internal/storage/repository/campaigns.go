package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// CreateCampaign сохраняет кампанию и возвращает её ID.
func (s *Storage) CreateCampaign(ctx context.Context, c models.Campaign) (int64, error) {
	const op = "storage.CreateCampaign"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}

	query := `INSERT INTO campaigns (user_uid, name, status, start_date, end_date)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int64
	if err := s.DB.QueryRowContext(ctx, query, c.UserID, c.Name, c.Status, c.StartDate, c.EndDate).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetCampaign возвращает кампанию пользователя по ID.
func (s *Storage) GetCampaign(ctx context.Context, userUID string, id int64) (*models.Campaign, error) {
	const op = "storage.GetCampaign"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, user_uid, name, status, start_date, end_date, created_at
			  FROM campaigns
			  WHERE id = $1 AND user_uid = $2`
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, query, id, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListCampaigns возвращает кампании пользователя, новые первыми.
func (s *Storage) ListCampaigns(ctx context.Context, userUID string) ([]*models.Campaign, error) {
	const op = "storage.ListCampaigns"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, user_uid, name, status, start_date, end_date, created_at
			  FROM campaigns
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateProduct сохраняет продукт и возвращает его ID.
func (s *Storage) CreateProduct(ctx context.Context, p models.Product) (int64, error) {
	const op = "storage.CreateProduct"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO products (user_uid, name, cost_price) VALUES ($1, $2, $3) RETURNING id`,
		p.UserID, p.Name, p.CostPrice).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListProducts возвращает продукты пользователя.
func (s *Storage) ListProducts(ctx context.Context, userUID string) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_uid, name, cost_price FROM products WHERE user_uid = $1 ORDER BY id`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Product
	for rows.Next() {
		var p models.Product
		if err = rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CostPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateCreator сохраняет креатора и возвращает его ID.
func (s *Storage) CreateCreator(ctx context.Context, c models.Creator) (int64, error) {
	const op = "storage.CreateCreator"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO creators (user_uid, name, handle, platform, email)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		c.UserID, c.Name, c.Handle, c.Platform, c.Email).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListCreators возвращает креаторов пользователя.
func (s *Storage) ListCreators(ctx context.Context, userUID string) ([]*models.Creator, error) {
	const op = "storage.ListCreators"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_uid, name, handle, platform, email FROM creators WHERE user_uid = $1 ORDER BY id`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Creator
	for rows.Next() {
		var c models.Creator
		if err = rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Handle, &c.Platform, &c.Email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AttachProduct связывает продукт с кампанией. Обе записи должны принадлежать userUID.
func (s *Storage) AttachProduct(ctx context.Context, userUID string, campaignID, productID int64) error {
	const op = "storage.AttachProduct"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	query := `INSERT INTO campaign_products (campaign_id, product_id)
			  SELECT c.id, p.id
			  FROM campaigns c, products p
			  WHERE c.id = $1 AND c.user_uid = $3 AND p.id = $2 AND p.user_uid = $3
			  ON CONFLICT DO NOTHING
			  RETURNING campaign_id`
	return s.link(ctx, op, query, `SELECT EXISTS (SELECT 1 FROM campaign_products WHERE campaign_id = $1 AND product_id = $2)`,
		campaignID, productID, userUID)
}

// AssignCreator назначает креатора на кампанию. Обе записи должны принадлежать userUID.
func (s *Storage) AssignCreator(ctx context.Context, userUID string, campaignID, creatorID int64) error {
	const op = "storage.AssignCreator"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	query := `INSERT INTO campaign_creators (campaign_id, creator_id)
			  SELECT c.id, cr.id
			  FROM campaigns c, creators cr
			  WHERE c.id = $1 AND c.user_uid = $3 AND cr.id = $2 AND cr.user_uid = $3
			  ON CONFLICT DO NOTHING
			  RETURNING campaign_id`
	return s.link(ctx, op, query, `SELECT EXISTS (SELECT 1 FROM campaign_creators WHERE campaign_id = $1 AND creator_id = $2)`,
		campaignID, creatorID, userUID)
}

// link вставляет связь; повторная вставка существующей связи не считается ошибкой.
func (s *Storage) link(ctx context.Context, op, insert, exists string, campaignID, otherID int64, userUID string) error {
	var id int64
	err := s.DB.QueryRowContext(ctx, insert, campaignID, otherID, userUID).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = s.GetCampaign(ctx, userUID, campaignID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var linked bool
	if err = s.DB.QueryRowContext(ctx, exists, campaignID, otherID).Scan(&linked); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !linked {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// AddExpense добавляет к кампании дополнительный расход.
func (s *Storage) AddExpense(ctx context.Context, userUID string, e models.CampaignExpense) (int64, error) {
	const op = "storage.AddExpense"
	if err := ctxDone(ctx, op); err != nil {
		return 0, err
	}
	query := `INSERT INTO campaign_expenses (campaign_id, description, amount)
			  SELECT c.id, $2, $3 FROM campaigns c WHERE c.id = $1 AND c.user_uid = $4
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query, e.CampaignID, e.Description, e.Amount, userUID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListExpenses возвращает расходы кампании пользователя.
func (s *Storage) ListExpenses(ctx context.Context, userUID string, campaignID int64) ([]*models.CampaignExpense, error) {
	const op = "storage.ListExpenses"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if _, err := s.GetCampaign(ctx, userUID, campaignID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, campaign_id, description, amount FROM campaign_expenses WHERE campaign_id = $1 ORDER BY id`,
		campaignID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CampaignExpense
	for rows.Next() {
		var e models.CampaignExpense
		if err = rows.Scan(&e.ID, &e.CampaignID, &e.Description, &e.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CampaignCostInputs собирает исходные данные для расчёта стоимости кампании:
// себестоимости привязанных продуктов, число креаторов и суммы расходов.
func (s *Storage) CampaignCostInputs(ctx context.Context, userUID string, campaignID int64) (*models.CampaignCostInputs, error) {
	const op = "storage.CampaignCostInputs"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	if _, err := s.GetCampaign(ctx, userUID, campaignID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	in := &models.CampaignCostInputs{}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT p.cost_price
		FROM campaign_products cp
		JOIN products p ON p.id = cp.product_id
		WHERE cp.campaign_id = $1
		ORDER BY p.id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for rows.Next() {
		var price float64
		if err = rows.Scan(&price); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		in.ProductCosts = append(in.ProductCosts, price)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT creator_id) FROM campaign_creators WHERE campaign_id = $1`,
		campaignID).Scan(&in.CreatorCount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expenses, err := s.DB.QueryContext(ctx,
		`SELECT amount FROM campaign_expenses WHERE campaign_id = $1 ORDER BY id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = expenses.Close()
	}()
	for expenses.Next() {
		var amount string
		if err = expenses.Scan(&amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		in.Expenses = append(in.Expenses, amount)
	}
	if err = expenses.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return in, nil
}

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var (
		c          models.Campaign
		start, end sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Status, &start, &end, &c.CreatedAt); err != nil {
		return nil, err
	}
	if start.Valid {
		c.StartDate = &start.Time
	}
	if end.Valid {
		c.EndDate = &end.Time
	}
	return &c, nil
}
