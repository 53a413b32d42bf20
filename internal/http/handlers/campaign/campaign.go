// Package campaign реализует HTTP-обработчики кампаний: создание, просмотр,
// привязку продуктов и креаторов, расходы и расчёт стоимости.
//
// Все маршруты закрыты гейтом сессии и пейволлом; данные видны только
// владельцу кампании.
package campaign

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ugc-tracker/internal/cost"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/campaign"
)

// Service бизнес-логика кампаний.
type Service interface {
	CreateCampaign(ctx context.Context, userID string, in models.DummyCampaign) (int64, error)
	GetCampaign(ctx context.Context, userID string, id int64) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, userID string) ([]*models.Campaign, error)
	AttachProduct(ctx context.Context, userID string, campaignID, productID int64) error
	AssignCreator(ctx context.Context, userID string, campaignID, creatorID int64) error
	AddExpense(ctx context.Context, userID string, campaignID int64, in models.DummyExpense) (int64, error)
	ListExpenses(ctx context.Context, userID string, campaignID int64) ([]*models.CampaignExpense, error)
	Cost(ctx context.Context, userID string, campaignID int64) (cost.Breakdown, error)
}

// Handler обрабатывает запросы кампаний.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// request общие шаги всех обработчиков: логгер, пользователь, id кампании.
type request struct {
	log    *slog.Logger
	userID string
}

func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (request, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	s, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return request{}, false
	}
	return request{log: log, userID: s.UserID}, true
}

func campaignID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return false
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	return true
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("campaign not found"))
	case errors.Is(err, services.ErrInvalidDates):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("dates must be in format 02-01-2006 and end after start"))
	default:
		log.Error(msg, sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(msg))
	}
}

// Create godoc
// @Summary Создать кампанию
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param request body models.DummyCampaign true "Кампания"
// @Success 201 {object} response.Response
// @Failure 402 {object} response.Response "Пробный период истёк"
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/campaigns [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, "handlers.campaign.Create")
	if !ok {
		return
	}
	var in models.DummyCampaign
	if !h.decode(w, r, req.log, &in) {
		return
	}
	id, err := h.service.CreateCampaign(r.Context(), req.userID, in)
	if err != nil {
		fail(w, r, req.log, err, "failed to create campaign")
		return
	}
	req.log.Info("campaign created", slog.Int64("campaign_id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}

// List godoc
// @Summary Список кампаний
// @Tags Campaigns
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/campaigns [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, "handlers.campaign.List")
	if !ok {
		return
	}
	list, err := h.service.ListCampaigns(r.Context(), req.userID)
	if err != nil {
		fail(w, r, req.log, err, "failed to list campaigns")
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"campaigns": list}))
}

// Get godoc
// @Summary Кампания
// @Tags Campaigns
// @Produce json
// @Param id path int true "ID кампании"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, "handlers.campaign.Get")
	if !ok {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	c, err := h.service.GetCampaign(r.Context(), req.userID, id)
	if err != nil {
		fail(w, r, req.log, err, "failed to read campaign")
		return
	}
	render.JSON(w, r, response.OKWithData(c))
}

// AttachProduct godoc
// @Summary Привязать продукт
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "ID кампании"
// @Param request body models.DummyAttach true "ID продукта"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/products [post]
func (h *Handler) AttachProduct(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, "handlers.campaign.AttachProduct", h.service.AttachProduct)
}

// AssignCreator godoc
// @Summary Назначить креатора
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "ID кампании"
// @Param request body models.DummyAttach true "ID креатора"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/creators [post]
func (h *Handler) AssignCreator(w http.ResponseWriter, r *http.Request) {
	h.link(w, r, "handlers.campaign.AssignCreator", h.service.AssignCreator)
}

func (h *Handler) link(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string, int64, int64) error) {
	req, ok := h.begin(w, r, op)
	if !ok {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var in models.DummyAttach
	if !h.decode(w, r, req.log, &in) {
		return
	}
	if err := fn(r.Context(), req.userID, id, in.ID); err != nil {
		fail(w, r, req.log, err, "failed to update campaign")
		return
	}
	render.JSON(w, r, response.OK())
}

// AddExpense godoc
// @Summary Добавить расход
// @Tags Campaigns
// @Accept json
// @Produce json
// @Param id path int true "ID кампании"
// @Param request body models.DummyExpense true "Расход"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/expenses [post]
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, "handlers.campaign.AddExpense")
	if !ok {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	var in models.DummyExpense
	if !h.decode(w, r, req.log, &in) {
		return
	}
	expenseID, err := h.service.AddExpense(r.Context(), req.userID, id, in)
	if err != nil {
		fail(w, r, req.log, err, "failed to add expense")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": expenseID}))
}

// ListExpenses godoc
// @Summary Расходы кампании
// @Tags Campaigns
// @Produce json
// @Param id path int true "ID кампании"
// @Success 200 {object} response.Response
// @Router /api/v1/campaigns/{id}/expenses [get]
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, "handlers.campaign.ListExpenses")
	if !ok {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListExpenses(r.Context(), req.userID, id)
	if err != nil {
		fail(w, r, req.log, err, "failed to list expenses")
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"expenses": list}))
}

// Cost godoc
// @Summary Стоимость кампании
// @Description Сумма себестоимости продуктов, умноженная на число креаторов, плюс дополнительные расходы. Значения с двумя знаками после запятой.
// @Tags Campaigns
// @Produce json
// @Param id path int true "ID кампании"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/campaigns/{id}/cost [get]
func (h *Handler) Cost(w http.ResponseWriter, r *http.Request) {
	req, ok := h.begin(w, r, "handlers.campaign.Cost")
	if !ok {
		return
	}
	id, ok := campaignID(w, r)
	if !ok {
		return
	}
	b, err := h.service.Cost(r.Context(), req.userID, id)
	if err != nil {
		fail(w, r, req.log, err, "failed to compute campaign cost")
		return
	}
	render.JSON(w, r, response.OKWithData(b.Formatted()))
}
