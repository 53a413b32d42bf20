// Package catalog реализует HTTP-обработчики справочников пользователя:
// продуктов и креаторов.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// Service справочники продуктов и креаторов.
type Service interface {
	CreateProduct(ctx context.Context, userID string, in models.DummyProduct) (int64, error)
	ListProducts(ctx context.Context, userID string) ([]*models.Product, error)
	CreateCreator(ctx context.Context, userID string, in models.DummyCreator) (int64, error)
	ListCreators(ctx context.Context, userID string) ([]*models.Creator, error)
}

// Handler обрабатывает запросы справочников.
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

func (h *Handler) begin(w http.ResponseWriter, r *http.Request, op string) (*slog.Logger, string, bool) {
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	s, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return nil, "", false
	}
	return log, s.UserID, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return false
	}
	return true
}

// CreateProduct godoc
// @Summary Создать продукт
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body models.DummyProduct true "Продукт"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/products [post]
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	log, uid, ok := h.begin(w, r, "handlers.catalog.CreateProduct")
	if !ok {
		return
	}
	var in models.DummyProduct
	if !h.decode(w, r, log, &in) {
		return
	}
	id, err := h.service.CreateProduct(r.Context(), uid, in)
	if err != nil {
		log.Error("failed to create product", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create product"))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}

// ListProducts godoc
// @Summary Список продуктов
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	log, uid, ok := h.begin(w, r, "handlers.catalog.ListProducts")
	if !ok {
		return
	}
	list, err := h.service.ListProducts(r.Context(), uid)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list products"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"products": list}))
}

// CreateCreator godoc
// @Summary Создать креатора
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body models.DummyCreator true "Креатор"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.ErrorResponse
// @Router /api/v1/creators [post]
func (h *Handler) CreateCreator(w http.ResponseWriter, r *http.Request) {
	log, uid, ok := h.begin(w, r, "handlers.catalog.CreateCreator")
	if !ok {
		return
	}
	var in models.DummyCreator
	if !h.decode(w, r, log, &in) {
		return
	}
	id, err := h.service.CreateCreator(r.Context(), uid, in)
	if err != nil {
		log.Error("failed to create creator", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create creator"))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}

// ListCreators godoc
// @Summary Список креаторов
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/creators [get]
func (h *Handler) ListCreators(w http.ResponseWriter, r *http.Request) {
	log, uid, ok := h.begin(w, r, "handlers.catalog.ListCreators")
	if !ok {
		return
	}
	list, err := h.service.ListCreators(r.Context(), uid)
	if err != nil {
		log.Error("failed to list creators", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list creators"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"creators": list}))
}
