// Package receipt реализует HTTP-обработчики квитанций об оплате:
// загрузку пользователем и рассмотрение администратором.
package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/ugc-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ugc-tracker/internal/http/response"
	"github.com/magabrotheeeer/ugc-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/ugc-tracker/internal/models"
	services "github.com/magabrotheeeer/ugc-tracker/internal/services/receipt"
)

const (
	defaultLimit = 50
	maxLimit     = 200
	// multipartOverhead запас на служебные части multipart-формы.
	multipartOverhead = 1 << 20
)

// Service бизнес-логика квитанций.
type Service interface {
	Upload(ctx context.Context, in services.Upload) (*models.PaymentReceipt, error)
	ListMine(ctx context.Context, userID string) ([]*models.PaymentReceipt, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.PaymentReceipt, error)
	Decide(ctx context.Context, id int64, status models.ReceiptStatus, reviewerID string) (*models.PaymentReceipt, error)
	ViewURL(ctx context.Context, id int64) (string, time.Time, error)
}

// DecisionRequest решение администратора по квитанции.
type DecisionRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// Handler обрабатывает запросы квитанций.
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

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Upload godoc
// @Summary Загрузка квитанции
// @Description Принимает multipart-форму: file (изображение или PDF до 10 МиБ) и amount.
// @Tags Receipts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл квитанции"
// @Param amount formData number false "Сумма оплаты"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 415 {object} response.ErrorResponse
// @Router /api/v1/receipts [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipt.Upload")

	s, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxReceiptSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.Status(r, http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("receipt file is too large"))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var amount float64
	if v := r.FormValue("amount"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error("field amount must be a non-negative number"))
			return
		}
		amount = parsed
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		log.Error("receipt file missing", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field file is a required field"))
		return
	}
	defer file.Close()

	rec, err := h.service.Upload(r.Context(), services.Upload{
		UserID:      s.UserID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Amount:      amount,
		Body:        file,
	})
	switch {
	case errors.Is(err, services.ErrFileTooLarge):
		render.Status(r, http.StatusRequestEntityTooLarge)
		render.JSON(w, r, response.Error("receipt file must be between 1 byte and 10 MiB"))
		return
	case errors.Is(err, services.ErrUnsupportedFile):
		render.Status(r, http.StatusUnsupportedMediaType)
		render.JSON(w, r, response.Error("receipt must be an image or PDF"))
		return
	case err != nil:
		log.Error("failed to upload receipt", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to upload receipt"))
		return
	}

	log.Info("receipt uploaded", slog.Int64("receipt_id", rec.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(rec))
}

// Mine godoc
// @Summary Мои квитанции
// @Tags Receipts
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/receipts [get]
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipt.Mine")

	s, ok := middlewarectx.SessionFrom(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}
	list, err := h.service.ListMine(r.Context(), s.UserID)
	if err != nil {
		log.Error("failed to list receipts", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list receipts"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{"receipts": list}))
}

// Pending godoc
// @Summary Квитанции на рассмотрении
// @Tags Admin
// @Produce json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/receipts [get]
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipt.Pending")

	limit, offset, err := paging(r)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	}
	list, err := h.service.ListPending(r.Context(), limit, offset)
	if err != nil {
		log.Error("failed to list pending receipts", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list receipts"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"receipts": list,
		"limit":    limit,
		"offset":   offset,
	}))
}

// Decide godoc
// @Summary Решение по квитанции
// @Description approved выдаёт пожизненный доступ, rejected отклоняет квитанцию.
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "ID квитанции"
// @Param request body DecisionRequest true "Решение"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Решение уже принято"
// @Router /api/v1/admin/receipts/{id}/decision [post]
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipt.Decide")

	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	reviewer, _ := middlewarectx.SessionFrom(r.Context())

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	var reviewerID string
	if reviewer != nil {
		reviewerID = reviewer.UserID
	}
	rec, err := h.service.Decide(r.Context(), id, models.ReceiptStatus(req.Status), reviewerID)
	switch {
	case errors.Is(err, services.ErrReceiptNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("receipt not found"))
		return
	case errors.Is(err, services.ErrReceiptNotPending):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("receipt is not pending"))
		return
	case err != nil:
		log.Error("failed to decide receipt", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to decide receipt"))
		return
	}

	log.Info("receipt decided", slog.Int64("receipt_id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.OKWithData(rec))
}

// View godoc
// @Summary Ссылка на файл квитанции
// @Description Выдаёт ограниченную по времени ссылку на просмотр файла.
// @Tags Admin
// @Produce json
// @Param id path int true "ID квитанции"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /api/v1/admin/receipts/{id}/url [get]
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.receipt.View")

	id, ok := h.receiptID(w, r)
	if !ok {
		return
	}
	url, expires, err := h.service.ViewURL(r.Context(), id)
	if errors.Is(err, services.ErrReceiptNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("receipt not found"))
		return
	}
	if err != nil {
		log.Error("failed to presign receipt url", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to build receipt url"))
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"url":        url,
		"expires_at": expires,
	}))
}

func (h *Handler) receiptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return 0, false
	}
	return id, true
}

func paging(r *http.Request) (int, int, error) {
	limit, offset := defaultLimit, 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, errors.New("limit must be a positive integer")
		}
		limit = min(n, maxLimit)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, errors.New("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}
