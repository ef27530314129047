// Package handler содержит HTTP-обработчики API интернет-магазина.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/fashion-store/internal/middleware"
	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/repository"
	"github.com/mmeshcher/fashion-store/internal/service"
	"github.com/mmeshcher/fashion-store/internal/storage"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Health(ctx context.Context) error

	Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
	Login(ctx context.Context, in service.LoginInput) (*model.User, error)
	Me(ctx context.Context, actor model.Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, actor model.Actor, in service.ProfileInput) (*model.User, error)
	ChangePassword(ctx context.Context, actor model.Actor, in service.PasswordInput) error
	ListUsers(ctx context.Context, actor model.Actor, page, limit int) ([]model.User, model.Pagination, error)

	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, slug string) (*model.Category, error)
	CreateCategory(ctx context.Context, actor model.Actor, in service.CategoryInput) (*model.Category, error)
	UpdateCategory(ctx context.Context, actor model.Actor, id int64, in service.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor model.Actor, id int64) error
	ListProducts(ctx context.Context, q service.ProductQuery) ([]model.Product, model.Pagination, error)
	GetProduct(ctx context.Context, idOrSlug string) (*model.Product, error)
	CreateProduct(ctx context.Context, actor model.Actor, in service.ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor model.Actor, id int64, in service.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, actor model.Actor, id int64) error

	GetCart(ctx context.Context, actor model.Actor) (*model.Cart, error)
	AddToCart(ctx context.Context, actor model.Actor, line model.OrderLine) (*model.CartItem, error)
	UpdateCartItem(ctx context.Context, actor model.Actor, id int64, in service.CartQuantityInput) (*model.CartItem, error)
	RemoveCartItem(ctx context.Context, actor model.Actor, id int64) error
	ClearCart(ctx context.Context, actor model.Actor) error
	ListWishlist(ctx context.Context, actor model.Actor) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, actor model.Actor, in service.WishlistInput) error
	RemoveFromWishlist(ctx context.Context, actor model.Actor, productID int64) error

	PlaceOrder(ctx context.Context, actor model.Actor, in service.PlaceOrderInput) (*model.Order, error)
	ListMyOrders(ctx context.Context, actor model.Actor) ([]model.Order, error)
	GetOrder(ctx context.Context, actor model.Actor, id int64) (*model.Order, error)
	ListAllOrders(ctx context.Context, actor model.Actor, status string, page, limit int) ([]model.Order, model.Pagination, error)
	UpdateOrderStatus(ctx context.Context, actor model.Actor, id int64, status string) (*model.Order, error)

	ListActiveCoupons(ctx context.Context) ([]model.Coupon, error)
	ValidateCoupon(ctx context.Context, code string) (*model.Coupon, error)
	ListCoupons(ctx context.Context, actor model.Actor) ([]model.Coupon, error)
	CreateCoupon(ctx context.Context, actor model.Actor, in service.CouponInput) (*model.Coupon, error)
	UpdateCoupon(ctx context.Context, actor model.Actor, id int64, in service.CouponInput) (*model.Coupon, error)
	DeleteCoupon(ctx context.Context, actor model.Actor, id int64) error

	ListAddresses(ctx context.Context, actor model.Actor) ([]model.Address, error)
	CreateAddress(ctx context.Context, actor model.Actor, in service.AddressInput) (*model.Address, error)
	UpdateAddress(ctx context.Context, actor model.Actor, id int64, in service.AddressInput) (*model.Address, error)
	DeleteAddress(ctx context.Context, actor model.Actor, id int64) error
	SetDefaultAddress(ctx context.Context, actor model.Actor, id int64) (*model.Address, error)

	ListBanners(ctx context.Context) ([]model.Banner, error)
	ListAllBanners(ctx context.Context, actor model.Actor) ([]model.Banner, error)
	CreateBanner(ctx context.Context, actor model.Actor, in service.BannerInput) (*model.Banner, error)
	UpdateBanner(ctx context.Context, actor model.Actor, id int64, in service.BannerInput) (*model.Banner, error)
	DeleteBanner(ctx context.Context, actor model.Actor, id int64) error

	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, actor model.Actor, values map[string]string) (map[string]string, error)

	ListNotifications(ctx context.Context, actor model.Actor) (*service.NotificationList, error)
	MarkNotificationRead(ctx context.Context, actor model.Actor, id int64) error
	MarkAllNotificationsRead(ctx context.Context, actor model.Actor) error
	DeleteNotification(ctx context.Context, actor model.Actor, id int64) error
	SendNotification(ctx context.Context, actor model.Actor, in service.NotificationInput) (int64, error)

	Subscribe(ctx context.Context, in service.SubscribeInput) (*model.Subscriber, error)
	Unsubscribe(ctx context.Context, in service.SubscribeInput) error
	ListSubscribers(ctx context.Context, actor model.Actor) ([]model.Subscriber, error)
	SendNewsletter(ctx context.Context, actor model.Actor, in service.NewsletterInput) (*service.NewsletterResult, error)
}

// Uploader сохраняет загруженное изображение и возвращает ссылку на него.
type Uploader interface {
	SaveImage(ctx context.Context, data []byte) (string, error)
}

// Handler реализует HTTP-обработчики API магазина.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	uploader       Uploader
	maxUploadBytes int64
	serviceName    string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, uploader Uploader, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
		serviceName:    "fashion-store",
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError переводит ошибку сервиса в HTTP-статус. Неизвестные ошибки логируются и отдаются как 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrOutOfStock),
		errors.Is(err, service.ErrInvalidCoupon),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, storage.ErrNotImage),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, repository.ErrSlugExists),
		errors.Is(err, repository.ErrCouponCodeExists),
		errors.Is(err, repository.ErrAlreadyInWishlist),
		errors.Is(err, repository.ErrAlreadySubscribed):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		fields := []zap.Field{zap.Error(err)}
		if actor, ok := middleware.ActorFromContext(r.Context()); ok {
			fields = append(fields, zap.Int64("userID", actor.UserID))
		}
		h.logger.Error(op+" error", fields...)
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func actorFrom(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "authentication required")
	}
	return actor, ok
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// Health проверяет доступность сервиса и базы данных.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		h.logger.Error("health check error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
