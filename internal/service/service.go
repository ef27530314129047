// Package service реализует бизнес-логику интернет-магазина одежды.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/queue"
	"github.com/mmeshcher/fashion-store/internal/validation"
)

var (
	// ErrOutOfStock возвращается, если товара нет в наличии.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrInvalidCoupon возвращается для неактивного или просроченного купона.
	ErrInvalidCoupon = errors.New("coupon is invalid or expired")
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrForbidden возвращается, если у пользователя нет прав на операцию.
	ErrForbidden = errors.New("admin access required")
	// ErrInvalidStatus возвращается для статуса заказа вне допустимого перечня.
	ErrInvalidStatus = errors.New("invalid order status")
)

// ValidationError описывает некорректные входные данные.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func validate(s any) error {
	if err := validation.Struct(s); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// UserRepository описывает хранение пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, name, email string, passwordHash []byte) (*model.User, error)
	EnsureAdmin(ctx context.Context, name, email string, passwordHash []byte) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, id int64, name, phone string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash []byte) error
	ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error)
}

// CatalogRepository описывает хранение категорий и товаров.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	CreateCategory(ctx context.Context, c model.Category) (*model.Category, error)
	UpdateCategory(ctx context.Context, c model.Category) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*model.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

// CartRepository описывает хранение корзины и избранного.
type CartRepository interface {
	ListCartItems(ctx context.Context, userID int64) ([]model.CartItem, error)
	AddCartItem(ctx context.Context, userID int64, line model.OrderLine) (*model.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, userID, id int64, quantity int) (*model.CartItem, error)
	DeleteCartItem(ctx context.Context, userID, id int64) error
	ClearCart(ctx context.Context, userID int64) error
	ListWishlist(ctx context.Context, userID int64) ([]model.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID int64) error
	RemoveFromWishlist(ctx context.Context, userID, productID int64) error
}

// OrderRepository описывает хранение заказов.
type OrderRepository interface {
	CreateOrder(ctx context.Context, o model.Order) (*model.Order, error)
	GetOrder(ctx context.Context, userID, id int64) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error)
}

// CouponRepository описывает хранение купонов.
type CouponRepository interface {
	ListActiveCoupons(ctx context.Context, now time.Time) ([]model.Coupon, error)
	ListCoupons(ctx context.Context) ([]model.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	CreateCoupon(ctx context.Context, c model.Coupon) (*model.Coupon, error)
	UpdateCoupon(ctx context.Context, c model.Coupon) (*model.Coupon, error)
	GetCoupon(ctx context.Context, id int64) (*model.Coupon, error)
	DeleteCoupon(ctx context.Context, id int64) error
}

// AddressRepository описывает адресную книгу пользователя.
type AddressRepository interface {
	ListAddresses(ctx context.Context, userID int64) ([]model.Address, error)
	GetAddress(ctx context.Context, userID, id int64) (*model.Address, error)
	CreateAddress(ctx context.Context, a model.Address) (*model.Address, error)
	UpdateAddress(ctx context.Context, a model.Address) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, id int64) error
	SetDefaultAddress(ctx context.Context, userID, id int64) (*model.Address, error)
}

// ContentRepository описывает хранение баннеров, настроек, уведомлений и подписчиков.
type ContentRepository interface {
	ListBanners(ctx context.Context, onlyActive bool) ([]model.Banner, error)
	GetBanner(ctx context.Context, id int64) (*model.Banner, error)
	CreateBanner(ctx context.Context, b model.Banner) (*model.Banner, error)
	UpdateBanner(ctx context.Context, b model.Banner) (*model.Banner, error)
	DeleteBanner(ctx context.Context, id int64) error
	GetSettings(ctx context.Context) (map[string]string, error)
	UpsertSettings(ctx context.Context, values map[string]string) error
	ListNotifications(ctx context.Context, userID int64) ([]model.Notification, int, error)
	CreateNotification(ctx context.Context, userID *int64, n model.Notification) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	DeleteNotification(ctx context.Context, userID, id int64) error
	Subscribe(ctx context.Context, email string) (*model.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context, onlyActive bool) ([]model.Subscriber, error)
}

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	UserRepository
	CatalogRepository
	CartRepository
	OrderRepository
	CouponRepository
	AddressRepository
	ContentRepository
	Ping(ctx context.Context) error
	Close() error
}

// Sender доставляет письмо получателю.
type Sender interface {
	Send(ctx context.Context, msg queue.Message) error
}

// Service содержит бизнес-логику магазина.
type Service struct {
	repo   Repository
	mail   queue.Queue
	sender Sender
	logger *zap.Logger
	now    func() time.Time
}

// NewService создаёт сервис с указанным репозиторием, очередью писем и отправителем.
func NewService(repo Repository, mail queue.Queue, sender Sender, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		mail:   mail,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// Health проверяет доступность базы данных.
func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func requireAdmin(actor model.Actor) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func normalizePage(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
