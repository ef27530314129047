package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/queue"
	"github.com/mmeshcher/fashion-store/internal/repository"
)

var (
	customer = model.Actor{UserID: 7, Email: "buyer@example.com"}
	admin    = model.Actor{UserID: 1, Email: "admin@example.com", IsAdmin: true}
)

// stubRepo реализует только методы, нужные тестам; вызов остальных приводит к панике.
type stubRepo struct {
	Repository

	createUser    *model.User
	createUserErr error

	user    *model.User
	userErr error

	updatedPassword []byte

	products map[int64]model.Product

	coupons map[string]model.Coupon

	cart        []model.CartItem
	addedLine   *model.OrderLine
	createdOrd  *model.Order
	createOrdEr error
	ordersPage  []model.Order
	orderFilter model.OrderFilter
	statusSet   model.OrderStatus

	subscribers []model.Subscriber

	settings     map[string]string
	upserted     map[string]string
	notifyUserID *int64
	notifyCount  int64

	pingErr error
}

func (s *stubRepo) CreateUser(_ context.Context, name, email string, hash []byte) (*model.User, error) {
	if s.createUserErr != nil {
		return nil, s.createUserErr
	}
	u := &model.User{ID: 10, Name: name, Email: email, PasswordHash: hash}
	s.createUser = u
	return u, nil
}

func (s *stubRepo) GetUserByEmail(context.Context, string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubRepo) GetUserByID(context.Context, int64) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubRepo) UpdatePassword(_ context.Context, _ int64, hash []byte) error {
	s.updatedPassword = hash
	return nil
}

func (s *stubRepo) GetProduct(_ context.Context, id int64) (*model.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *stubRepo) GetProductsByIDs(_ context.Context, ids []int64) (map[int64]model.Product, error) {
	res := make(map[int64]model.Product)
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

func (s *stubRepo) GetCouponByCode(_ context.Context, code string) (*model.Coupon, error) {
	c, ok := s.coupons[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *stubRepo) ListActiveCoupons(_ context.Context, now time.Time) ([]model.Coupon, error) {
	var res []model.Coupon
	for _, c := range s.coupons {
		if c.IsValid(now) {
			res = append(res, c)
		}
	}
	return res, nil
}

func (s *stubRepo) ListCartItems(context.Context, int64) ([]model.CartItem, error) {
	return s.cart, nil
}

func (s *stubRepo) AddCartItem(_ context.Context, userID int64, line model.OrderLine) (*model.CartItem, error) {
	s.addedLine = &line
	return &model.CartItem{ID: 1, UserID: userID, ProductID: line.ProductID, Quantity: line.Quantity}, nil
}

func (s *stubRepo) CreateOrder(_ context.Context, o model.Order) (*model.Order, error) {
	if s.createOrdEr != nil {
		return nil, s.createOrdEr
	}
	o.ID = 100
	s.createdOrd = &o
	s.cart = nil
	return &o, nil
}

func (s *stubRepo) ListOrders(_ context.Context, f model.OrderFilter) ([]model.Order, int64, error) {
	s.orderFilter = f
	return s.ordersPage, int64(len(s.ordersPage)), nil
}

func (s *stubRepo) UpdateOrderStatus(_ context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	s.statusSet = status
	return &model.Order{ID: id, Status: status}, nil
}

func (s *stubRepo) ListSubscribers(_ context.Context, onlyActive bool) ([]model.Subscriber, error) {
	var res []model.Subscriber
	for _, sub := range s.subscribers {
		if sub.IsActive || !onlyActive {
			res = append(res, sub)
		}
	}
	return res, nil
}

func (s *stubRepo) GetSettings(context.Context) (map[string]string, error) {
	return s.settings, nil
}

func (s *stubRepo) UpsertSettings(_ context.Context, values map[string]string) error {
	s.upserted = values
	if s.settings == nil {
		s.settings = map[string]string{}
	}
	for k, v := range values {
		s.settings[k] = v
	}
	return nil
}

func (s *stubRepo) CreateNotification(_ context.Context, userID *int64, _ model.Notification) (int64, error) {
	s.notifyUserID = userID
	return s.notifyCount, nil
}

func (s *stubRepo) Ping(context.Context) error { return s.pingErr }

func (s *stubRepo) Close() error { return nil }

func newTestService(repo *stubRepo, mail queue.Queue) *Service {
	svc := NewService(repo, mail, nil, nil)
	svc.now = func() time.Time { return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func mustHash(t *testing.T, password string) []byte {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestRegister(t *testing.T) {
	repo := &stubRepo{}
	mail := queue.NewMemoryQueue(4)
	svc := newTestService(repo, mail)

	u, err := svc.Register(context.Background(), RegisterInput{
		Name:     " Anna ",
		Email:    "Anna@Example.COM",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Anna", u.Name)
	assert.Equal(t, "anna@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword(repo.createUser.PasswordHash, []byte("secret1")))

	msg, err := mail.Dequeue(context.Background(), 10*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "anna@example.com", msg.To)
}

func TestRegister_Validation(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "no name", in: RegisterInput{Email: "a@b.io", Password: "secret1"}},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "nope", Password: "secret1"}},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@b.io", Password: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestRegister_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{createUserErr: repository.ErrEmailExists}
	svc := newTestService(repo, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	if !errors.Is(err, repository.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	hash := mustHash(t, "correct")

	tests := []struct {
		name     string
		user     *model.User
		userErr  error
		password string
		wantErr  error
	}{
		{name: "ok", user: &model.User{ID: 1, Email: "u@example.com", PasswordHash: hash}, password: "correct"},
		{name: "wrong password", user: &model.User{ID: 1, PasswordHash: hash}, password: "wrong", wantErr: ErrInvalidCredentials},
		{name: "unknown email", userErr: repository.ErrNotFound, password: "correct", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&stubRepo{user: tt.user, userErr: tt.userErr}, nil)

			u, err := svc.Login(context.Background(), LoginInput{Email: "u@example.com", Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), u.ID)
		})
	}
}

func TestChangePassword(t *testing.T) {
	repo := &stubRepo{user: &model.User{ID: customer.UserID, PasswordHash: mustHash(t, "old-pass")}}
	svc := newTestService(repo, nil)

	err := svc.ChangePassword(context.Background(), customer, PasswordInput{CurrentPassword: "bad", NewPassword: "new-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, repo.updatedPassword)

	err = svc.ChangePassword(context.Background(), customer, PasswordInput{CurrentPassword: "old-pass", NewPassword: "new-pass"})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword(repo.updatedPassword, []byte("new-pass")))
}

func TestAdminOperations_Forbidden(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)
	ctx := context.Background()

	calls := map[string]func() error{
		"ListUsers": func() error { _, _, err := svc.ListUsers(ctx, customer, 1, 10); return err },
		"CreateCategory": func() error {
			_, err := svc.CreateCategory(ctx, customer, CategoryInput{Name: "Dresses"})
			return err
		},
		"DeleteProduct":     func() error { return svc.DeleteProduct(ctx, customer, 1) },
		"UpdateOrderStatus": func() error { _, err := svc.UpdateOrderStatus(ctx, customer, 1, "SHIPPED"); return err },
		"ListAllOrders":     func() error { _, _, err := svc.ListAllOrders(ctx, customer, "", 1, 10); return err },
		"CreateCoupon":      func() error { _, err := svc.CreateCoupon(ctx, customer, CouponInput{}); return err },
		"ListAllBanners":    func() error { _, err := svc.ListAllBanners(ctx, customer); return err },
		"UpdateSettings": func() error {
			_, err := svc.UpdateSettings(ctx, customer, map[string]string{"a": "b"})
			return err
		},
		"SendNotification": func() error { _, err := svc.SendNotification(ctx, customer, NotificationInput{}); return err },
		"ListSubscribers":  func() error { _, err := svc.ListSubscribers(ctx, customer); return err },
		"SendNewsletter":   func() error { _, err := svc.SendNewsletter(ctx, customer, NewsletterInput{}); return err },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), ErrForbidden)
		})
	}
}

func TestHealth(t *testing.T) {
	svc := newTestService(&stubRepo{pingErr: errors.New("down")}, nil)
	assert.Error(t, svc.Health(context.Background()))

	svc = newTestService(&stubRepo{}, nil)
	assert.NoError(t, svc.Health(context.Background()))
}

func TestGetCart_ComputesTotals(t *testing.T) {
	repo := &stubRepo{cart: []model.CartItem{
		{ID: 1, Quantity: 2, Product: model.ProductSummary{Price: decimal.RequireFromString("10.50")}},
		{ID: 2, Quantity: 1, Product: model.ProductSummary{
			Price:     decimal.RequireFromString("40"),
			SalePrice: decimal.NewNullDecimal(decimal.RequireFromString("30")),
		}},
	}}
	svc := newTestService(repo, nil)

	cart, err := svc.GetCart(context.Background(), customer)
	require.NoError(t, err)

	assert.True(t, cart.Items[0].LineTotal.Equal(decimal.RequireFromString("21")))
	assert.True(t, cart.Items[1].LineTotal.Equal(decimal.RequireFromString("30")))
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("51")), cart.Subtotal.String())
}

func TestAddToCart_StockGate(t *testing.T) {
	repo := &stubRepo{products: map[int64]model.Product{
		1: {ID: 1, Name: "Dress", InStock: true},
		2: {ID: 2, Name: "Coat", InStock: false},
	}}
	svc := newTestService(repo, nil)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, customer, model.OrderLine{ProductID: 2, Quantity: 1})
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Nil(t, repo.addedLine)

	_, err = svc.AddToCart(ctx, customer, model.OrderLine{ProductID: 3, Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.AddToCart(ctx, customer, model.OrderLine{ProductID: 1, Quantity: 0})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	item, err := svc.AddToCart(ctx, customer, model.OrderLine{ProductID: 1, Quantity: 2, Size: " M "})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "M", repo.addedLine.Size)
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Summer Dresses":      "summer-dresses",
		"  T-Shirts & Tops  ": "t-shirts-tops",
		"Jeans 2026!":         "jeans-2026",
		"Платья":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestListProducts_ParsesQuery(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	_, _, err := svc.ListProducts(context.Background(), ProductQuery{Sort: "random"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.ListProducts(context.Background(), ProductQuery{MinPrice: "abc"})
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.ListProducts(context.Background(), ProductQuery{Featured: "maybe"})
	assert.ErrorAs(t, err, &verr)
}
