package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category описывает раздел каталога.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Color описывает вариант цвета товара.
type Color struct {
	Name string `json:"name" validate:"required"`
	Hex  string `json:"hex" validate:"omitempty,hexcolor"`
}

// Product описывает товар каталога вместе с доступными размерами и цветами.
type Product struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	CategoryID  *int64              `json:"categoryId"`
	Images      []string            `json:"images"`
	InStock     bool                `json:"inStock"`
	Featured    bool                `json:"featured"`
	Sizes       []string            `json:"sizes"`
	Colors      []Color             `json:"colors"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// UnitPrice возвращает действующую цену товара: цену со скидкой, если она задана, иначе базовую.
func (p Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// ProductSummary содержит краткие сведения о товаре для корзины и избранного.
type ProductSummary struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Slug      string              `json:"slug"`
	Image     string              `json:"image"`
	Price     decimal.Decimal     `json:"price"`
	SalePrice decimal.NullDecimal `json:"salePrice"`
	InStock   bool                `json:"inStock"`
}

// UnitPrice возвращает действующую цену товара.
func (p ProductSummary) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// ProductFilter задаёт условия выборки товаров каталога.
type ProductFilter struct {
	CategorySlug string
	Search       string
	Featured     *bool
	MinPrice     decimal.NullDecimal
	MaxPrice     decimal.NullDecimal
	Sort         string
	Page         int
	Limit        int
}

// Варианты сортировки каталога.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
)

// CartItem описывает позицию корзины пользователя.
type CartItem struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Product   ProductSummary  `json:"product"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Cart содержит позиции корзины и их сумму.
type Cart struct {
	Items    []CartItem      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// WishlistItem описывает товар из списка избранного.
type WishlistItem struct {
	ID        int64          `json:"id"`
	ProductID int64          `json:"productId"`
	Product   ProductSummary `json:"product"`
	CreatedAt time.Time      `json:"createdAt"`
}
