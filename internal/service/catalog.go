package service

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/validation"
)

// CategoryInput содержит поля категории.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,slug,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Image       string `json:"image" validate:"max=500"`
}

// ProductInput содержит поля товара.
type ProductInput struct {
	Name        string              `json:"name" validate:"required,max=200"`
	Slug        string              `json:"slug" validate:"omitempty,slug,max=220"`
	Description string              `json:"description" validate:"max=5000"`
	Price       decimal.Decimal     `json:"price"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	CategoryID  *int64              `json:"categoryId" validate:"omitempty,gt=0"`
	Images      []string            `json:"images" validate:"dive,required,max=500"`
	InStock     *bool               `json:"inStock"`
	Featured    bool                `json:"featured"`
	Sizes       []string            `json:"sizes" validate:"dive,required,max=20"`
	Colors      []model.Color       `json:"colors" validate:"dive"`
}

// ProductQuery содержит параметры выборки каталога из строки запроса.
type ProductQuery struct {
	Category string
	Search   string
	Featured string
	MinPrice string
	MaxPrice string
	Sort     string
	Page     int
	Limit    int
}

// Slugify строит slug из произвольной строки: латиница и цифры в нижнем регистре через дефис.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func resolveSlug(slug, name string) (string, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if !validation.IsSlug(slug) {
		return "", invalid("slug must contain only lowercase letters, digits and dashes")
	}
	return slug, nil
}

// ListCategories возвращает все категории.
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.repo.ListCategories(ctx)
}

// GetCategory возвращает категорию по slug.
func (s *Service) GetCategory(ctx context.Context, slug string) (*model.Category, error) {
	return s.repo.GetCategoryBySlug(ctx, slug)
}

func (in CategoryInput) category() (model.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return model.Category{}, err
	}
	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return model.Category{}, err
	}
	return model.Category{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Image:       in.Image,
	}, nil
}

// CreateCategory создаёт категорию. Если slug не задан, он строится из названия.
func (s *Service) CreateCategory(ctx context.Context, actor model.Actor, in CategoryInput) (*model.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := in.category()
	if err != nil {
		return nil, err
	}
	return s.repo.CreateCategory(ctx, c)
}

// UpdateCategory перезаписывает категорию.
func (s *Service) UpdateCategory(ctx context.Context, actor model.Actor, id int64, in CategoryInput) (*model.Category, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	c, err := in.category()
	if err != nil {
		return nil, err
	}
	c.ID = id
	return s.repo.UpdateCategory(ctx, c)
}

// DeleteCategory удаляет категорию.
func (s *Service) DeleteCategory(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, id)
}

func parsePrice(name, v string) (decimal.NullDecimal, error) {
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, invalid("%s must be a non-negative number", name)
	}
	return decimal.NewNullDecimal(d), nil
}

// ListProducts возвращает страницу каталога по параметрам запроса.
func (s *Service) ListProducts(ctx context.Context, q ProductQuery) ([]model.Product, model.Pagination, error) {
	f := model.ProductFilter{
		CategorySlug: strings.TrimSpace(q.Category),
		Search:       strings.TrimSpace(q.Search),
	}

	if q.Featured != "" {
		featured, err := strconv.ParseBool(q.Featured)
		if err != nil {
			return nil, model.Pagination{}, invalid("featured must be true or false")
		}
		f.Featured = &featured
	}

	var err error
	if f.MinPrice, err = parsePrice("minPrice", q.MinPrice); err != nil {
		return nil, model.Pagination{}, err
	}
	if f.MaxPrice, err = parsePrice("maxPrice", q.MaxPrice); err != nil {
		return nil, model.Pagination{}, err
	}

	switch q.Sort {
	case "", model.SortNewest, model.SortPriceAsc, model.SortPriceDesc, model.SortName:
		f.Sort = q.Sort
	default:
		return nil, model.Pagination{}, invalid("sort must be one of: newest, price_asc, price_desc, name")
	}

	f.Page, f.Limit = normalizePage(q.Page, q.Limit, 12)
	products, total, err := s.repo.ListProducts(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	return products, model.NewPagination(f.Page, f.Limit, total), nil
}

// GetProduct возвращает товар по числовому идентификатору или slug.
func (s *Service) GetProduct(ctx context.Context, idOrSlug string) (*model.Product, error) {
	if id, err := strconv.ParseInt(idOrSlug, 10, 64); err == nil {
		return s.repo.GetProduct(ctx, id)
	}
	return s.repo.GetProductBySlug(ctx, idOrSlug)
}

func (in ProductInput) product() (model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return model.Product{}, err
	}
	if !in.Price.IsPositive() {
		return model.Product{}, invalid("price must be greater than 0")
	}
	if in.SalePrice.Valid && (in.SalePrice.Decimal.IsNegative() || in.SalePrice.Decimal.GreaterThan(in.Price)) {
		return model.Product{}, invalid("salePrice must be between 0 and price")
	}

	slug, err := resolveSlug(in.Slug, in.Name)
	if err != nil {
		return model.Product{}, err
	}

	inStock := true
	if in.InStock != nil {
		inStock = *in.InStock
	}

	return model.Product{
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Price:       in.Price.Round(2),
		SalePrice:   in.SalePrice,
		CategoryID:  in.CategoryID,
		Images:      in.Images,
		InStock:     inStock,
		Featured:    in.Featured,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
	}, nil
}

// CreateProduct создаёт товар. Если slug не задан, он строится из названия.
func (s *Service) CreateProduct(ctx context.Context, actor model.Actor, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := in.product()
	if err != nil {
		return nil, err
	}
	return s.repo.CreateProduct(ctx, p)
}

// UpdateProduct перезаписывает товар вместе с размерами и цветами.
func (s *Service) UpdateProduct(ctx context.Context, actor model.Actor, id int64, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := in.product()
	if err != nil {
		return nil, err
	}
	p.ID = id
	return s.repo.UpdateProduct(ctx, p)
}

// DeleteProduct удаляет товар.
func (s *Service) DeleteProduct(ctx context.Context, actor model.Actor, id int64) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	return s.repo.DeleteProduct(ctx, id)
}
