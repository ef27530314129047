package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/fashion-store/internal/model"
)

const categoryColumns = `id, name, slug, description, image, created_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories возвращает все категории каталога.
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	res := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// GetCategoryBySlug возвращает категорию по slug.
func (r *PostgresRepository) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound(err, "category")
	}
	return c, nil
}

// CreateCategory сохраняет новую категорию.
func (r *PostgresRepository) CreateCategory(ctx context.Context, c model.Category) (*model.Category, error) {
	res, err := scanCategory(r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug, description, image) VALUES ($1, $2, $3, $4)
		 RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description, c.Image,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugExists, c.Slug)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return res, nil
}

// UpdateCategory обновляет категорию.
func (r *PostgresRepository) UpdateCategory(ctx context.Context, c model.Category) (*model.Category, error) {
	res, err := scanCategory(r.pool.QueryRow(ctx,
		`UPDATE categories SET name = $2, slug = $3, description = $4, image = $5
		 WHERE id = $1 RETURNING `+categoryColumns,
		c.ID, c.Name, c.Slug, c.Description, c.Image,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugExists, c.Slug)
		}
		return nil, notFound(err, "category")
	}
	return res, nil
}

// DeleteCategory удаляет категорию; товары категории остаются без раздела.
func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category: %w", ErrNotFound)
	}
	return nil
}

const productColumns = `p.id, p.name, p.slug, p.description, p.price, p.sale_price, p.category_id,
	p.images, p.in_stock, p.featured, p.created_at, p.updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.SalePrice, &p.CategoryID,
		&p.Images, &p.InStock, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts возвращает страницу товаров по фильтру и общее число подходящих товаров.
func (r *PostgresRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, int64, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CategorySlug != "" {
		conds = append(conds, "c.slug = "+arg(f.CategorySlug))
	}
	if f.Search != "" {
		p := arg("%" + f.Search + "%")
		conds = append(conds, "(p.name ILIKE "+p+" OR p.description ILIKE "+p+")")
	}
	if f.Featured != nil {
		conds = append(conds, "p.featured = "+arg(*f.Featured))
	}
	if f.MinPrice.Valid {
		conds = append(conds, "COALESCE(p.sale_price, p.price) >= "+arg(f.MinPrice.Decimal))
	}
	if f.MaxPrice.Valid {
		conds = append(conds, "COALESCE(p.sale_price, p.price) <= "+arg(f.MaxPrice.Decimal))
	}

	from := ` FROM products p LEFT JOIN categories c ON c.id = p.category_id`
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	order := "p.created_at DESC, p.id DESC"
	switch f.Sort {
	case model.SortPriceAsc:
		order = "COALESCE(p.sale_price, p.price) ASC, p.id"
	case model.SortPriceDesc:
		order = "COALESCE(p.sale_price, p.price) DESC, p.id"
	case model.SortName:
		order = "p.name ASC, p.id"
	}

	pg := model.Pagination{Page: f.Page, Limit: f.Limit}
	query := `SELECT ` + productColumns + from + where +
		` ORDER BY ` + order + ` LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg(pg.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	if err := r.loadVariants(ctx, products); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// loadVariants складывает строки product_sizes и product_colors в поля Sizes и Colors товаров.
func (r *PostgresRepository) loadVariants(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids = append(ids, products[i].ID)
		index[products[i].ID] = i
		products[i].Sizes = []string{}
		products[i].Colors = []model.Color{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT product_id, size FROM product_sizes WHERE product_id = ANY($1) ORDER BY product_id, size`, ids)
	if err != nil {
		return fmt.Errorf("select sizes: %w", err)
	}
	for rows.Next() {
		var (
			id   int64
			size string
		)
		if err := rows.Scan(&id, &size); err != nil {
			rows.Close()
			return fmt.Errorf("scan size: %w", err)
		}
		products[index[id]].Sizes = append(products[index[id]].Sizes, size)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	rows, err = r.pool.Query(ctx,
		`SELECT product_id, name, hex FROM product_colors WHERE product_id = ANY($1) ORDER BY product_id, name`, ids)
	if err != nil {
		return fmt.Errorf("select colors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id int64
			c  model.Color
		)
		if err := rows.Scan(&id, &c.Name, &c.Hex); err != nil {
			return fmt.Errorf("scan color: %w", err)
		}
		products[index[id]].Colors = append(products[index[id]].Colors, c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) getProduct(ctx context.Context, cond string, arg any) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE `+cond, arg))
	if err != nil {
		return nil, notFound(err, "product")
	}

	products := []model.Product{*p}
	if err := r.loadVariants(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return r.getProduct(ctx, "p.id = $1", id)
}

// GetProductBySlug возвращает товар по slug.
func (r *PostgresRepository) GetProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	return r.getProduct(ctx, "p.slug = $1", slug)
}

// GetProductsByIDs возвращает товары с указанными идентификаторами. Отсутствующие товары в результат не попадают.
func (r *PostgresRepository) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	res := make(map[int64]model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res[p.ID] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// CreateProduct сохраняет товар вместе с размерами и цветами.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	var id int64
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO products (name, slug, description, price, sale_price, category_id, images, in_stock, featured)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
			p.Name, p.Slug, p.Description, p.Price, p.SalePrice, p.CategoryID, nonNil(p.Images), p.InStock, p.Featured,
		).Scan(&id)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugExists, p.Slug)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("category: %w", ErrNotFound)
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return replaceVariants(ctx, tx, id, p.Sizes, p.Colors)
	})
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, id)
}

// UpdateProduct перезаписывает товар, его размеры и цвета.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET name = $2, slug = $3, description = $4, price = $5, sale_price = $6,
			        category_id = $7, images = $8, in_stock = $9, featured = $10, updated_at = NOW()
			 WHERE id = $1`,
			p.ID, p.Name, p.Slug, p.Description, p.Price, p.SalePrice, p.CategoryID, nonNil(p.Images), p.InStock, p.Featured,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", ErrSlugExists, p.Slug)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("category: %w", ErrNotFound)
			}
			return fmt.Errorf("update product: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("product: %w", ErrNotFound)
		}
		return replaceVariants(ctx, tx, p.ID, p.Sizes, p.Colors)
	})
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, p.ID)
}

func replaceVariants(ctx context.Context, tx pgx.Tx, productID int64, sizes []string, colors []model.Color) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_sizes WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete sizes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_colors WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("delete colors: %w", err)
	}

	for _, s := range sizes {
		_, err := tx.Exec(ctx,
			`INSERT INTO product_sizes (product_id, size) VALUES ($1, $2) ON CONFLICT DO NOTHING`, productID, s)
		if err != nil {
			return fmt.Errorf("insert size: %w", err)
		}
	}
	for _, c := range colors {
		_, err := tx.Exec(ctx,
			`INSERT INTO product_colors (product_id, name, hex) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			productID, c.Name, c.Hex)
		if err != nil {
			return fmt.Errorf("insert color: %w", err)
		}
	}
	return nil
}

// DeleteProduct удаляет товар; размеры, цвета, позиции корзин и избранного удаляются каскадно.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product: %w", ErrNotFound)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
