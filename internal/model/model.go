// Package model содержит доменные сущности интернет-магазина одежды.
package model

import "time"

// Actor описывает аутентифицированного пользователя, от имени которого выполняется операция.
type Actor struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash []byte    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Pagination описывает параметры и итог постраничной выборки.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination вычисляет количество страниц для выборки.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pages,
	}
}

// Offset возвращает смещение первой записи страницы.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
