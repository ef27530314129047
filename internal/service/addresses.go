package service

import (
	"context"
	"strings"

	"github.com/mmeshcher/fashion-store/internal/model"
)

// AddressInput содержит поля адреса из адресной книги.
type AddressInput struct {
	FullName   string `json:"fullName" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"required,max=32"`
	Street     string `json:"street" validate:"required,max=200"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	IsDefault  bool   `json:"isDefault"`
}

func (in AddressInput) address(userID int64) model.Address {
	return model.Address{
		UserID:     userID,
		FullName:   strings.TrimSpace(in.FullName),
		Phone:      strings.TrimSpace(in.Phone),
		Street:     strings.TrimSpace(in.Street),
		City:       strings.TrimSpace(in.City),
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    strings.TrimSpace(in.Country),
		IsDefault:  in.IsDefault,
	}
}

// ListAddresses возвращает адреса текущего пользователя, адрес по умолчанию первым.
func (s *Service) ListAddresses(ctx context.Context, actor model.Actor) ([]model.Address, error) {
	return s.repo.ListAddresses(ctx, actor.UserID)
}

// CreateAddress добавляет адрес. Первый адрес пользователя становится адресом по умолчанию.
func (s *Service) CreateAddress(ctx context.Context, actor model.Actor, in AddressInput) (*model.Address, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.CreateAddress(ctx, in.address(actor.UserID))
}

// UpdateAddress перезаписывает адрес текущего пользователя.
func (s *Service) UpdateAddress(ctx context.Context, actor model.Actor, id int64, in AddressInput) (*model.Address, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	a := in.address(actor.UserID)
	a.ID = id
	return s.repo.UpdateAddress(ctx, a)
}

// DeleteAddress удаляет адрес текущего пользователя.
func (s *Service) DeleteAddress(ctx context.Context, actor model.Actor, id int64) error {
	return s.repo.DeleteAddress(ctx, actor.UserID, id)
}

// SetDefaultAddress делает адрес адресом по умолчанию.
func (s *Service) SetDefaultAddress(ctx context.Context, actor model.Actor, id int64) (*model.Address, error) {
	return s.repo.SetDefaultAddress(ctx, actor.UserID, id)
}
