package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/fashion-store/internal/model"
	"github.com/mmeshcher/fashion-store/internal/repository"
)

// RegisterInput содержит данные для регистрации пользователя.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput содержит учётные данные для входа.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput содержит изменяемые поля профиля.
type ProfileInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Phone string `json:"phone" validate:"max=32"`
}

// PasswordInput содержит данные для смены пароля.
type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// Register регистрирует нового пользователя и ставит в очередь приветственное письмо.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validate(in); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.CreateUser(ctx, in.Name, in.Email, hash)
	if err != nil {
		return nil, err
	}

	s.enqueueMail(ctx, welcomeMail(u))
	return u, nil
}

// Login проверяет email и пароль и возвращает пользователя.
func (s *Service) Login(ctx context.Context, in LoginInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate(in); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Me возвращает профиль текущего пользователя.
func (s *Service) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	return s.repo.GetUserByID(ctx, actor.UserID)
}

// UpdateProfile меняет имя и телефон текущего пользователя.
func (s *Service) UpdateProfile(ctx context.Context, actor model.Actor, in ProfileInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validate(in); err != nil {
		return nil, err
	}
	return s.repo.UpdateProfile(ctx, actor.UserID, in.Name, in.Phone)
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, actor model.Actor, in PasswordInput) error {
	if err := validate(in); err != nil {
		return err
	}

	u, err := s.repo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(in.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, actor.UserID, hash)
}

// EnsureAdmin создаёт учётную запись администратора при старте, если заданы email и пароль.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	if err := s.repo.EnsureAdmin(ctx, "Administrator", email, hash); err != nil {
		return err
	}

	s.logger.Info("admin account ensured", zap.String("email", email))
	return nil
}

// ListUsers возвращает страницу пользователей. Доступно только администратору.
func (s *Service) ListUsers(ctx context.Context, actor model.Actor, page, limit int) ([]model.User, model.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, model.Pagination{}, err
	}

	page, limit = normalizePage(page, limit, 20)
	users, total, err := s.repo.ListUsers(ctx, page, limit)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	return users, model.NewPagination(page, limit, total), nil
}
