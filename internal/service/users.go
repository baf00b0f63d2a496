package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// UserRepository описывает контракт доступа к учётным записям.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
}

// Users управляет учётными записями клиентов и администраторов.
type Users struct {
	repo   UserRepository
	logger *zap.Logger
}

// NewUsers создаёт сервис учётных записей.
func NewUsers(repo UserRepository, logger *zap.Logger) *Users {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Users{repo: repo, logger: logger}
}

// normalizeUser приводит поля к каноническому виду и проверяет их.
// Пустая роль означает CLIENTE.
func normalizeUser(u *model.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Phone = strings.TrimSpace(u.Phone)
	u.Role = strings.ToUpper(strings.TrimSpace(u.Role))

	if u.Name == "" {
		return fmt.Errorf("%w: user name is required", model.ErrValidation)
	}
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != u.Email {
		return fmt.Errorf("%w: invalid email %q", model.ErrValidation, u.Email)
	}
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	if u.Role != model.RoleAdmin && u.Role != model.RoleCustomer {
		return fmt.Errorf("%w: unknown role %q", model.ErrValidation, u.Role)
	}
	return nil
}

// CreateUser регистрирует пользователя. Email должен быть уникальным.
func (s *Users) CreateUser(ctx context.Context, u model.User) (*model.User, error) {
	if err := normalizeUser(&u); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, &u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.Int64("userID", u.ID), zap.String("role", u.Role))
	return &u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Users) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

// UpdateUser меняет профиль пользователя. Пустая роль сохраняет текущую.
func (s *Users) UpdateUser(ctx context.Context, u model.User) (*model.User, error) {
	current, err := s.repo.GetUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(u.Role) == "" {
		u.Role = current.Role
	}
	if err := normalizeUser(&u); err != nil {
		return nil, err
	}
	u.CreatedAt = current.CreatedAt

	if err := s.repo.UpdateUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
