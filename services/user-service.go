package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/models"
	"gestion-proyectos/backend/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserService struct {
	users repositories.UserRepository
	now   Clock
}

func NewUserService(store *repositories.Store, now Clock) *UserService {
	return &UserService{users: store.Users, now: now}
}

func (s *UserService) CreateUser(ctx context.Context, who models.Identity, req CreateUserRequest) (*models.User, error) {
	if err := who.Require(models.CapManageUsers); err != nil {
		return nil, err
	}
	if err := required("name", req.Name); err != nil {
		return nil, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, models.Validationf("invalid email %q", req.Email)
	}
	role, err := models.ParseRole(string(req.Role))
	if err != nil {
		return nil, models.Validationf("%v", err)
	}

	u := &models.User{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(addr.Address),
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.Conflictf("email %s is already registered", u.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logging.Logger.Infof("Event ID: USER_CREATED, Description: user %s created with role %s", u.ID.Hex(), u.Role)
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	if role != "" && !role.Valid() {
		return nil, models.Validationf("unknown role %q", role)
	}
	users, err := s.users.Find(ctx, repositories.UserQuery{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// resolveUsers checks that every id names a stored user.
func resolveUsers(ctx context.Context, users repositories.UserRepository, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := users.Find(ctx, repositories.UserQuery{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	if len(found) != len(ids) {
		known := make(map[primitive.ObjectID]bool, len(found))
		for _, u := range found {
			known[u.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, models.Validationf("user %s not found", id.Hex())
			}
		}
	}
	return found, nil
}
