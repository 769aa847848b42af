package service

import (
	"context"
	"errors"
	"sync"
	"time"

	userserrors "roombook/internal/users/errors"
	"roombook/internal/users/repository"
	"roombook/internal/users/validator"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
)

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Me(ctx context.Context, caller auth.Identity) (*model.User, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error)
	UpdateRole(ctx context.Context, caller auth.Identity, id string, req *model.RoleUpdate) (*model.User, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error

	// EnsureAdmin creates or promotes the bootstrap admin account.
	EnsureAdmin(ctx context.Context, email, password string) (*model.User, error)

	// ResolveIdentity replaces the role carried by a token with the stored one.
	ResolveIdentity(ctx context.Context, id auth.Identity) (auth.Identity, error)
}

type TokenIssuer interface {
	Issue(userID string, role model.Role) (string, time.Time, error)
}

type userService struct {
	repo      repository.UserRepository
	tokens    TokenIssuer
	validator *validator.UserValidator
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	tokens TokenIssuer,
	validator *validator.UserValidator,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		tokens:    tokens,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	req.FirstName = sanitizer.NormalizeName(req.FirstName)
	req.LastName = sanitizer.NormalizeName(req.LastName)
	req.Email = sanitizer.NormalizeEmail(req.Email)

	if err := s.validator.ValidateRegister(req); err != nil {
		s.cfg.Log.Warn("Registration validation failed", "email", req.Email, "error", err)
		return nil, validationError("Registration validation failed", err)
	}

	return s.create(ctx, req, model.RoleUser)
}

func (s *userService) create(ctx context.Context, req *model.RegisterRequest, role model.Role) (*model.User, error) {
	hash, err := auth.HashPassword(req.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email is already registered")
		}
		s.cfg.Log.Error("Failed to create user", "email", req.Email, "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User registered successfully",
		"id", user.ID,
		"email", user.Email,
		"role", user.Role,
	)
	return user, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	if err := s.validator.ValidateLogin(req); err != nil {
		return nil, validationError("Login validation failed", err)
	}

	invalid := apperrors.Unauthorized("Invalid email or password")

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			s.cfg.Log.Info("Login for unknown email", "email", req.Email)
			return nil, invalid
		}
		s.cfg.Log.Error("Failed to look up user", "email", req.Email, "error", err)
		return nil, apperrors.Internal("Failed to log in", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.cfg.Log.Info("Login with wrong password", "user_id", user.ID)
		return nil, invalid
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		s.cfg.Log.Error("Failed to issue access token", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to issue access token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &model.LoginResponse{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *userService) Me(ctx context.Context, caller auth.Identity) (*model.User, error) {
	return s.getByID(ctx, caller.UserID)
}

func (s *userService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.User, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count users", "error", err)
			errCount = apperrors.Internal("Failed to count users", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		users, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list users", "limit", limit, "offset", offset, "error", err)
			errFind = apperrors.Internal("Failed to retrieve users", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return users, count, nil
}

func (s *userService) UpdateRole(ctx context.Context, caller auth.Identity, id string, req *model.RoleUpdate) (*model.User, error) {
	if err := s.validator.ValidateRoleUpdate(req); err != nil {
		return nil, validationError("Invalid role", err)
	}
	if caller.UserID == id {
		return nil, apperrors.Forbidden("Admins cannot change their own role")
	}

	user, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateRole(ctx, id, req.Role); err != nil {
		return nil, s.mapRepoError(err, id, "Failed to update user role")
	}

	s.cfg.Log.Info("User role updated",
		"id", id,
		"from", user.Role,
		"to", req.Role,
		"by", caller.UserID,
	)
	user.Role = req.Role
	return user, nil
}

func (s *userService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if caller.UserID == id {
		return apperrors.Forbidden("Admins cannot delete their own account")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete user")
	}

	s.cfg.Log.Info("User deleted", "id", id, "by", caller.UserID)
	return nil
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*model.User, error) {
	email = sanitizer.NormalizeEmail(email)

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != model.RoleAdmin {
			if err := s.repo.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
				return nil, s.mapRepoError(err, existing.ID, "Failed to promote admin")
			}
			existing.Role = model.RoleAdmin
			s.cfg.Log.Info("Existing user promoted to admin", "id", existing.ID)
		}
		return existing, nil
	case !errors.Is(err, userserrors.ErrNotFound):
		return nil, apperrors.Internal("Failed to look up admin", err)
	}

	req := &model.RegisterRequest{FirstName: "Admin", LastName: "Admin", Email: email, Password: password}
	if err := s.validator.ValidateRegister(req); err != nil {
		return nil, validationError("Admin account validation failed", err)
	}
	return s.create(ctx, req, model.RoleAdmin)
}

// --- Helpers ---

func (s *userService) ResolveIdentity(ctx context.Context, id auth.Identity) (auth.Identity, error) {
	user, err := s.repo.FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return auth.Identity{}, apperrors.Unauthorized("Account no longer exists")
		}
		s.cfg.Log.Error("Failed to resolve caller", "id", id.UserID, "error", err)
		return auth.Identity{}, apperrors.Internal("Failed to resolve caller", err)
	}
	return auth.Identity{UserID: user.ID, Role: user.Role}, nil
}

func (s *userService) getByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve user")
	}
	return user, nil
}

func (s *userService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, userserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("User", id)
	}
	if errors.Is(err, userserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid user ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
