package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-health-tracker/internal/platform/apperr"
	"pet-health-tracker/internal/platform/logger"
	"pet-health-tracker/internal/ports/storage"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgCredentialsRequired = "username and password are required"
	msgUserExists          = "a user with this username already exists"
	msgUserNotFound        = "user not found"
	msgNothingToSave       = "no data to update"
	msgAdminDeactivation   = "the administrator cannot be deactivated"
	msgPasswordRequired    = "new password is required"
	msgPasswordTooLong     = "password must be at most 72 bytes"
	msgInvalidCredentials  = "invalid username or password"
)

// ErrInvalidCredentials se devuelve en Authenticate (usuario inexistente,
// inactivo o contraseña incorrecta): el llamador no distingue el motivo.
var ErrInvalidCredentials = errors.New(msgInvalidCredentials)

type Service struct {
	repo  Repository
	admin string
	cost  int
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, adminUsername string, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		admin: adminUsername,
		cost:  bcrypt.DefaultCost,
		log:   log.With(map[string]any{"component": "users"}),
		now:   time.Now,
	}
}

func (s *Service) AdminUsername() string { return s.admin }

func (s *Service) IsAdmin(username string) bool {
	return username != "" && username == s.admin
}

type CreateInput struct {
	Username string
	Password string
	FullName string
	Email    string
}

func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return User{}, apperr.BadRequest(msgCredentialsRequired)
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, hashError(err)
	}

	u := User{
		ID:           storage.NewID(),
		Username:     username,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Email:        strings.TrimSpace(in.Email),
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
		CreatedBy:    actor,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return User{}, apperr.BadRequest(msgUserExists)
		}
		return User{}, apperr.Internal(err)
	}

	s.log.Info("user created", map[string]any{"username": username, "created_by": actor})
	return u, nil
}

func (s *Service) Get(ctx context.Context, username string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, apperr.NotFound(msgUserNotFound)
		}
		return User{}, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

// Update aplica full_name, email e is_active. Al admin no se lo puede desactivar.
func (s *Service) Update(ctx context.Context, actor, username string, patch Patch) (User, error) {
	current, err := s.Get(ctx, username)
	if err != nil {
		return User{}, err
	}
	if patch.IsEmpty() {
		return User{}, apperr.BadRequest(msgNothingToSave)
	}
	if patch.FullName != nil {
		v := strings.TrimSpace(*patch.FullName)
		patch.FullName = &v
	}
	if patch.Email != nil {
		v := strings.TrimSpace(*patch.Email)
		patch.Email = &v
	}
	if patch.IsActive != nil && !*patch.IsActive && s.IsAdmin(username) {
		return User{}, apperr.BadRequest(msgAdminDeactivation)
	}

	if err := s.repo.Update(ctx, username, patch); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, apperr.NotFound(msgUserNotFound)
		}
		return User{}, apperr.Internal(err)
	}

	s.log.Info("user updated", map[string]any{"username": username, "updated_by": actor})
	return patch.Apply(current), nil
}

// Deactivate es el DELETE: baja lógica (is_active=false).
func (s *Service) Deactivate(ctx context.Context, actor, username string) error {
	if s.IsAdmin(username) {
		return apperr.BadRequest(msgAdminDeactivation)
	}
	inactive := false
	if err := s.repo.Update(ctx, username, Patch{IsActive: &inactive}); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err)
	}

	s.log.Info("user deactivated", map[string]any{"username": username, "deactivated_by": actor})
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, actor, username, password string) error {
	if password == "" {
		return apperr.BadRequest(msgPasswordRequired)
	}
	if _, err := s.Get(ctx, username); err != nil {
		return err
	}

	hash, err := s.hash(password)
	if err != nil {
		return hashError(err)
	}
	if err := s.repo.SetPasswordHash(ctx, username, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal(err)
	}

	s.log.Info("password reset", map[string]any{"username": username, "reset_by": actor})
	return nil
}

// IsActive implementa middleware.UserStatus y pets.UserDirectory.
// Un usuario inexistente es inactivo, no error.
func (s *Service) IsActive(ctx context.Context, username string) (bool, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsActive, nil
}

// Authenticate valida usuario y contraseña para el login.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if !u.IsActive || u.PasswordHash == "" {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin crea el usuario administrador si no existe. Se llama al arrancar.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	if s.admin == "" {
		return errors.New("admin username is empty")
	}
	_, err := s.repo.GetByUsername(ctx, s.admin)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if password == "" {
		return errors.New("admin password is empty")
	}

	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	err = s.repo.Create(ctx, User{
		ID:           storage.NewID(),
		Username:     s.admin,
		PasswordHash: hash,
		FullName:     "Administrator",
		IsActive:     true,
		CreatedAt:    s.now().UTC(),
		CreatedBy:    "system",
	})
	if err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return err
	}

	s.log.Info("admin user created", map[string]any{"username": s.admin})
	return nil
}

func (s *Service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// bcrypt solo acepta hasta 72 bytes; más largo es error del cliente.
func hashError(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return apperr.BadRequest(msgPasswordTooLong)
	}
	return apperr.Internal(err)
}
