package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/Dan9191/auth-service/internal/auth"
	"github.com/Dan9191/auth-service/internal/models"
	"github.com/Dan9191/auth-service/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

// Notifier is told about every newly registered user
type Notifier interface {
	SendWelcome(to, name string) error
}

// Service handles registration, login and token verification
type Service struct {
	repo     repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   auth.TokenIssuer
	log      *logrus.Logger
	validate *validator.Validate
	notifier Notifier
	pending  sync.WaitGroup

	dummyOnce sync.Once
	dummyHash string
}

// NewService initializes a new service
func NewService(repo repository.UserRepository, hasher auth.PasswordHasher, tokens auth.TokenIssuer, log *logrus.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Service{repo: repo, hasher: hasher, tokens: tokens, log: log, validate: v}
}

// SetNotifier enables welcome notifications for new users
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Drain waits for in-flight welcome notifications to finish or for ctx to be done
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register creates a user and returns it together with a fresh token
func (s *Service) Register(ctx context.Context, in models.CreateUserInput) (*models.AuthResult, error) {
	user, err := s.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthResult{User: *user, Token: token}, nil
}

// Login authenticates a user by email and password and returns a token.
// Every credential failure returns the same error.
func (s *Service) Login(ctx context.Context, in models.LoginInput) (*models.AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		s.hasher.Compare(in.Password, s.dummy())
		return nil, invalidCredentials()
	}

	user, err := s.repo.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// keep timing comparable with the wrong-password path
			s.hasher.Compare(in.Password, s.dummy())
			return nil, invalidCredentials()
		}
		return nil, persistence("find user by email", err)
	}

	if !s.hasher.Compare(in.Password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Email)
	return &models.AuthResult{User: user.View(), Token: token}, nil
}

// Create hashes the password and stores a new active user
func (s *Service) Create(ctx context.Context, in models.CreateUserInput) (*models.UserView, error) {
	submitted := strings.TrimSpace(in.Email)
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, oops.Code(CodeInternal).With("operation", "hash password").Wrap(err)
	}

	user := &models.User{
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsActive:     true,
		Roles:        []string{models.DefaultRole},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, oops.Code(CodeDuplicateEntity).
				With("email", in.Email).
				Errorf("%s already exists!", submitted)
		}
		return nil, persistence("create user", err)
	}

	s.log.WithField("user_id", user.ID).Infof("User registered: %s", user.Email)

	view := user.View()
	if s.notifier != nil {
		s.pending.Add(1)
		go s.notifyWelcome(view)
	}
	return &view, nil
}

// FindUserByID returns the stored user with the given id
func (s *Service) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, oops.Code(CodeNotFound).With("id", id).Wrap(err)
		}
		return nil, persistence("find user by id", err)
	}
	return user, nil
}

// FindAll returns every user in store order
func (s *Service) FindAll(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, persistence("find all users", err)
	}
	return users, nil
}

// IssueToken signs a token whose subject is the user id
func (s *Service) IssueToken(userID string) (string, error) {
	token, err := s.tokens.Sign(userID)
	if err != nil {
		return "", oops.Code(CodeInternal).With("operation", "sign token").Wrap(err)
	}
	return token, nil
}

// Authenticate verifies a bearer token and resolves its subject to an active user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, unauthorized("There is no bearer token")
	}

	subject, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, unauthorized("Token expired")
		}
		return nil, unauthorized("Invalid token")
	}

	user, err := s.FindUserByID(ctx, subject)
	if err != nil {
		if HasCode(err, CodeNotFound) {
			return nil, unauthorized("User does not exist")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, unauthorized("User is not active")
	}
	return user, nil
}

func (s *Service) validateInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return oops.Code(CodeValidation).Wrap(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return oops.Code(CodeValidation).Errorf("%s", strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s should not be empty", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be an email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func (s *Service) notifyWelcome(user models.UserView) {
	defer s.pending.Done()
	if err := s.notifier.SendWelcome(user.Email, user.Name); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("Welcome email not sent")
	}
}

// dummy returns a valid hash that no submitted password is expected to match
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.log.WithError(err).Warn("Failed to prepare dummy hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
