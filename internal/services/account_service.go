package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/email"
	"github.com/vikasavnish/parentportal/internal/models"
	"github.com/vikasavnish/parentportal/internal/store"
	"github.com/vikasavnish/parentportal/internal/tasks"
)

// AccountService defines registration, activation and login
type AccountService interface {
	Register(uow store.UnitOfWork, req models.RegisterRequest) (models.Parent, error)
	Activate(uow store.UnitOfWork, token string) (models.Parent, error)
	Login(uow store.UnitOfWork, email, password string) (models.TokenResponse, error)
	CurrentParent(uow store.UnitOfWork, bearer string) (models.Parent, error)
}

// AccountOptions configures token lifetimes and activation policy
type AccountOptions struct {
	PublicBaseURL      string
	AccessTokenTTL     time.Duration
	ActivationTokenTTL time.Duration
	RequireActivation  bool
}

// accountService implements the AccountService interface
type accountService struct {
	creds    CredentialService
	notifier Notifier
	events   EventPublisher
	opts     AccountOptions
	logger   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(creds CredentialService, notifier Notifier, events EventPublisher, opts AccountOptions, logger *zap.Logger) AccountService {
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = time.Hour
	}
	if opts.ActivationTokenTTL <= 0 {
		opts.ActivationTokenTTL = time.Hour
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &accountService{
		creds:    creds,
		notifier: notifier,
		events:   events,
		opts:     opts,
		logger:   logger,
	}
}

// Register creates a pending parent and schedules the activation email
func (s *accountService) Register(uow store.UnitOfWork, req models.RegisterRequest) (models.Parent, error) {
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return models.Parent{}, fmt.Errorf("%w: first_name, last_name, email and password are required", ErrInvalidInput)
	}

	accounts := uow.Accounts()
	taken, err := accounts.EmailTaken(req.Email, 0)
	if err != nil {
		return models.Parent{}, err
	}
	if taken {
		return models.Parent{}, ErrEmailTaken
	}

	hash, err := s.creds.HashPassword(req.Password)
	if err != nil {
		return models.Parent{}, err
	}

	// jti keeps the token unique even if two are issued for one email in the same second.
	token, err := s.creds.IssueToken(jwt.MapClaims{
		"username": req.Email,
		"jti":      uuid.NewString(),
	}, s.opts.ActivationTokenTTL)
	if err != nil {
		return models.Parent{}, err
	}

	parent := models.Parent{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Age:             req.Age,
		Address:         req.Address,
		City:            req.City,
		Country:         req.Country,
		Pincode:         req.Pincode,
		Email:           req.Email,
		HashedPassword:  hash,
		ActivationToken: &token,
		IsActive:        false,
		ProfilePhoto:    req.ProfilePhoto,
	}
	if err := accounts.CreateParent(&parent); err != nil {
		// A concurrent registration can win between EmailTaken and the insert.
		if errors.Is(err, store.ErrDuplicate) {
			return models.Parent{}, ErrEmailTaken
		}
		return models.Parent{}, err
	}

	msg := email.Message{
		To:      parent.Email,
		Subject: "Activate Your Account",
		Body:    activationBody(parent.FirstName, s.activationLink(token)),
	}
	uow.AfterCommit(func() {
		s.notifier.Notify(tasks.KindActivation, msg, 0)
	})

	s.logger.Info("parent registered", zap.Uint("parent_id", parent.ID))
	return parent, nil
}

// Activate consumes a pending activation token exactly once
func (s *accountService) Activate(uow store.UnitOfWork, token string) (models.Parent, error) {
	accounts := uow.Accounts()
	parent, err := accounts.GetParentByActivationToken(token)
	if errors.Is(err, store.ErrNotFound) {
		return models.Parent{}, ErrActivationTokenNotFound
	}
	if err != nil {
		return models.Parent{}, err
	}

	if _, err := s.creds.ParseToken(token); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return models.Parent{}, ErrActivationTokenExpired
		}
		// The stored value matched but does not verify, e.g. after a secret rotation.
		return models.Parent{}, ErrActivationTokenNotFound
	}

	parent.IsActive = true
	parent.ActivationToken = nil
	if err := accounts.SaveParent(&parent); err != nil {
		return models.Parent{}, err
	}

	parentID := parent.ID
	uow.AfterCommit(func() {
		s.events.Publish(models.EventParentActivated, map[string]interface{}{"parent_id": parentID})
	})

	s.logger.Info("parent activated", zap.Uint("parent_id", parent.ID))
	return parent, nil
}

// Login verifies credentials and issues a bearer token
func (s *accountService) Login(uow store.UnitOfWork, emailAddr, password string) (models.TokenResponse, error) {
	parent, err := uow.Accounts().GetParentByEmail(strings.TrimSpace(emailAddr))
	if errors.Is(err, store.ErrNotFound) {
		return models.TokenResponse{}, ErrParentNotFound
	}
	if err != nil {
		return models.TokenResponse{}, err
	}

	if !s.creds.VerifyPassword(password, parent.HashedPassword) {
		return models.TokenResponse{}, ErrInvalidCredentials
	}
	if s.opts.RequireActivation && !parent.IsActive {
		return models.TokenResponse{}, ErrAccountInactive
	}

	accessToken, err := s.creds.IssueToken(jwt.MapClaims{"sub": parent.Email}, s.opts.AccessTokenTTL)
	if err != nil {
		return models.TokenResponse{}, err
	}

	return models.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
	}, nil
}

// CurrentParent resolves the parent named by a bearer token's subject
func (s *accountService) CurrentParent(uow store.UnitOfWork, bearer string) (models.Parent, error) {
	claims, err := s.creds.ParseToken(bearer)
	if err != nil {
		return models.Parent{}, err
	}
	sub := TokenSubject(claims)
	if sub == "" {
		return models.Parent{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	parent, err := uow.Accounts().GetParentByEmail(sub)
	if errors.Is(err, store.ErrNotFound) {
		// The email may have changed since the token was issued.
		return models.Parent{}, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
	}
	return parent, err
}

func (s *accountService) activationLink(token string) string {
	return fmt.Sprintf("%s/activate/%s/", s.opts.PublicBaseURL, token)
}

func activationBody(firstName, link string) string {
	return fmt.Sprintf(`Dear %s,

Please click on the following link to activate your account:
%s

Best regards,
Your Application Team
`, firstName, link)
}
