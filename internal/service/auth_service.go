package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	operators ports.OperatorDirectory
	hashSvc   ports.HashService
	tokenSvc  ports.TokenService
	log       zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	operators ports.OperatorDirectory,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		operators: operators,
		hashSvc:   hashSvc,
		tokenSvc:  tokenSvc,
		log:       log,
	}
}

// Register creates a new operator. New operators get CanEdit only; the
// CanAllowNegative capability is granted out of band, via the bootstrap
// admin in config.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterOperatorRequest) (*domain.Operator, error) {
	existing, err := s.operators.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check username: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrUsernameExists()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	op := &domain.Operator{
		Username:     req.Username,
		PasswordHash: passwordHash,
		AgentName:    req.AgentName,
		Branch:       req.Branch,
		Capabilities: domain.Capabilities{CanEdit: true},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.operators.Create(ctx, op); err != nil {
		if errors.Is(err, ports.ErrDuplicateUsername) {
			return nil, apperror.ErrUsernameExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create operator: %w", err))
	}

	s.log.Info().
		Str("username", op.Username).
		Str("agent_name", op.AgentName).
		Str("branch", op.Branch).
		Msg("operator registered")

	return op, nil
}

// Login validates credentials and returns a JWT carrying the operator's
// capabilities and provenance.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	op, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find operator: %w", err))
	}
	if op == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, op.PasswordHash)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(op.Username, op.Capabilities, op.AgentName, op.Branch)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}
