package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/pkg"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

type AccountService interface {
	// CreateAccount registers username and returns the token issued for it. The token is never stored.
	CreateAccount(ctx context.Context, username string) (string, string, error)
	Verify(ctx context.Context, username, token string) bool
	Exists(ctx context.Context, username string) (bool, error)
}

type accountRepo interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByUsername(ctx context.Context, username string) (*entity.Account, error)
}

type accountService struct {
	logger      *slog.Logger
	accountRepo accountRepo
	cost        int
}

func NewAccountService(logger *slog.Logger, accountRepo accountRepo) AccountService {
	return &accountService{
		logger:      logger.With("component", "account_service"),
		accountRepo: accountRepo,
		cost:        bcrypt.DefaultCost,
	}
}

func (that *accountService) CreateAccount(ctx context.Context, username string) (string, string, error) {
	log := that.logger.With("method", "CreateAccount")

	if !usernamePattern.MatchString(username) {
		return "", "", fmt.Errorf("%w: %q", apperror.ErrInvalidUser, username)
	}

	token, err := pkg.GenerateToken()
	if err != nil {
		return "", "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), that.cost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash token: %w", err)
	}

	if err = that.accountRepo.Create(ctx, &entity.Account{
		Username:  username,
		TokenHash: string(hash),
	}); err != nil {
		return "", "", fmt.Errorf("failed to create account: %w", err)
	}

	log.Info("account created", "username", username)

	return username, token, nil
}

// Verify reports whether token was issued to username. Lookup failures count as a mismatch.
func (that *accountService) Verify(ctx context.Context, username, token string) bool {
	log := that.logger.With("method", "Verify")

	if username == "" || token == "" {
		return false
	}

	account, err := that.accountRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperror.ErrAccountNotFound) {
			log.Error("failed to get account", "username", username, "error", err)
		}
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(account.TokenHash), []byte(token)) == nil
}

func (that *accountService) Exists(ctx context.Context, username string) (bool, error) {
	_, err := that.accountRepo.GetByUsername(ctx, username)
	if errors.Is(err, apperror.ErrAccountNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to get account: %w", err)
	}

	return true, nil
}
