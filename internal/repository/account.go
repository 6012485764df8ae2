package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
)

const accountKeyPrefix = "account:"

type AccountRepository interface {
	// Create stores a new account and fails with apperror.ErrUsernameTaken if the name exists.
	Create(ctx context.Context, account *entity.Account) error
	GetByUsername(ctx context.Context, username string) (*entity.Account, error)
}

type memoryAccount struct {
	mu       sync.RWMutex
	accounts map[string]entity.Account
}

func NewMemoryAccountRepository() AccountRepository {
	return &memoryAccount{
		accounts: make(map[string]entity.Account),
	}
}

func (that *memoryAccount) Create(_ context.Context, account *entity.Account) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.accounts[account.Username]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrUsernameTaken, account.Username)
	}

	that.accounts[account.Username] = *account

	return nil
}

func (that *memoryAccount) GetByUsername(_ context.Context, username string) (*entity.Account, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	account, ok := that.accounts[username]
	if !ok {
		return nil, apperror.ErrAccountNotFound
	}

	return &account, nil
}

type dbAccount struct {
	client *redis.Client
}

func NewRedisAccountRepository(client *redis.Client) AccountRepository {
	return &dbAccount{
		client: client,
	}
}

func (that *dbAccount) Create(ctx context.Context, account *entity.Account) error {
	accountJSON, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	created, err := that.client.SetNX(ctx, accountKeyPrefix+account.Username, accountJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set account: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", apperror.ErrUsernameTaken, account.Username)
	}

	return nil
}

func (that *dbAccount) GetByUsername(ctx context.Context, username string) (*entity.Account, error) {
	response, err := that.client.Get(ctx, accountKeyPrefix+username).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrAccountNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get account by username: %w", err)
	}

	var account entity.Account
	if err = json.Unmarshal([]byte(response), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &account, nil
}
