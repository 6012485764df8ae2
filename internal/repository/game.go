package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
)

var ErrGameAlreadyExists = errors.New("game already exists")

// GameFunc runs while the game's lock is held. Both pointers stay valid only for the call.
type GameFunc func(info *entity.GameInfo, game *entity.Game) error

type GameRepository interface {
	Create(ctx context.Context, info *entity.GameInfo, game *entity.Game) error
	WithGame(ctx context.Context, id string, fn GameFunc) error
	DeleteIf(ctx context.Context, id string, check func(info *entity.GameInfo) error) error
	ListIDs(ctx context.Context) []string
}

// gameRecord pairs an engine with its metadata so they are always created and removed together.
type gameRecord struct {
	mu      sync.Mutex
	info    *entity.GameInfo
	game    *entity.Game
	deleted bool
}

// memoryGame keeps games in process memory. The table lock is only held to look up, insert or
// remove a record; game state is guarded by the per-record lock. Lock order is record, then table.
type memoryGame struct {
	mu    sync.RWMutex
	games map[string]*gameRecord
}

func NewGameRepository() GameRepository {
	return &memoryGame{
		games: make(map[string]*gameRecord),
	}
}

func (that *memoryGame) Create(_ context.Context, info *entity.GameInfo, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[info.ID]; ok {
		return fmt.Errorf("%w: game id %s", ErrGameAlreadyExists, info.ID)
	}

	that.games[info.ID] = &gameRecord{
		info: info,
		game: game,
	}

	return nil
}

func (that *memoryGame) lookup(id string) (*gameRecord, error) {
	that.mu.RLock()
	record, ok := that.games[id]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	return record, nil
}

func (that *memoryGame) WithGame(ctx context.Context, id string, fn GameFunc) error {
	record, err := that.lookup(id)
	if err != nil {
		return err
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	// deleted while we were waiting for the lock
	if record.deleted {
		return apperror.ErrGameNotFound
	}

	if err = ctx.Err(); err != nil {
		return fmt.Errorf("failed to lock game: %w", err)
	}

	return fn(record.info, record.game)
}

// DeleteIf removes the game when check passes. Operations already holding the game finish first.
func (that *memoryGame) DeleteIf(_ context.Context, id string, check func(info *entity.GameInfo) error) error {
	record, err := that.lookup(id)
	if err != nil {
		return err
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	if record.deleted {
		return apperror.ErrGameNotFound
	}

	if err = check(record.info); err != nil {
		return err
	}

	record.deleted = true

	that.mu.Lock()
	delete(that.games, id)
	that.mu.Unlock()

	return nil
}

// ListIDs returns a sorted snapshot of the live game ids.
func (that *memoryGame) ListIDs(_ context.Context) []string {
	that.mu.RLock()
	ids := make([]string, 0, len(that.games))
	for id := range that.games {
		ids = append(ids, id)
	}
	that.mu.RUnlock()

	slices.Sort(ids)

	return ids
}
