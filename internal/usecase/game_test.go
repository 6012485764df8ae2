package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository"
)

var (
	alice = Credentials{Username: "alice", Token: "alice-token"}
	bob   = Credentials{Username: "bob", Token: "bob-token"}
	carol = Credentials{Username: "carol", Token: "carol-token"}
)

type mockAccounts struct {
	mock.Mock
}

func (that *mockAccounts) Verify(ctx context.Context, username, token string) bool {
	args := that.Called(ctx, username, token)
	return args.Bool(0)
}

func (that *mockAccounts) Exists(ctx context.Context, username string) (bool, error) {
	args := that.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// newAccounts knows alice, bob and carol. Anything else fails verification.
func newAccounts() *mockAccounts {
	accounts := &mockAccounts{}
	for _, creds := range []Credentials{alice, bob, carol} {
		accounts.On("Verify", mock.Anything, creds.Username, creds.Token).Return(true).Maybe()
		accounts.On("Exists", mock.Anything, creds.Username).Return(true, nil).Maybe()
	}
	accounts.On("Verify", mock.Anything, mock.Anything, mock.Anything).Return(false).Maybe()
	accounts.On("Exists", mock.Anything, mock.Anything).Return(false, nil).Maybe()

	return accounts
}

func newRegistry() *GameRegistry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGameRegistry(logger, newAccounts(), repository.NewGameRepository())
}

// newStartedGame creates a game of alice against bob where alice plays X and moves first.
func newStartedGame(t *testing.T, registry *GameRegistry) string {
	t.Helper()
	ctx := context.Background()

	gameID, _, err := registry.CreateGame(ctx, alice)
	require.NoError(t, err)

	_, err = registry.AddPlayer(ctx, gameID, alice, bob.Username)
	require.NoError(t, err)

	_, err = registry.InitializeGame(ctx, gameID, alice)
	require.NoError(t, err)

	_, err = registry.ChooseSign(ctx, gameID, alice, "X")
	require.NoError(t, err)

	return gameID
}

func TestGameRegistry_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateGame_Success", func(t *testing.T) {
		registry := newRegistry()

		gameID, secret, err := registry.CreateGame(ctx, alice)

		require.NoError(t, err)
		assert.NotEmpty(t, gameID)
		assert.NotEmpty(t, secret)
		assert.NotEqual(t, gameID, secret)

		state, err := registry.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, state.Players)
		assert.Equal(t, entity.StatusWaiting, state.Status)
	})

	t.Run("CreateGame_BadCredentials", func(t *testing.T) {
		registry := newRegistry()

		_, _, err := registry.CreateGame(ctx, Credentials{Username: "alice", Token: "wrong"})

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.Empty(t, registry.ListGames(ctx))
	})

	t.Run("CreateGame_ConcurrentIDsAreDistinct", func(t *testing.T) {
		// Given: many concurrent creators
		registry := newRegistry()
		const total = 64

		ids := make(chan string, total)
		var wg sync.WaitGroup
		for range total {
			wg.Add(1)
			go func() {
				defer wg.Done()
				gameID, _, err := registry.CreateGame(ctx, alice)
				assert.NoError(t, err)
				ids <- gameID
			}()
		}
		wg.Wait()
		close(ids)

		// Then: every id is unique and listed
		seen := make(map[string]struct{}, total)
		for id := range ids {
			seen[id] = struct{}{}
		}
		assert.Len(t, seen, total)
		assert.Len(t, registry.ListGames(ctx), total)
	})
}

func TestGameRegistry_AddPlayer(t *testing.T) {
	ctx := context.Background()

	t.Run("AddPlayer_Success", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		seat, err := registry.AddPlayer(ctx, gameID, alice, "bob")

		require.NoError(t, err)
		assert.Equal(t, 1, seat)
	})

	t.Run("AddPlayer_GameNotFound", func(t *testing.T) {
		_, err := newRegistry().AddPlayer(ctx, "missing", alice, "bob")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("AddPlayer_NotOwner", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		_, err = registry.AddPlayer(ctx, gameID, bob, "bob")

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("AddPlayer_GameFull", func(t *testing.T) {
		// Given: a game with two players
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)
		_, err = registry.AddPlayer(ctx, gameID, alice, "bob")
		require.NoError(t, err)

		// When: a third player is added
		_, err = registry.AddPlayer(ctx, gameID, alice, "carol")

		// Then: the game rejects it
		require.ErrorIs(t, err, apperror.ErrGameFull)
	})

	t.Run("AddPlayer_AlreadyJoined", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		_, err = registry.AddPlayer(ctx, gameID, alice, "alice")

		require.ErrorIs(t, err, apperror.ErrAlreadyJoined)
	})

	t.Run("AddPlayer_UnknownAccount", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		_, err = registry.AddPlayer(ctx, gameID, alice, "mallory")

		require.ErrorIs(t, err, apperror.ErrAccountNotFound)
	})

	t.Run("AddPlayer_NotOwnerUnknownAccount", func(t *testing.T) {
		// Given: a game owned by alice
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		// When: bob tries to add an unregistered user
		_, err = registry.AddPlayer(ctx, gameID, bob, "mallory")

		// Then: bob is rejected before the account is looked up
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
		assert.NotErrorIs(t, err, apperror.ErrAccountNotFound)
	})

	t.Run("AddPlayer_GameNotFoundUnknownAccount", func(t *testing.T) {
		_, err := newRegistry().AddPlayer(ctx, "missing", alice, "mallory")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("AddPlayer_AccountLookupFails", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("Verify", mock.Anything, "alice", "alice-token").Return(true)
		accounts.On("Exists", mock.Anything, "bob").Return(false, errors.New("redis down"))
		registry := NewGameRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)), accounts, repository.NewGameRepository())
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		_, err = registry.AddPlayer(ctx, gameID, alice, "bob")

		require.Error(t, err)
		assert.Nil(t, apperror.KindOf(err))
		accounts.AssertExpectations(t)
	})
}

func TestGameRegistry_GetPlayerIndex(t *testing.T) {
	ctx := context.Background()
	registry := newRegistry()
	gameID, _, err := registry.CreateGame(ctx, alice)
	require.NoError(t, err)
	_, err = registry.AddPlayer(ctx, gameID, alice, "bob")
	require.NoError(t, err)

	t.Run("GetPlayerIndex_Success", func(t *testing.T) {
		index, err := registry.GetPlayerIndex(ctx, gameID, bob, "alice")
		require.NoError(t, err)
		assert.Equal(t, 0, index)

		index, err = registry.GetPlayerIndex(ctx, gameID, alice, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, index)
	})

	t.Run("GetPlayerIndex_RequesterNotAPlayer", func(t *testing.T) {
		_, err := registry.GetPlayerIndex(ctx, gameID, carol, "alice")

		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	})

	t.Run("GetPlayerIndex_PlayerNotFound", func(t *testing.T) {
		_, err := registry.GetPlayerIndex(ctx, gameID, alice, "carol")

		require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
	})
}

func TestGameRegistry_InitializeGame(t *testing.T) {
	ctx := context.Background()

	t.Run("InitializeGame_NotEnoughPlayers", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		_, err = registry.InitializeGame(ctx, gameID, alice)

		require.ErrorIs(t, err, apperror.ErrNotEnoughPlayers)
		require.ErrorIs(t, err, apperror.ErrState)
	})

	t.Run("InitializeGame_NotOwner", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)
		_, err = registry.AddPlayer(ctx, gameID, alice, "bob")
		require.NoError(t, err)

		_, err = registry.InitializeGame(ctx, gameID, bob)

		require.ErrorIs(t, err, apperror.ErrNotOwner)
	})

	t.Run("InitializeGame_Success", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)
		_, err = registry.AddPlayer(ctx, gameID, alice, "bob")
		require.NoError(t, err)

		state, err := registry.InitializeGame(ctx, gameID, alice)

		require.NoError(t, err)
		assert.Equal(t, entity.StatusChoosing, state.Status)
		assert.Equal(t, "alice", state.Turn)

		_, err = registry.InitializeGame(ctx, gameID, alice)
		require.ErrorIs(t, err, apperror.ErrGameAlreadyStarted)
	})
}

func TestGameRegistry_Play(t *testing.T) {
	ctx := context.Background()

	t.Run("ChooseSign_OpponentCannotChoose", func(t *testing.T) {
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)
		_, err = registry.AddPlayer(ctx, gameID, alice, "bob")
		require.NoError(t, err)
		_, err = registry.InitializeGame(ctx, gameID, alice)
		require.NoError(t, err)

		_, err = registry.ChooseSign(ctx, gameID, bob, "O")

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("MakeMove_CenterCell", func(t *testing.T) {
		registry := newRegistry()
		gameID := newStartedGame(t, registry)

		state, err := registry.MakeMove(ctx, gameID, alice, 5)

		require.NoError(t, err)
		assert.Equal(t, entity.MarkX, state.Board[4])
		assert.Equal(t, "bob", state.Turn)
	})

	t.Run("MakeMove_OutOfTurnDoesNotMutate", func(t *testing.T) {
		registry := newRegistry()
		gameID := newStartedGame(t, registry)
		before, err := registry.GetGame(ctx, gameID)
		require.NoError(t, err)

		_, err = registry.MakeMove(ctx, gameID, bob, 1)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		after, err := registry.GetGame(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("MakeMove_OutsiderRejected", func(t *testing.T) {
		registry := newRegistry()
		gameID := newStartedGame(t, registry)

		_, err := registry.MakeMove(ctx, gameID, carol, 1)

		require.ErrorIs(t, err, apperror.ErrNotAPlayer)
	})

	t.Run("MakeMove_TopRowWins", func(t *testing.T) {
		// Given: a started game
		registry := newRegistry()
		gameID := newStartedGame(t, registry)

		// When: X takes 1, 2 and 3
		for _, move := range []struct {
			creds Credentials
			cell  int
		}{{alice, 1}, {bob, 4}, {alice, 2}, {bob, 5}, {alice, 3}} {
			_, err := registry.MakeMove(ctx, gameID, move.creds, move.cell)
			require.NoError(t, err)
		}

		// Then: alice is the winner and further moves fail
		winners, err := registry.GetWinners(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, winners)

		_, err = registry.MakeMove(ctx, gameID, bob, 9)
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("GetWinners_NoneYet", func(t *testing.T) {
		registry := newRegistry()
		gameID := newStartedGame(t, registry)

		winners, err := registry.GetWinners(ctx, gameID)

		require.NoError(t, err)
		assert.Empty(t, winners)
	})
}

func TestGameRegistry_DeleteGame(t *testing.T) {
	ctx := context.Background()

	t.Run("DeleteGame_WrongSecret", func(t *testing.T) {
		// Given: a game
		registry := newRegistry()
		gameID, _, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		// When: deletion uses a wrong secret
		err = registry.DeleteGame(ctx, gameID, alice, "not-the-secret")

		// Then: the game survives
		require.ErrorIs(t, err, apperror.ErrBadSecret)
		_, err = registry.GetGame(ctx, gameID)
		require.NoError(t, err)
	})

	t.Run("DeleteGame_Success", func(t *testing.T) {
		registry := newRegistry()
		gameID, secret, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)

		err = registry.DeleteGame(ctx, gameID, alice, secret)

		require.NoError(t, err)
		_, err = registry.GetGame(ctx, gameID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		_, err = registry.GetWinners(ctx, gameID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
		assert.NotContains(t, registry.ListGames(ctx), gameID)
	})

	t.Run("DeleteGame_NotFound", func(t *testing.T) {
		err := newRegistry().DeleteGame(ctx, "missing", alice, "secret")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("DeleteGame_OtherGamesUntouched", func(t *testing.T) {
		registry := newRegistry()
		first, secret, err := registry.CreateGame(ctx, alice)
		require.NoError(t, err)
		second, _, err := registry.CreateGame(ctx, bob)
		require.NoError(t, err)

		require.NoError(t, registry.DeleteGame(ctx, first, alice, secret))

		assert.Equal(t, []string{second}, registry.ListGames(ctx))
	})
}
