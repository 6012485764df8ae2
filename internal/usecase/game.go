package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-server/internal/repository"
)

const maxCreateAttempts = 3

// Credentials identify the caller of a privileged operation.
type Credentials struct {
	Username string
	Token    string
}

type accountService interface {
	Verify(ctx context.Context, username, token string) bool
	Exists(ctx context.Context, username string) (bool, error)
}

type gameRepo interface {
	Create(ctx context.Context, info *entity.GameInfo, game *entity.Game) error
	WithGame(ctx context.Context, id string, fn repository.GameFunc) error
	DeleteIf(ctx context.Context, id string, check func(info *entity.GameInfo) error) error
	ListIDs(ctx context.Context) []string
}

// GameRegistry owns every running game and enforces who may do what with it.
type GameRegistry struct {
	logger   *slog.Logger
	accounts accountService
	gameRepo gameRepo
}

func NewGameRegistry(logger *slog.Logger, accounts accountService, gameRepo gameRepo) *GameRegistry {
	return &GameRegistry{
		logger: logger.With("component", "game_registry"),

		accounts: accounts,
		gameRepo: gameRepo,
	}
}

func (that *GameRegistry) authenticate(ctx context.Context, creds Credentials) error {
	if !that.accounts.Verify(ctx, creds.Username, creds.Token) {
		return apperror.ErrBadCredentials
	}

	return nil
}

// CreateGame registers a new game owned by the caller and returns its id and termination secret.
func (that *GameRegistry) CreateGame(ctx context.Context, creds Credentials) (string, string, error) {
	log := that.logger.With("method", "CreateGame")

	if err := that.authenticate(ctx, creds); err != nil {
		return "", "", err
	}

	secret, err := pkg.GenerateTerminationSecret()
	if err != nil {
		return "", "", err
	}

	for range maxCreateAttempts {
		gameID, err := pkg.GenerateGameID()
		if err != nil {
			return "", "", err
		}

		err = that.gameRepo.Create(ctx, entity.NewGameInfo(gameID, creds.Username, secret), entity.NewGame())
		if errors.Is(err, repository.ErrGameAlreadyExists) {
			log.Warn("game id collision, retrying", "game_id", gameID)
			continue
		}

		if err != nil {
			return "", "", fmt.Errorf("failed to create game: %w", err)
		}

		log.Info("game created", "game_id", gameID, "owner", creds.Username)

		return gameID, secret, nil
	}

	return "", "", fmt.Errorf("failed to create game: %w", repository.ErrGameAlreadyExists)
}

// AddPlayer seats username in the game. Only the owner may add players.
func (that *GameRegistry) AddPlayer(ctx context.Context, gameID string, creds Credentials, username string) (int, error) {
	log := that.logger.With("method", "AddPlayer")

	if err := that.authenticate(ctx, creds); err != nil {
		return -1, err
	}

	seat := -1
	err := that.gameRepo.WithGame(ctx, gameID, func(info *entity.GameInfo, _ *entity.Game) error {
		if !info.IsOwner(creds.Username) {
			return apperror.ErrNotOwner
		}

		// only the owner learns whether an account exists
		exists, err := that.accounts.Exists(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to check account: %w", err)
		}

		if !exists {
			return fmt.Errorf("%w: %s", apperror.ErrAccountNotFound, username)
		}

		var addErr error
		seat, addErr = info.AddPlayer(username)
		return addErr
	})
	if err != nil {
		return -1, err
	}

	log.Info("player joined", "game_id", gameID, "username", username, "seat", seat)

	return seat, nil
}

// GetPlayerIndex returns the seat of username. Only players of the game may ask.
func (that *GameRegistry) GetPlayerIndex(ctx context.Context, gameID string, creds Credentials, username string) (int, error) {
	if err := that.authenticate(ctx, creds); err != nil {
		return -1, err
	}

	index := -1
	err := that.gameRepo.WithGame(ctx, gameID, func(info *entity.GameInfo, _ *entity.Game) error {
		if info.PlayerIndex(creds.Username) < 0 {
			return apperror.ErrNotAPlayer
		}

		if index = info.PlayerIndex(username); index < 0 {
			return fmt.Errorf("%w: %s", apperror.ErrPlayerNotFound, username)
		}

		return nil
	})
	if err != nil {
		return -1, err
	}

	return index, nil
}

// InitializeGame starts the sign choice. The owner (seat 0) chooses.
func (that *GameRegistry) InitializeGame(ctx context.Context, gameID string, creds Credentials) (entity.GameState, error) {
	log := that.logger.With("method", "InitializeGame")

	if err := that.authenticate(ctx, creds); err != nil {
		return entity.GameState{}, err
	}

	var state entity.GameState
	err := that.gameRepo.WithGame(ctx, gameID, func(info *entity.GameInfo, game *entity.Game) error {
		if !info.IsOwner(creds.Username) {
			return apperror.ErrNotOwner
		}

		if game.Status() != entity.StatusWaiting {
			return apperror.ErrGameAlreadyStarted
		}

		if len(info.Players) < entity.MaxPlayers {
			return apperror.ErrNotEnoughPlayers
		}

		if err := game.Setup(info.Players[0], info.Players[1]); err != nil {
			return err
		}

		state = snapshot(info, game)
		return nil
	})
	if err != nil {
		return entity.GameState{}, err
	}

	log.Info("game started", "game_id", gameID)

	return state, nil
}

func (that *GameRegistry) ChooseSign(ctx context.Context, gameID string, creds Credentials, choice string) (entity.GameState, error) {
	return that.play(ctx, gameID, creds, func(game *entity.Game) error {
		return game.AssignSigns(creds.Username, choice)
	})
}

func (that *GameRegistry) MakeMove(ctx context.Context, gameID string, creds Credentials, cell int) (entity.GameState, error) {
	log := that.logger.With("method", "MakeMove")

	state, err := that.play(ctx, gameID, creds, func(game *entity.Game) error {
		return game.RequestMove(creds.Username, cell)
	})
	if err != nil {
		return entity.GameState{}, err
	}

	if state.Status == entity.StatusWon || state.Status == entity.StatusDrawn {
		log.Info("game finished", "game_id", gameID, "status", state.Status, "winner", state.Winner)
	}

	return state, nil
}

// play runs a move-phase action on behalf of one of the game's players.
func (that *GameRegistry) play(ctx context.Context, gameID string, creds Credentials, action func(game *entity.Game) error) (entity.GameState, error) {
	if err := that.authenticate(ctx, creds); err != nil {
		return entity.GameState{}, err
	}

	var state entity.GameState
	err := that.gameRepo.WithGame(ctx, gameID, func(info *entity.GameInfo, game *entity.Game) error {
		if info.PlayerIndex(creds.Username) < 0 {
			return apperror.ErrNotAPlayer
		}

		if err := action(game); err != nil {
			return err
		}

		state = snapshot(info, game)
		return nil
	})
	if err != nil {
		return entity.GameState{}, err
	}

	return state, nil
}

func (that *GameRegistry) GetWinners(ctx context.Context, gameID string) ([]string, error) {
	var winners []string
	err := that.gameRepo.WithGame(ctx, gameID, func(_ *entity.GameInfo, game *entity.Game) error {
		winners = game.Winners()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return winners, nil
}

func (that *GameRegistry) GetGame(ctx context.Context, gameID string) (entity.GameState, error) {
	var state entity.GameState
	err := that.gameRepo.WithGame(ctx, gameID, func(info *entity.GameInfo, game *entity.Game) error {
		state = snapshot(info, game)
		return nil
	})
	if err != nil {
		return entity.GameState{}, err
	}

	return state, nil
}

// DeleteGame removes the game if secret matches the one issued at creation.
func (that *GameRegistry) DeleteGame(ctx context.Context, gameID string, creds Credentials, secret string) error {
	log := that.logger.With("method", "DeleteGame")

	if err := that.authenticate(ctx, creds); err != nil {
		return err
	}

	err := that.gameRepo.DeleteIf(ctx, gameID, func(info *entity.GameInfo) error {
		if subtle.ConstantTimeCompare([]byte(info.TerminationSecret), []byte(secret)) != 1 {
			return apperror.ErrBadSecret
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info("game deleted", "game_id", gameID, "by", creds.Username)

	return nil
}

func (that *GameRegistry) ListGames(ctx context.Context) []string {
	return that.gameRepo.ListIDs(ctx)
}

func snapshot(info *entity.GameInfo, game *entity.Game) entity.GameState {
	state := game.Snapshot()
	state.ID = info.ID
	state.Players = append([]string(nil), info.Players...)

	return state
}
