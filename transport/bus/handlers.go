package bus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/usecase"
)

type accountPayload struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type createdPayload struct {
	GameID            string `json:"game_id"`
	TerminationSecret string `json:"termination_secret"`
}

type indexPayload struct {
	GameID      string `json:"game_id"`
	Username    string `json:"username"`
	PlayerIndex int    `json:"player_index"`
}

type winnersPayload struct {
	GameID  string   `json:"game_id"`
	Winners []string `json:"winners"`
}

type deletedPayload struct {
	GameID string `json:"game_id"`
}

// credentials reads the leading <user> <token> pair.
func credentials(args []string) usecase.Credentials {
	return usecase.Credentials{Username: args[0], Token: args[1]}
}

func (that *Server) handleRegister(ctx context.Context, args []string) (any, error) {
	username, token, err := that.accounts.CreateAccount(ctx, args[0])
	if err != nil {
		return nil, err
	}

	return accountPayload{Username: username, Token: token}, nil
}

func (that *Server) handleList(ctx context.Context, _ []string) (any, error) {
	return that.registry.ListGames(ctx), nil
}

func (that *Server) handleCreate(ctx context.Context, args []string) (any, error) {
	gameID, secret, err := that.registry.CreateGame(ctx, credentials(args))
	if err != nil {
		return nil, err
	}

	return createdPayload{GameID: gameID, TerminationSecret: secret}, nil
}

func (that *Server) handleJoin(ctx context.Context, args []string) (any, error) {
	seat, err := that.registry.AddPlayer(ctx, args[2], credentials(args), args[3])
	if err != nil {
		return nil, err
	}

	return indexPayload{GameID: args[2], Username: args[3], PlayerIndex: seat}, nil
}

func (that *Server) handleIndex(ctx context.Context, args []string) (any, error) {
	index, err := that.registry.GetPlayerIndex(ctx, args[2], credentials(args), args[3])
	if err != nil {
		return nil, err
	}

	return indexPayload{GameID: args[2], Username: args[3], PlayerIndex: index}, nil
}

func (that *Server) handleStart(ctx context.Context, args []string) (any, error) {
	return that.registry.InitializeGame(ctx, args[2], credentials(args))
}

func (that *Server) handleSign(ctx context.Context, args []string) (any, error) {
	return that.registry.ChooseSign(ctx, args[2], credentials(args), args[3])
}

func (that *Server) handleMove(ctx context.Context, args []string) (any, error) {
	cell, err := strconv.Atoi(args[3])
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a cell number", apperror.ErrInvalidMove, args[3])
	}

	return that.registry.MakeMove(ctx, args[2], credentials(args), cell)
}

func (that *Server) handleBoard(ctx context.Context, args []string) (any, error) {
	return that.registry.GetGame(ctx, args[0])
}

func (that *Server) handleWinners(ctx context.Context, args []string) (any, error) {
	winners, err := that.registry.GetWinners(ctx, args[0])
	if err != nil {
		return nil, err
	}

	return winnersPayload{GameID: args[0], Winners: winners}, nil
}

func (that *Server) handleDelete(ctx context.Context, args []string) (any, error) {
	if err := that.registry.DeleteGame(ctx, args[2], credentials(args), args[3]); err != nil {
		return nil, err
	}

	return deletedPayload{GameID: args[2]}, nil
}
