package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/usecase"
)

const terminationSecretHeader = "X-Termination-Secret"

type gameRegistry interface {
	CreateGame(ctx context.Context, creds usecase.Credentials) (string, string, error)
	AddPlayer(ctx context.Context, gameID string, creds usecase.Credentials, username string) (int, error)
	GetPlayerIndex(ctx context.Context, gameID string, creds usecase.Credentials, username string) (int, error)
	InitializeGame(ctx context.Context, gameID string, creds usecase.Credentials) (entity.GameState, error)
	ChooseSign(ctx context.Context, gameID string, creds usecase.Credentials, choice string) (entity.GameState, error)
	MakeMove(ctx context.Context, gameID string, creds usecase.Credentials, cell int) (entity.GameState, error)
	GetWinners(ctx context.Context, gameID string) ([]string, error)
	GetGame(ctx context.Context, gameID string) (entity.GameState, error)
	DeleteGame(ctx context.Context, gameID string, creds usecase.Credentials, secret string) error
	ListGames(ctx context.Context) []string
}

type accountService interface {
	CreateAccount(ctx context.Context, username string) (string, string, error)
}

type handlers struct {
	logger   *slog.Logger
	registry gameRegistry
	accounts accountService
}

type usernameRequest struct {
	Username string `json:"username"`
}

type accountResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type gameCreatedResponse struct {
	GameID            string `json:"game_id"`
	TerminationSecret string `json:"termination_secret"`
}

type gamesResponse struct {
	Games []string `json:"games"`
}

type playerIndexResponse struct {
	PlayerIndex int `json:"player_index"`
}

type signRequest struct {
	Sign string `json:"sign"`
}

type moveRequest struct {
	Cell int `json:"cell"`
}

type winnersResponse struct {
	Winners []string `json:"winners"`
}

type deleteRequest struct {
	TerminationSecret string `json:"termination_secret"`
}

func (that *handlers) createAccount(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "createAccount")

	var req usernameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(log, w, err)
		return
	}

	username, token, err := that.accounts.CreateAccount(r.Context(), req.Username)
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse{Username: username, Token: token})
}

func (that *handlers) listGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gamesResponse{Games: that.registry.ListGames(r.Context())})
}

func (that *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "createGame")

	gameID, secret, err := that.registry.CreateGame(r.Context(), credentialsFrom(r.Context()))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, gameCreatedResponse{GameID: gameID, TerminationSecret: secret})
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getGame")

	state, err := that.registry.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *handlers) addPlayer(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "addPlayer")

	var req usernameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(log, w, err)
		return
	}

	seat, err := that.registry.AddPlayer(r.Context(), chi.URLParam(r, "gameID"), credentialsFrom(r.Context()), req.Username)
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, playerIndexResponse{PlayerIndex: seat})
}

func (that *handlers) getPlayerIndex(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getPlayerIndex")

	index, err := that.registry.GetPlayerIndex(r.Context(), chi.URLParam(r, "gameID"), credentialsFrom(r.Context()), chi.URLParam(r, "username"))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, playerIndexResponse{PlayerIndex: index})
}

func (that *handlers) startGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "startGame")

	state, err := that.registry.InitializeGame(r.Context(), chi.URLParam(r, "gameID"), credentialsFrom(r.Context()))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *handlers) chooseSign(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "chooseSign")

	var req signRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(log, w, err)
		return
	}

	state, err := that.registry.ChooseSign(r.Context(), chi.URLParam(r, "gameID"), credentialsFrom(r.Context()), req.Sign)
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *handlers) makeMove(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "makeMove")

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(log, w, err)
		return
	}

	state, err := that.registry.MakeMove(r.Context(), chi.URLParam(r, "gameID"), credentialsFrom(r.Context()), req.Cell)
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

func (that *handlers) getWinners(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "getWinners")

	winners, err := that.registry.GetWinners(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		writeError(log, w, err)
		return
	}

	writeJSON(w, http.StatusOK, winnersResponse{Winners: winners})
}

func (that *handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "deleteGame")

	secret := r.Header.Get(terminationSecretHeader)
	if secret == "" {
		var req deleteRequest
		// an empty body means no secret was sent
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(log, w, err)
			return
		}
		secret = req.TerminationSecret
	}

	if err := that.registry.DeleteGame(r.Context(), chi.URLParam(r, "gameID"), credentialsFrom(r.Context()), secret); err != nil {
		writeError(log, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
