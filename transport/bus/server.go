package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-server/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-server/internal/entity"
	"github.com/rocketscienceinc/tictactoe-server/internal/usecase"
)

const DefaultPrefix = "!ttt "

var (
	ErrUnknownCommand = fmt.Errorf("%w: unknown command", apperror.ErrValidation)
	ErrWrongArity     = fmt.Errorf("%w: wrong number of arguments", apperror.ErrValidation)
)

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

// Message is a reply published for every recognised command.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

type Options struct {
	RequestChannel string
	ReplyChannel   string
	Prefix         string
}

type command struct {
	args   int
	handle func(ctx context.Context, args []string) (any, error)
}

// Server reads text commands from a Redis channel and publishes JSON replies.
type Server struct {
	logger   *slog.Logger
	client   *redis.Client
	options  Options
	registry gameRegistry
	accounts accountService

	commands map[string]command
}

func New(logger *slog.Logger, client *redis.Client, options Options, registry gameRegistry, accounts accountService) *Server {
	if options.Prefix == "" {
		options.Prefix = DefaultPrefix
	}

	server := &Server{
		logger:   logger.With("component", "bus"),
		client:   client,
		options:  options,
		registry: registry,
		accounts: accounts,

		commands: make(map[string]command),
	}

	server.commands["register"] = command{args: 1, handle: server.handleRegister}
	server.commands["list"] = command{args: 0, handle: server.handleList}
	server.commands["create"] = command{args: 2, handle: server.handleCreate}
	server.commands["join"] = command{args: 4, handle: server.handleJoin}
	server.commands["index"] = command{args: 4, handle: server.handleIndex}
	server.commands["start"] = command{args: 3, handle: server.handleStart}
	server.commands["sign"] = command{args: 4, handle: server.handleSign}
	server.commands["move"] = command{args: 4, handle: server.handleMove}
	server.commands["board"] = command{args: 1, handle: server.handleBoard}
	server.commands["winners"] = command{args: 1, handle: server.handleWinners}
	server.commands["delete"] = command{args: 4, handle: server.handleDelete}

	return server
}

// Dispatch runs one command line. It returns false for text that does not carry the prefix.
func (that *Server) Dispatch(ctx context.Context, text string) (*Message, bool) {
	log := that.logger.With("method", "Dispatch")

	rest, ok := strings.CutPrefix(text, that.options.Prefix)
	if !ok {
		return nil, false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return &Message{Error: ErrUnknownCommand.Error()}, true
	}

	action, args := strings.ToLower(fields[0]), fields[1:]
	reply := &Message{Action: action}

	cmd, ok := that.commands[action]
	if !ok {
		reply.Error = fmt.Sprintf("%s: %s", ErrUnknownCommand, action)
		return reply, true
	}

	if len(args) != cmd.args {
		reply.Error = fmt.Sprintf("%s: %s expects %d", ErrWrongArity, action, cmd.args)
		return reply, true
	}

	payload, err := cmd.handle(ctx, args)
	if err != nil {
		if apperror.KindOf(err) == nil {
			log.Error("command failed", "action", action, "error", err)
			reply.Error = "internal error"
			return reply, true
		}

		reply.Error = err.Error()
		return reply, true
	}

	reply.Payload = payload

	return reply, true
}

// Start subscribes to the request channel and serves commands until ctx is canceled.
func (that *Server) Start(ctx context.Context) error {
	log := that.logger.With("method", "Start")

	pubsub := that.client.Subscribe(ctx, that.options.RequestChannel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			log.Error("failed to close subscription", "error", err)
		}
	}()

	// wait for the subscription to be confirmed before reading
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", that.options.RequestChannel, err)
	}

	log.Info("listening", "channel", that.options.RequestChannel, "reply_channel", that.options.ReplyChannel)

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Info("bus stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			reply, handled := that.Dispatch(ctx, msg.Payload)
			if !handled {
				continue
			}

			if err := that.publish(ctx, reply); err != nil {
				log.Error("failed to publish reply", "action", reply.Action, "error", err)
			}
		}
	}
}

func (that *Server) publish(ctx context.Context, reply *Message) error {
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	if err = that.client.Publish(ctx, that.options.ReplyChannel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	return nil
}
