package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/katacr/go-oneblock/internal/display"
	"github.com/katacr/go-oneblock/internal/game"
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/prompt"
	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/world"
)

const commandPrompt = "oneblock> "

// Service is what the console administers.
type Service interface {
	Stages() ([]string, error)
	StageKeys() ([]storage.Identifier, error)
	HasStage(id string) bool
	Suggest(id string) []string
	ResolvePlayer(nameOrID string) (string, error)
	Status(playerID string) (game.Status, error)
	Players() []progress.Progress
	SetStage(ctx context.Context, playerID, stageID string) (progress.Progress, error)
	ResetStage(ctx context.Context, playerID string) (progress.Progress, error)
	Forget(ctx context.Context, playerID string) error
	Reload(ctx context.Context)
	SetDebug(enabled bool)
	Debug() bool
	SetAudit(enabled bool) bool
	AuditEnabled() bool
	Chest(ctx context.Context, pos world.Position) ([]game.ChestSlot, error)
}

// Runner runs fn on the game tick and waits for it.
type Runner interface {
	Do(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

var errQuit = errors.New("quit")

type handler func(ctx context.Context, rw io.ReadWriter, args []string) (string, error)

type command struct {
	usage string
	help  string
	run   handler
}

// Console runs admin sessions over line based connections.
type Console struct {
	svc      Service
	runner   Runner
	commands map[string]command
}

func New(svc Service, runner Runner) *Console {
	c := &Console{svc: svc, runner: runner}
	c.commands = map[string]command{
		"help":   {usage: "help", help: "list commands", run: c.help},
		"stages": {usage: "stages", help: "list stage documents", run: c.stages},
		"status": {usage: "status [player]", help: "show progress of one or every player", run: c.status},
		"set":    {usage: "set <player> [stage]", help: "move a player to a stage", run: c.set},
		"reset":  {usage: "reset <player> [all]", help: "move a player back to the first stage, or forget them", run: c.reset},
		"debug":  {usage: "debug [on|off]", help: "show or switch placement debug messages", run: c.debug},
		"log":    {usage: "log [on|off]", help: "show or switch the audit log", run: c.log},
		"chest":  {usage: "chest <world> <x> <y> <z>", help: "list the items in a chest", run: c.chest},
		"reload": {usage: "reload", help: "reload stage, chest and entity documents", run: c.reload},
		"quit":   {usage: "quit", help: "close the session", run: c.quit},
	}
	return c
}

// AcceptConnection runs a session and logs how it ended.
func (c *Console) AcceptConnection(ctx context.Context, rw io.ReadWriter) {
	err := c.RunSession(ctx, rw)
	if err != nil {
		slog.WarnContext(ctx, "console session", "error", err)
	}
}

// RunSession reads commands until the client quits or disconnects.
func (c *Console) RunSession(ctx context.Context, rw io.ReadWriter) error {
	conn := prompt.Wrap(rw)
	err := c.write(conn, "&6OneBlock admin console&r. Type 'help' for commands.\n")
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := conn.Line(commandPrompt)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading command: %w", err)
		}

		out, err := c.Exec(ctx, conn, line)
		if errors.Is(err, errQuit) {
			return c.write(conn, out)
		}
		if err != nil {
			out = "&c" + display.Capitalize(err.Error()) + "\n"
		}
		err = c.write(conn, out)
		if err != nil {
			return err
		}
	}
}

// Exec runs one command line and returns its output.
func (c *Console) Exec(ctx context.Context, rw io.ReadWriter, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	cmd, ok := c.commands[strings.ToLower(fields[0])]
	if !ok {
		return "", fmt.Errorf("unknown command %q, try 'help'", fields[0])
	}
	return cmd.run(ctx, rw, fields[1:])
}

func (c *Console) write(w io.Writer, s string) error {
	if s == "" {
		return nil
	}
	_, err := io.WriteString(w, display.Wrap(display.ToANSI(s)))
	return err
}
