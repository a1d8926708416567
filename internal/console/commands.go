package console

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/katacr/go-oneblock/internal/game"
	"github.com/katacr/go-oneblock/internal/progress"
	"github.com/katacr/go-oneblock/internal/prompt"
	"github.com/katacr/go-oneblock/internal/storage"
	"github.com/katacr/go-oneblock/internal/world"
)

func (c *Console) help(_ context.Context, _ io.ReadWriter, _ []string) (string, error) {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var sb strings.Builder
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(&sb, "&e%-22s&r %s\n", cmd.usage, cmd.help)
	}
	return sb.String(), nil
}

func (c *Console) stages(_ context.Context, _ io.ReadWriter, _ []string) (string, error) {
	ids, err := c.svc.Stages()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "No stages found.\n", nil
	}
	return "Stages: " + strings.Join(ids, ", ") + "\n", nil
}

func (c *Console) status(ctx context.Context, _ io.ReadWriter, args []string) (string, error) {
	if len(args) == 0 {
		var players []progress.Progress
		err := c.runner.Do(ctx, "console status", func(context.Context) error {
			players = c.svc.Players()
			return nil
		})
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Debug: %s  Audit log: %s\n", onOff(c.svc.Debug()), onOff(c.svc.AuditEnabled()))
		if len(players) == 0 {
			sb.WriteString("No players have progress.\n")
		}
		for _, p := range players {
			fmt.Fprintf(&sb, "%s  &a%s&r  %d broken\n", p.PlayerID, p.StageID, p.BlocksBroken)
		}
		return sb.String(), nil
	}

	var out string
	err := c.runner.Do(ctx, "console status", func(context.Context) error {
		id, err := c.svc.ResolvePlayer(args[0])
		if err != nil {
			return err
		}
		st, err := c.svc.Status(id)
		if err != nil {
			return err
		}

		name := st.Name
		if name == "" {
			name = id
		}
		out = fmt.Sprintf("%s is on &a%s&r with %d", name, st.Progress.StageID, st.Progress.BlocksBroken)
		if st.Threshold > 0 {
			out += fmt.Sprintf("/%d", st.Threshold)
		}
		out += " blocks broken"
		if st.Next != "" {
			out += ", next stage &a" + st.Next + "&r"
		}
		out += ".\n"
		return nil
	})
	return out, err
}

func (c *Console) set(ctx context.Context, rw io.ReadWriter, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("usage: %s", c.commands["set"].usage)
	}

	var stageID string
	if len(args) > 1 {
		stageID = args[1]
	} else {
		sel, err := storage.NewMenu(stageLister{c.svc})
		if err != nil {
			return "", err
		}
		id, err := sel.Prompt(rw, "Which stage?")
		if err != nil {
			return "", err
		}
		stageID = id.String()
	}

	if !c.svc.HasStage(stageID) {
		msg := fmt.Sprintf("stage %q not found", stageID)
		if s := c.svc.Suggest(stageID); len(s) > 0 {
			msg += ", did you mean " + strings.Join(s, ", ") + "?"
		}
		return "", fmt.Errorf("%s", msg)
	}

	var p progress.Progress
	err := c.runner.Do(ctx, "console set", func(ctx context.Context) error {
		id, err := c.svc.ResolvePlayer(args[0])
		if err != nil {
			return err
		}
		p, err = c.svc.SetStage(ctx, id, stageID)
		return err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("&aMoved %s to %s.\n", args[0], p.StageID), nil
}

func (c *Console) reset(ctx context.Context, rw io.ReadWriter, args []string) (string, error) {
	if len(args) < 1 {
		return "", fmt.Errorf("usage: %s", c.commands["reset"].usage)
	}

	if len(args) > 1 && strings.EqualFold(args[1], "all") {
		ok, err := prompt.YesNo(rw, fmt.Sprintf("Forget all progress of %s? ", args[0]))
		if err != nil {
			return "", err
		}
		if !ok {
			return "Cancelled.\n", nil
		}

		err = c.runner.Do(ctx, "console forget", func(ctx context.Context) error {
			id, err := c.svc.ResolvePlayer(args[0])
			if err != nil {
				return err
			}
			return c.svc.Forget(ctx, id)
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("&aForgot %s.\n", args[0]), nil
	}

	var p progress.Progress
	err := c.runner.Do(ctx, "console reset", func(ctx context.Context) error {
		id, err := c.svc.ResolvePlayer(args[0])
		if err != nil {
			return err
		}
		p, err = c.svc.ResetStage(ctx, id)
		return err
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("&aReset %s to %s.\n", args[0], p.StageID), nil
}

func (c *Console) debug(ctx context.Context, _ io.ReadWriter, args []string) (string, error) {
	if len(args) == 0 {
		return "Debug is " + onOff(c.svc.Debug()) + ".\n", nil
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return "", err
	}
	c.svc.SetDebug(enabled)
	return "Debug is now " + onOff(enabled) + ".\n", nil
}

func (c *Console) log(ctx context.Context, _ io.ReadWriter, args []string) (string, error) {
	if len(args) == 0 {
		return "Audit log is " + onOff(c.svc.AuditEnabled()) + ".\n", nil
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return "", err
	}
	if !c.svc.SetAudit(enabled) {
		return "", fmt.Errorf("no audit log configured")
	}
	return "Audit log is now " + onOff(enabled) + ".\n", nil
}

func (c *Console) chest(ctx context.Context, _ io.ReadWriter, args []string) (string, error) {
	if len(args) != 4 {
		return "", fmt.Errorf("usage: %s", c.commands["chest"].usage)
	}
	pos := world.Position{World: args[0]}
	for i, dst := range []*int{&pos.X, &pos.Y, &pos.Z} {
		n, err := strconv.Atoi(args[i+1])
		if err != nil {
			return "", fmt.Errorf("bad coordinate %q", args[i+1])
		}
		*dst = n
	}

	var slots []game.ChestSlot
	err := c.runner.Do(ctx, "console chest", func(ctx context.Context) error {
		var err error
		slots, err = c.svc.Chest(ctx, pos)
		return err
	})
	if err != nil {
		return "", err
	}
	if len(slots) == 0 {
		return fmt.Sprintf("Chest at %s is empty.\n", pos), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Chest at %s:\n", pos)
	for _, s := range slots {
		fmt.Fprintf(&sb, "&e%2d&r %s\n", s.Slot, describeItem(s.Item))
	}
	return sb.String(), nil
}

func describeItem(it world.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%dx %s", it.Amount, it.Material)
	if it.Name != "" {
		fmt.Fprintf(&sb, " %q", it.Name)
	}
	if it.PotionType != "" {
		sb.WriteString(" potion=" + it.PotionType)
	}
	for _, e := range it.Effects {
		fmt.Fprintf(&sb, " effect=%s:%d:%d", e.Type, e.Amplifier, e.Duration)
	}
	if len(it.Enchantments) > 0 {
		sb.WriteString(" enchants=" + levelList(it.Enchantments))
	}
	if len(it.StoredEnchantments) > 0 {
		sb.WriteString(" stored=" + levelList(it.StoredEnchantments))
	}
	return sb.String()
}

func levelList(levels map[string]int) string {
	parts := make([]string, 0, len(levels))
	for _, k := range slices.Sorted(maps.Keys(levels)) {
		parts = append(parts, fmt.Sprintf("%s:%d", k, levels[k]))
	}
	return strings.Join(parts, ",")
}

func (c *Console) reload(ctx context.Context, _ io.ReadWriter, _ []string) (string, error) {
	err := c.runner.Do(ctx, "console reload", func(ctx context.Context) error {
		c.svc.Reload(ctx)
		return nil
	})
	if err != nil {
		return "", err
	}
	return "&aConfiguration reloaded.\n", nil
}

func (c *Console) quit(_ context.Context, _ io.ReadWriter, _ []string) (string, error) {
	return "Bye.\n", errQuit
}

type stageLister struct {
	svc Service
}

func (l stageLister) Keys() ([]storage.Identifier, error) {
	return l.svc.StageKeys()
}

func onOff(b bool) string {
	if b {
		return "&aon&r"
	}
	return "&coff&r"
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected 'on' or 'off', got %q", s)
	}
}
