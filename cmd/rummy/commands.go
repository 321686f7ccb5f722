// cmd/rummy/commands.go
package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jason-s-yu/rummy/internal/config"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/jason-s-yu/rummy/internal/protocol"
	"github.com/jason-s-yu/rummy/internal/session"
)

const helpText = `commands:
  join <room>             join or rejoin a room
  start                   start the game (room creator)
  draw deck|discard       draw a card
  discard <card-id>       discard a card
  meld <id,id,id> [...]   lay down one or more melds
  drop                    drop out of the game
  leave                   leave the room
  back                    leave the result screen
  show                    print the table
  quit`

type cmdKind int

const (
	cmdJoin cmdKind = iota
	cmdStart
	cmdDraw
	cmdDiscard
	cmdMeld
	cmdDrop
	cmdLeave
	cmdBack
	cmdShow
	cmdQuit
)

type command struct {
	kind   cmdKind
	room   string
	source protocol.DrawSource
	card   models.CardID
	groups [][]models.CardID
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return command{kind: cmdShow}, nil
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "join":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: join <room>")
		}
		return command{kind: cmdJoin, room: args[0]}, nil
	case "start":
		return command{kind: cmdStart}, nil
	case "draw":
		src := protocol.DrawFromDeck
		if len(args) > 0 {
			src = protocol.DrawSource(strings.ToLower(args[0]))
		}
		if src != protocol.DrawFromDeck && src != protocol.DrawFromDiscard {
			return command{}, fmt.Errorf("usage: draw deck|discard")
		}
		return command{kind: cmdDraw, source: src}, nil
	case "discard":
		if len(args) != 1 {
			return command{}, fmt.Errorf("usage: discard <card-id>")
		}
		return command{kind: cmdDiscard, card: models.CardID(args[0])}, nil
	case "meld":
		if len(args) == 0 {
			return command{}, fmt.Errorf("usage: meld <id,id,id> [...]")
		}
		groups := make([][]models.CardID, 0, len(args))
		for _, a := range args {
			var g []models.CardID
			for _, id := range strings.Split(a, ",") {
				if id = strings.TrimSpace(id); id != "" {
					g = append(g, models.CardID(id))
				}
			}
			groups = append(groups, g)
		}
		return command{kind: cmdMeld, groups: groups}, nil
	case "drop":
		return command{kind: cmdDrop}, nil
	case "leave":
		return command{kind: cmdLeave}, nil
	case "back":
		return command{kind: cmdBack}, nil
	case "show":
		return command{kind: cmdShow}, nil
	case "quit", "exit":
		return command{kind: cmdQuit}, nil
	}
	return command{}, fmt.Errorf("unknown command %q", fields[0])
}

func execute(ctx context.Context, ctrl *session.Controller, cfg config.Config, cmd command) error {
	switch cmd.kind {
	case cmdJoin:
		return ctrl.Open(ctx, requestFromConfig(cfg, cmd.room))
	case cmdStart:
		return ctrl.StartGame(ctx)
	case cmdDraw:
		return ctrl.Draw(ctx, cmd.source)
	case cmdDiscard:
		return ctrl.Discard(ctx, cmd.card)
	case cmdMeld:
		return ctrl.LayDownMelds(ctx, cmd.groups)
	case cmdDrop:
		return ctrl.Drop(ctx)
	case cmdLeave:
		return ctrl.Leave(ctx)
	case cmdBack:
		return ctrl.NavigateAway(ctx)
	case cmdShow:
		v, err := ctrl.View(ctx)
		if err != nil {
			return err
		}
		fmt.Print(render(v))
	}
	return nil
}

// render prints a plain-text table view.
func render(v session.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "room %s [%s, %s]\n", orDash(v.Session.RoomID), v.State, v.Conn)
	for _, p := range v.Session.Players {
		mark := " "
		if p.ID == v.CurrentPlayer {
			mark = ">"
		}
		status := ""
		if !p.Connected {
			status = " (offline)"
		}
		if p.Status != "" {
			status += " (" + p.Status + ")"
		}
		total := ""
		if p.TotalScore != 0 {
			total = fmt.Sprintf(" total=%d", p.TotalScore)
		}
		fmt.Fprintf(&b, " %s %s score=%d%s%s\n", mark, orDash(p.DisplayName+" "+string(p.ID)), p.Score, total, status)
	}
	if wc := v.WildCard; wc != nil {
		fmt.Fprintf(&b, "wild: %s\n", wc.Face)
	}
	if top, ok := v.DiscardTop(); ok {
		fmt.Fprintf(&b, "discard: %s (deck %d)\n", top.Face, v.DeckSize)
	}
	if len(v.Hand) > 0 {
		parts := make([]string, len(v.Hand))
		for i, c := range v.Hand {
			parts[i] = fmt.Sprintf("%s=%s", c.ID, c.Face)
		}
		suffix := ""
		if v.Provisional {
			suffix = " *"
		}
		fmt.Fprintf(&b, "hand: %s%s\n", strings.Join(parts, " "), suffix)
	}
	ids := make([]string, 0, len(v.Melds))
	for id := range v.Melds {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, m := range v.Melds[models.PlayerID(id)] {
			faces := make([]string, len(m.Cards))
			for i, c := range m.Cards {
				faces[i] = c.Face.String()
			}
			fmt.Fprintf(&b, "meld %s %s: %s\n", id, m.Kind, strings.Join(faces, " "))
		}
	}
	fmt.Fprintf(&b, "turn: %s\n", v.Turn)
	if r := v.Result; r != nil {
		fmt.Fprintf(&b, "result: %s (winner %s, prize %.2f)\n", r.Message, r.WinnerID, r.Prize)
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
