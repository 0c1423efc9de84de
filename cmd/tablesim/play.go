package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/shot"
)

// maxSettleSeconds bounds how long one shot may take to come to rest.
const maxSettleSeconds = 120

var triggerFrame = shot.Input{Keys: shot.Keys{Trigger: true}}

var (
	playLevel int
	playShots []string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a scripted match",
	Long: `Starts a match and plays each --shot in order. Every shot is aimed with
the keyboard controller, committed, and the table is stepped until it
settles. Match events are printed as they happen.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playLevel, "level", -1, "Level id (default: the start level)")
	playCmd.Flags().StringArrayVar(&playShots, "shot", nil, "Shot as angle:power, repeatable")
}

func runPlay(cmd *cobra.Command, args []string) error {
	aims := make([]aim, 0, len(playShots))
	for _, raw := range playShots {
		a, err := parseAim(raw)
		if err != nil {
			return err
		}
		aims = append(aims, a)
	}
	if len(aims) == 0 {
		return fmt.Errorf("no shots given, use --shot angle:power")
	}

	out := cmd.OutOrStdout()
	var result *game.Result
	opts := game.Options{OnResult: func(r game.Result) { result = &r }}
	s, err := newSession(opts, game.OutboxFunc(func(n game.Notification) {
		printNotification(out, n)
	}))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := startLevel(s, playLevel); err != nil {
		return err
	}

	limit := maxSettleSeconds * flagHz
	for i, a := range aims {
		if !s.Controller().Enabled() {
			fmt.Fprintf(out, "Shot %d (%s) skipped: %s\n", i+1, a, s.Match().State())
			continue
		}
		fmt.Fprintf(out, "Shot %d: %s\n", i+1, a)
		if err := steer(s, a); err != nil {
			return err
		}
		s.Frame(&triggerFrame)

		steps := 0
		for {
			s.FixedStep()
			steps++
			if s.Settled() {
				break
			}
			if steps >= limit {
				return fmt.Errorf("shot %d did not settle within %ds", i+1, maxSettleSeconds)
			}
		}
		fmt.Fprintf(out, "  settled after %d steps\n", steps)
	}

	snap := s.Snapshot()
	fmt.Fprintf(out, "Final: state %s, score %d, shots %d\n", snap.State, snap.Score, snap.Shots)
	if result != nil {
		fmt.Fprintf(out, "Result: won=%t in %d shots on %s\n", result.Won, result.Shots, result.LevelName)
	}
	return nil
}

func printNotification(w io.Writer, n game.Notification) {
	switch n.Type {
	case game.NotifySnapshot, game.NotifyShotTriggered:
		return
	case game.NotifyScoreChanged:
		fmt.Fprintf(w, "  score %d\n", *n.Score)
	case game.NotifyLevelChanged:
		fmt.Fprintf(w, "  level %d (%s)\n", n.Level.ID, n.Level.Name)
	case game.NotifyBallPocketed:
		fmt.Fprintf(w, "  %s ball %d pocketed\n", n.Ball.Color, n.Ball.ID)
	case game.NotifyGameOver:
		if n.Won != nil && *n.Won {
			fmt.Fprintln(w, "  game over: won")
		} else {
			fmt.Fprintln(w, "  game over: lost")
		}
	default:
		fmt.Fprintf(w, "  %s\n", n.Type)
	}
}
