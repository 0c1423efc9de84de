package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playmatatu/pocketpool/internal/game"
	"github.com/playmatatu/pocketpool/internal/predict"
	"github.com/playmatatu/pocketpool/internal/shot"
)

var (
	predictLevel int
	predictAngle float64
	predictPower float64
	predictSteps int
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Print the predicted cue ball path for one aim",
	Long: `Racks the level, aims the cue ball with the keyboard controller and
prints the path the predictor would draw for that shot.`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().IntVar(&predictLevel, "level", -1, "Level id (default: the start level)")
	predictCmd.Flags().Float64Var(&predictAngle, "angle", 0, "Shot direction in radians")
	predictCmd.Flags().Float64Var(&predictPower, "power", 0.5, "Shot power in [0.01, 1]")
	predictCmd.Flags().IntVar(&predictSteps, "steps", predict.DefaultSteps, "Number of path samples")
}

func runPredict(cmd *cobra.Command, args []string) error {
	a, err := parseAim(fmt.Sprintf("%g:%g", predictAngle, predictPower))
	if err != nil {
		return err
	}
	s, err := newSession(game.Options{PredictionSteps: predictSteps}, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := startLevel(s, predictLevel); err != nil {
		return err
	}
	if err := steer(s, a); err != nil {
		return err
	}
	s.FixedStep()

	lv, _ := s.Match().Level()
	path := s.Predictor().Path()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Level %d (%s), aim %s, force %.1f\n", lv.ID, lv.Name, a, s.Controller().ShotForce().Magnitude())
	fmt.Fprintf(out, "Color %s\n", path.Color)
	if lv.Table == nil {
		fmt.Fprintln(out, "Level has no table geometry; the path ignores cushions and pockets")
	}
	for i, p := range path.Points {
		fmt.Fprintf(out, "  %3d  %10.1f %10.1f\n", i+1, p.X, p.Y)
	}
	return nil
}

// newSession builds a stepped-by-hand session on the keyboard controller.
func newSession(opts game.Options, outbox game.Outbox) (*game.Session, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	opts.PhysicsHz = flagHz
	opts.Controller = shot.ControllerKeyboard
	return game.NewSession("tablesim", settings, opts, outbox, newLogger())
}
