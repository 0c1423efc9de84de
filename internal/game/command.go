package game

import (
	"errors"
	"fmt"

	"github.com/playmatatu/pocketpool/internal/shot"
)

// CommandName is the verb of a session command.
type CommandName string

const (
	CmdStart         CommandName = "start"
	CmdPause         CommandName = "pause"
	CmdResume        CommandName = "resume"
	CmdChangeLevel   CommandName = "change_level"
	CmdSetController CommandName = "set_controller"
	CmdQuit          CommandName = "quit"
)

// Command is a request to change a session's match.
type Command struct {
	Name       CommandName `json:"name" binding:"required"`
	Level      int         `json:"level"`
	Controller string      `json:"controller,omitempty"`
}

var errQuit = errors.New("quit requested")

// Apply executes cmd. It must run on the session goroutine, or on the
// caller's goroutine for a session that is stepped directly.
func (s *Session) Apply(cmd Command) error {
	switch cmd.Name {
	case CmdStart:
		s.match.StartGame()
	case CmdPause:
		s.match.PauseIfRunning()
	case CmdResume:
		s.match.ResumeIfPaused()
	case CmdChangeLevel:
		s.match.ChangeLevelAndStart(cmd.Level)
	case CmdSetController:
		kind, err := shot.ParseControllerType(cmd.Controller)
		if err != nil {
			return err
		}
		s.ctrl.SetController(kind)
	case CmdQuit:
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd.Name)
	}
	s.touch()
	s.publishSnapshot()
	return nil
}
