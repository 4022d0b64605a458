// Package history implements undo/redo for scene operations as a command
// stack. Every user-visible mutation is expressed as a Command that knows
// how to apply itself to a scene and how to take itself back; the Stack
// owns ordering and the redo lifecycle.
package history

import (
	"log/slog"

	"github.com/namuan/whiteboard/pkg/core"
)

// Command is one reversible scene operation. Apply runs it, Revert takes it
// back. A command may be applied again after a revert (redo) and must
// restore the same entity identifiers it created the first time, so later
// commands referencing them stay valid.
type Command interface {
	Apply(s *core.Scene) error
	Revert(s *core.Scene) error
	Description() string
}

// StackConfig configures a history stack.
type StackConfig struct {
	Scene *core.Scene

	// OnChange, when set, fires after every successful stack mutation.
	// Useful for menu enablement.
	OnChange func()

	Logger *slog.Logger
}

// Stack manages command history for one scene. Not safe for concurrent use;
// it mutates the scene and follows the scene's single-goroutine rule.
type Stack struct {
	scene    *core.Scene
	onChange func()
	logger   *slog.Logger

	undo []Command
	redo []Command
}

// NewStack creates an empty history stack bound to a scene.
func NewStack(config StackConfig) *Stack {
	return &Stack{
		scene:    config.Scene,
		onChange: config.OnChange,
		logger:   config.Logger,
	}
}

// Do applies a command and pushes it onto the undo stack, clearing the redo
// stack. A command that fails to apply is not pushed and the stacks are
// left as they were.
func (st *Stack) Do(cmd Command) error {
	if err := cmd.Apply(st.scene); err != nil {
		if st.logger != nil {
			st.logger.Error("command failed", "command", cmd.Description(), "error", err)
		}
		return err
	}
	st.undo = append(st.undo, cmd)
	st.redo = st.redo[:0]
	if st.logger != nil {
		st.logger.Debug("command applied", "command", cmd.Description())
	}
	st.notify()
	return nil
}

// Undo takes back the most recent command. With an empty undo stack it does
// nothing. A command whose revert fails is dropped from the history rather
// than retried; the error is returned.
func (st *Stack) Undo() error {
	if len(st.undo) == 0 {
		return nil
	}
	cmd := st.undo[len(st.undo)-1]
	st.undo = st.undo[:len(st.undo)-1]
	if err := cmd.Revert(st.scene); err != nil {
		if st.logger != nil {
			st.logger.Error("undo failed", "command", cmd.Description(), "error", err)
		}
		st.notify()
		return err
	}
	st.redo = append(st.redo, cmd)
	if st.logger != nil {
		st.logger.Debug("undone", "command", cmd.Description())
	}
	st.notify()
	return nil
}

// Redo reapplies the most recently undone command. With an empty redo stack
// it does nothing.
func (st *Stack) Redo() error {
	if len(st.redo) == 0 {
		return nil
	}
	cmd := st.redo[len(st.redo)-1]
	st.redo = st.redo[:len(st.redo)-1]
	if err := cmd.Apply(st.scene); err != nil {
		if st.logger != nil {
			st.logger.Error("redo failed", "command", cmd.Description(), "error", err)
		}
		st.notify()
		return err
	}
	st.undo = append(st.undo, cmd)
	if st.logger != nil {
		st.logger.Debug("redone", "command", cmd.Description())
	}
	st.notify()
	return nil
}

// Clear empties both stacks, e.g. after loading a different document.
func (st *Stack) Clear() {
	st.undo = st.undo[:0]
	st.redo = st.redo[:0]
	st.notify()
}

// CanUndo reports whether an undo is available.
func (st *Stack) CanUndo() bool { return len(st.undo) > 0 }

// CanRedo reports whether a redo is available.
func (st *Stack) CanRedo() bool { return len(st.redo) > 0 }

// UndoDescription names the command Undo would take back, or "".
func (st *Stack) UndoDescription() string {
	if len(st.undo) == 0 {
		return ""
	}
	return st.undo[len(st.undo)-1].Description()
}

// RedoDescription names the command Redo would reapply, or "".
func (st *Stack) RedoDescription() string {
	if len(st.redo) == 0 {
		return ""
	}
	return st.redo[len(st.redo)-1].Description()
}

func (st *Stack) notify() {
	if st.onChange != nil {
		st.onChange()
	}
}
