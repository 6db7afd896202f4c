package host

import (
	"errors"
	"strings"
)

// commandError marks the structured errors a host raises while deciding
// whether a command may run. Anything else is an infrastructure failure.
type commandError interface {
	error
	commandError()
}

// CommandError is a generic check failure, optionally carrying a message
// written by the check's author.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return "command check failed"
	}
	return e.Message
}

func (e *CommandError) commandError() {}

// DisabledCommandError is raised when a command or its cog is disabled in the
// context's scope.
type DisabledCommandError struct {
	Name string
}

func (e *DisabledCommandError) Error() string {
	return e.Name + " command is disabled"
}

func (e *DisabledCommandError) commandError() {}

// BotMissingPermissionsError is raised when the bot lacks channel permissions
// required by a cog or command.
type BotMissingPermissionsError struct {
	Missing Permissions
}

func (e *BotMissingPermissionsError) Error() string {
	return "bot requires " + strings.Join(e.Missing, ", ") + " permission(s) to run this command"
}

func (e *BotMissingPermissionsError) commandError() {}

// IsCommandError reports whether err (or anything it wraps) is one of the
// structured authorization errors above.
func IsCommandError(err error) bool {
	var ce commandError
	return errors.As(err, &ce)
}

// ErrorMessage returns the author-supplied message of a structured error, or an
// empty string when it has none.
func ErrorMessage(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Message
	}
	var bmp *BotMissingPermissionsError
	if errors.As(err, &bmp) {
		return bmp.Error()
	}
	return ""
}
