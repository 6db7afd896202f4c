package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/cmddoctor/internal/diagnose"
	"github.com/ppiankov/cmddoctor/internal/host"
)

// Request names the subject of a diagnosis by reference. Channel and Member
// accept a name or an ID; Command is a qualified command name.
type Request struct {
	Channel string `json:"channel" yaml:"channel"`
	Member  string `json:"member" yaml:"member"`
	Command string `json:"command" yaml:"command"`
}

// ErrNotFound is wrapped by lookups of channels and members absent from the snapshot.
var ErrNotFound = errors.New("not found")

// RefusalError is returned when a request is turned down before any check
// runs. Message is the reply the requester would see.
type RefusalError struct {
	Message string
}

func (e *RefusalError) Error() string { return e.Message }

// Diagnose resolves req and runs a diagnosis on behalf of the first owner.
// Unknown commands and members who cannot post in the channel are refused
// with a *RefusalError.
func (h *Host) Diagnose(ctx context.Context, req Request, opts diagnose.Options) (diagnose.Report, error) {
	channel, member, cmd, err := h.resolveRequest(req)
	if err != nil {
		return diagnose.Report{}, err
	}
	return diagnose.New(h, h.Invoker(channel), channel, member, cmd, opts).Report(ctx)
}

func (h *Host) resolveRequest(req Request) (*host.Channel, *host.Member, *host.Command, error) {
	channel, err := h.ResolveChannel(req.Channel)
	if err != nil {
		return nil, nil, nil, err
	}
	member, err := h.ResolveMember(channel, req.Member)
	if err != nil {
		return nil, nil, nil, err
	}
	cmd := h.ResolveCommand(req.Command)
	if cmd == nil {
		return nil, nil, nil, &RefusalError{Message: "Command not found!"}
	}
	if !h.MemberCanSend(channel, member) {
		return nil, nil, nil, &RefusalError{Message: fmt.Sprintf(
			"Don't try to fool me, the given member can't access the %s channel.", channel.Mention())}
	}
	return channel, member, cmd, nil
}
