// Package control translates viewer input into device key and touch commands.
package control

import (
	"context"

	"github.com/frudas24/devmirror/internal/session"
)

// Router applies control messages from any viewer transport and builds the status reply.
type Router struct {
	mapper *Mapper
	sess   *session.Session
}

// NewRouter returns a router over mapper.
func NewRouter(mapper *Mapper, sess *session.Session) *Router {
	return &Router{mapper: mapper, sess: sess}
}

// Mapper returns the underlying mapper.
func (r *Router) Mapper() *Mapper {
	return r.mapper
}

// Apply handles one message and returns the reply to send back. ok is false
// when the message warrants no reply (dropped by pacing or unknown).
func (r *Router) Apply(ctx context.Context, msg Message) (Message, bool) {
	var out Outcome
	switch msg.T {
	case MsgToggleMode:
		out = r.mapper.Toggle()
	case MsgLaunch:
		out = r.mapper.LaunchApp(ctx, msg.Pkg)
	case MsgHome:
		out = r.mapper.RestartHome(ctx)
	case MsgInputEnabled:
		if msg.Enabled != nil {
			r.sess.SetInputEnabled(*msg.Enabled)
		}
		if r.sess.InputEnabled() {
			out.Status = "Input enabled"
		} else {
			out.Status = "Input disabled"
		}
	default:
		ev, ok := msg.ToEvent(r.mapper.opts.Layout)
		if !ok {
			return Message{}, false
		}
		out = r.mapper.Handle(ctx, ev)
		if out.Dropped || out.Status == "" {
			return Message{}, false
		}
	}
	return r.Status(out.Status), true
}

// Status builds a status reply carrying the current mode.
func (r *Router) Status(text string) Message {
	return Message{T: MsgStatus, Text: text, Mode: r.sess.Mode().String()}
}
