package synccmd

import (
	"github.com/goliatone/go-wikisync/internal/commands"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Register builds the sync handler and registers it with reg when one is supplied.
func Register(reg CommandRegistry, service Service, provider interfaces.LoggerProvider, sink ResultSink, opts ...commands.HandlerOption[SyncTreeCommand]) (*SyncTreeHandler, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	handler := NewSyncTreeHandler(service, commands.CommandLogger(provider, "sync"), sink, opts...)
	if reg != nil {
		if err := reg.RegisterCommand(handler); err != nil {
			return nil, err
		}
	}
	return handler, nil
}
