// Package services implements the command handlers: one operation per
// use case, each opening a fresh session, mutating an aggregate,
// persisting it and emitting the corresponding domain event.
package services

import (
	"time"

	"github.com/scieloorg/documentstore/internal/domain"
	"github.com/scieloorg/documentstore/internal/store"
)

// DefaultFetchTimeout bounds a single object-store fetch issued on
// behalf of a command.
const DefaultFetchTimeout = 2 * time.Second

// Handlers is the full command set. All commands share a session
// factory with the default subscribers installed, so every successful
// mutation lands exactly one entry in the change log.
type Handlers struct {
	newSession store.SessionFactory
	getAssets  domain.AssetsGetter
	timeout    time.Duration
}

// Option customises a Handlers instance.
type Option func(*Handlers)

// WithFetchTimeout overrides the object-store fetch timeout.
func WithFetchTimeout(timeout time.Duration) Option {
	return func(h *Handlers) { h.timeout = timeout }
}

// NewHandlers returns the command set backed by factory. getAssets
// resolves document URLs into parsed XML plus asset references; it is
// normally (*objectstore.Client).AssetsGetter().
func NewHandlers(factory store.SessionFactory, getAssets domain.AssetsGetter, opts ...Option) *Handlers {
	h := &Handlers{
		newSession: factory,
		getAssets:  getAssets,
		timeout:    DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// session opens a unit of work with the default subscribers in place.
func (h *Handlers) session() store.Session {
	s := h.newSession()
	installDefaultSubscribers(s)
	return s
}
