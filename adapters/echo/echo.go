// Package hydroecho mounts a hydro page registry onto an Echo instance
// or group:
//
//	e := echo.New()
//	pages := hydroecho.Mount(e)
//	pages.HandleComponent("/", func() runtime.Component { return &Home{} })
package hydroecho

import (
	"crypto/rand"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/vcrobe/hydro/registry"
)

// Option configures Mount and MountGroup.
type Option func(*options)

type options struct {
	secret []byte
	path   string
	log    *slog.Logger
}

// WithSecret sets the props signing key. If not provided, a random key is
// generated; tokens then stop verifying across restarts, which is only
// acceptable in development.
func WithSecret(secret []byte) Option {
	return func(o *options) {
		o.secret = secret
	}
}

// WithPath sets the URL prefix pages are mounted under. Defaults to "/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithLogger sets the registry logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Mount creates a page registry and mounts it on an Echo instance.
func Mount(e *echo.Echo, opts ...Option) *registry.Pages {
	pages, path := build(opts)
	e.Any(path+"*", echo.WrapHandler(pages))
	return pages
}

// MountGroup mounts a page registry on an Echo group, so pages share the
// group's middleware.
func MountGroup(g *echo.Group, opts ...Option) *registry.Pages {
	pages, path := build(opts)
	g.Any(path+"*", echo.WrapHandler(pages))
	return pages
}

func build(opts []Option) (*registry.Pages, string) {
	o := options{path: "/"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.secret == nil {
		o.secret = make([]byte, 32)
		if _, err := rand.Read(o.secret); err != nil {
			panic(fmt.Sprintf("hydroecho: generate secret: %v", err))
		}
	}
	return registry.New(o.secret, o.log), o.path
}
