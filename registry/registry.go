// Package registry routes HTTP requests to component pages. Each route
// owns a factory that builds a fresh component instance per request; the
// registry renders it, writes the markup, and funnels failures through a
// replaceable error handler.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vcrobe/hydro/encoding"
	"github.com/vcrobe/hydro/runtime"
)

// ErrNotFound is returned by factories when the requested resource does
// not exist. The default error handler maps it to 404.
var ErrNotFound = errors.New("registry: not found")

// IsNotFound checks if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Factory builds the page component for one request. Factories typically
// decode props from the request and seed the component's initial state.
type Factory func(r *http.Request) (runtime.Component, error)

// Pages is the page registry. It implements http.Handler.
type Pages struct {
	mu     sync.RWMutex
	mux    *http.ServeMux
	codec  *encoding.Codec
	routes map[string]Factory
	log    *slog.Logger

	// OnError is called when a factory or render fails. Replace it to
	// customize error responses.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// New creates a registry. The secret signs props tokens; it should be at
// least 32 bytes of random data in production.
func New(secret []byte, log *slog.Logger) *Pages {
	codec, err := encoding.NewCodec(secret)
	if err != nil {
		panic(fmt.Sprintf("registry: create codec: %v", err))
	}
	if log == nil {
		log = slog.Default()
	}

	p := &Pages{
		mux:    http.NewServeMux(),
		codec:  codec,
		routes: make(map[string]Factory),
		log:    log,
	}
	p.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		switch {
		case IsNotFound(err):
			http.Error(w, "Not found", http.StatusNotFound)
		case errors.Is(err, encoding.ErrSignatureInvalid),
			errors.Is(err, encoding.ErrInvalidFormat),
			errors.Is(err, encoding.ErrDecryptFailed):
			http.Error(w, "Bad request", http.StatusBadRequest)
		default:
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
	}
	return p
}

// Codec returns the props codec, for building links that carry state.
func (p *Pages) Codec() *encoding.Codec {
	return p.codec
}

// Handle registers a page factory under a mux pattern. Panics on a
// pattern collision.
func (p *Pages) Handle(pattern string, fn Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.routes[pattern]; exists {
		panic(fmt.Sprintf("registry: pattern collision for %q", pattern))
	}
	p.routes[pattern] = fn
	p.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		p.serve(w, r, pattern, fn)
	})
}

// HandleComponent registers a page whose component needs no per-request
// construction beyond calling the given constructor.
func (p *Pages) HandleComponent(pattern string, construct func() runtime.Component) {
	p.Handle(pattern, func(*http.Request) (runtime.Component, error) {
		return construct(), nil
	})
}

// Props decodes the signed "props" parameter of a request into v.
func (p *Pages) Props(r *http.Request, v any) error {
	token := r.URL.Query().Get("props")
	if token == "" {
		token = r.PostFormValue("props")
	}
	if token == "" {
		return encoding.ErrInvalidFormat
	}
	return p.codec.Decode(token, v)
}

func (p *Pages) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

func (p *Pages) serve(w http.ResponseWriter, r *http.Request, pattern string, fn Factory) {
	start := time.Now()

	comp, err := fn(r)
	if err != nil {
		p.log.Error("page factory failed", "pattern", pattern, "error", err)
		p.OnError(w, r, err)
		return
	}

	out, err := runtime.RenderPage(comp, r)
	if err != nil {
		p.log.Error("page render failed", "pattern", pattern, "error", err)
		p.OnError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(out)); err != nil {
		p.log.Error("page write failed", "pattern", pattern, "error", err)
		return
	}
	p.log.Info("page rendered",
		"pattern", pattern,
		"method", r.Method,
		"duration", time.Since(start),
	)
}
