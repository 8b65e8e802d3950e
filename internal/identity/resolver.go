// Package identity finds the intent id for the current page load.
package identity

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/headline-goat/intent-goat/internal/page"
	"github.com/headline-goat/intent-goat/internal/surface"
)

// DefaultMarker is the data attribute that carries the intent id in host
// markup.
const DefaultMarker = "data-intent-id"

// Source yields an intent id, or "" when it has none.
type Source interface {
	Name() string
	IntentID() (string, error)
}

// Resolver consults its sources in order; the first non-empty id wins.
type Resolver struct {
	sources []Source
	logger  *zap.Logger
}

func NewResolver(logger *zap.Logger, sources ...Source) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{sources: sources, logger: logger}
}

// Resolve returns the intent id. ok is false when no source produced one,
// in which case the caller must not initialize.
func (r *Resolver) Resolve() (id string, ok bool) {
	for _, src := range r.sources {
		id, err := r.lookup(src)
		if err != nil {
			r.logger.Error("intent lookup failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		if id != "" {
			r.logger.Debug("intent resolved", zap.String("source", src.Name()), zap.String("intent_id", id))
			return id, true
		}
	}

	r.logger.Warn("no intent id found, tracking disabled for this page")
	return "", false
}

func (r *Resolver) lookup(src Source) (id string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s source: %v", src.Name(), p)
		}
	}()

	id, err = src.IntentID()
	return strings.TrimSpace(id), err
}

// DOMSource reads the marker attribute of the first element carrying it.
type DOMSource struct {
	Doc    *page.Document
	Marker string
}

func (s DOMSource) Name() string { return "dom" }

func (s DOMSource) IntentID() (string, error) {
	marker := s.Marker
	if marker == "" {
		marker = DefaultMarker
	}
	v, _ := s.Doc.Attr(marker)
	return v, nil
}

// GlobalSource reads an intent id the host stored on the surface before
// the widget started.
type GlobalSource struct {
	Surface *surface.Surface
}

func (s GlobalSource) Name() string { return "global" }

func (s GlobalSource) IntentID() (string, error) {
	if s.Surface == nil {
		return "", nil
	}
	return s.Surface.Intent(), nil
}
