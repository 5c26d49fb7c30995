package engine

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Constructor builds an engine of a specific type from its decoded settings
// block and the shared options.
type Constructor func(settings map[string]any, opts Options) (Engine, error)

var constructors = map[string]Constructor{}

// RegisterType registers an engine constructor under a type name. Called
// from engine implementation packages at init time.
func RegisterType(typ string, ctor Constructor) {
	constructors[typ] = ctor
}

// New creates an engine of the configured type.
func New(typ string, settings map[string]any, opts Options) (Engine, error) {
	ctor, ok := constructors[typ]
	if !ok {
		return nil, errors.Newf("unsupported engine type: %s", typ)
	}

	zlog.Debug().Msgf("engine: creating engine: type=%s settings=%+v", typ, settings)
	eng, err := ctor(settings, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create engine (type %s)", typ)
	}
	return eng, nil
}
