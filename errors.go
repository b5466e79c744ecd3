package relql

import (
	"github.com/zoobzio/relql/internal/render"
	"github.com/zoobzio/relql/internal/types"
)

// Sentinels matched by the typed errors with errors.Is.
var (
	ErrUnknownModel    = types.ErrUnknownModel
	ErrUnknownField    = types.ErrUnknownField
	ErrUnknownRelation = types.ErrUnknownRelation
	ErrStructural      = types.ErrStructural
	ErrMisuse          = types.ErrMisuse
	ErrUnsupported     = render.ErrUnsupported
)

// Typed errors raised while planning and rendering.
type (
	UnknownModelError       = types.UnknownModelError
	UnknownFieldError       = types.UnknownFieldError
	UnknownRelationError    = types.UnknownRelationError
	StructuralError         = types.StructuralError
	MisuseError             = types.MisuseError
	UnsupportedFeatureError = render.UnsupportedFeatureError
)
