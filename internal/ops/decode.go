package ops

import (
	"github.com/mitchellh/mapstructure"

	"github.com/puran-water/dexpi-engine/internal/errs"
)

// DecodeParams decodes an untyped params map into a typed struct, the way
// the teacher's components decode node configuration via maps.Map2Struct.
// WeaklyTypedInput is enabled so callers coming from a JSON-ish boundary
// (numbers as float64, etc.) are not forced to pre-convert every field.
func DecodeParams(params map[string]any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return errs.Wrap(errs.InvalidPayload, "building operation params decoder", err)
	}
	if err := dec.Decode(params); err != nil {
		return errs.Wrap(errs.InvalidPayload, "decoding operation params", err)
	}
	return nil
}
