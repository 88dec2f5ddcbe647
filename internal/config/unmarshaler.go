package config

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// decoderConfig returns the mapstructure configuration used for every
// section of the document. Weak typing lets environment overrides, which
// always arrive as strings, decode into booleans and integers.
func decoderConfig(out any) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			durationToMillisHookFunc(),
		),
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	}
}

// durationToMillisHookFunc accepts Go duration strings ("5s", "1m30s") for
// integer millisecond fields. Plain numeric strings are left to weak typing.
//
//nolint:ireturn // required by mapstructure.DecodeHookFunc interface
func durationToMillisHookFunc() mapstructure.DecodeHookFunc {
	return func(
		from reflect.Type,
		to reflect.Type,
		data any,
	) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.Int {
			return data, nil
		}

		s, _ := data.(string)

		d, err := time.ParseDuration(s)
		if err != nil {
			return data, nil //nolint:nilerr // not a duration, let weak typing try
		}

		return int(d / time.Millisecond), nil
	}
}
