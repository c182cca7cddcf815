package config

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// CustomHooks are applied in addition to viper's defaults whenever a
// configuration struct is decoded.
var CustomHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		DurationSecondsHookFunc(),
	)),
}

// DurationSecondsHookFunc allows a time.Duration field to be specified in
// configuration as a bare integer, interpreted as a number of seconds, in
// addition to viper's usual "30s"-style duration strings.
func DurationSecondsHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		default:
			return data, nil
		}
	}
}
