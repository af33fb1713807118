package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var durationType = reflect.TypeOf(time.Duration(0))

// GetEnv loads .env (if present) and fills Config from the environment.
// Fields fall back to their envDefault tag when the variable is not set.
func GetEnv() (config *Config, er error) {
	err := godotenv.Load()
	if err != nil {
		_ = godotenv.Load("../../.env")
	}

	config = &Config{}
	if err := Load(config, os.LookupEnv); err != nil {
		return nil, err
	}

	if !config.AppEnv.IsValid() {
		return nil, fmt.Errorf("invalid value for APP_ENV: %q", config.AppEnv)
	}

	return config, nil
}

// Load fills the env-tagged fields of target, which must be a pointer to a struct.
func Load(target any, lookup func(string) (string, bool)) (er error) {
	v := reflect.ValueOf(target).Elem()
	t := v.Type()

	for i := range make([]struct{}, v.NumField()) {
		field := t.Field(i)
		envTag := field.Tag.Get("env")
		if envTag == "" {
			continue
		}

		value, exists := lookup(envTag)
		if !exists {
			def, hasDefault := field.Tag.Lookup("envDefault")
			if !hasDefault {
				return fmt.Errorf("environment variable %s not set", envTag)
			}
			value = def
		}

		if err := setField(v.Field(i), value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envTag, err)
		}
	}

	return nil
}

func setField(f reflect.Value, value string) error {
	if f.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		f.SetInt(int64(d))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(value)
	case reflect.Int, reflect.Int64:
		if value == "" {
			f.SetInt(0)
			return nil
		}
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(intValue)
	case reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		f.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		f.SetBool(boolValue)
	default:
		return fmt.Errorf("unsupported field kind %s", f.Kind())
	}
	return nil
}
