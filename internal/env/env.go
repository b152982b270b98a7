package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	boolVals = [...]string{
		"1",
		"true",
		"yes",
		"y",
		"on",
		"ok",
	}
)

// Temp calls os.Setenv(key, fmt.Sprint(val)) and returns a function that
// restores the previous value of that environment variable.
func Temp(key string, val any) func() {
	org, had := os.LookupEnv(key)
	if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
		panic(err)
	}
	return func() {
		if !had {
			os.Unsetenv(key)
			return
		}
		if err := os.Setenv(key, org); err != nil {
			panic(err)
		}
	}
}

// String returns os.Getenv(key).
func String(key string) string {
	return os.Getenv(key)
}

// StringOr returns os.Getenv(key), or def if the variable is empty.
func StringOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Bool calls os.Getenv(key) and parses the value as a bool. The following
// values return true: "1", "true", "yes", "y", "on", "ok"
func Bool(key string) bool {
	val := strings.ToLower(os.Getenv(key))
	for _, v := range boolVals[:] {
		if v == val {
			return true
		}
	}
	return false
}

// Int is a shortcut for strconv.Atoi(os.Getenv(key)).
func Int(key string) (int, error) {
	return strconv.Atoi(os.Getenv(key))
}

// IntOr returns the integer value of the environment variable, or def if the
// variable is empty or not a positive integer.
func IntOr(key string, def int) int {
	v, err := Int(key)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Duration is a shortcut for time.ParseDuration(os.Getenv(key)).
func Duration(key string) (time.Duration, error) {
	return time.ParseDuration(os.Getenv(key))
}

// DurationOr returns the duration value of the environment variable, or def if
// the variable is empty or cannot be parsed.
func DurationOr(key string, def time.Duration) time.Duration {
	v, err := Duration(key)
	if err != nil {
		return def
	}
	return v
}
