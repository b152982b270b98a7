// Package cliargs validates the positional arguments of commands.
package cliargs

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// MinimumN returns a cobra.PositionalArgs that fails with errmsg if fewer than
// n arguments are passed.
func MinimumN(n int, errmsg string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) < n {
			return errors.New(errmsg)
		}
		return nil
	}
}

// NotBlank returns a cobra.PositionalArgs that fails with errmsg if the joined
// arguments consist of whitespace only.
func NotBlank(errmsg string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) > 0 && strings.TrimSpace(strings.Join(args, "")) == "" {
			return errors.New(errmsg)
		}
		return nil
	}
}
