// Package cmdtest runs cobra commands in tests.
package cmdtest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Execute runs cmd with the given arguments and returns its output.
func Execute(cmd *cobra.Command, args ...string) (string, error) {
	cmd.SetArgs(args)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()

	return out.String(), err
}

// Error expects cmd to fail with an error that unwraps to want. Error returns
// the command output but does not validate the output.
func Error(t *testing.T, cmd *cobra.Command, args []string, want error) string {
	t.Helper()

	out, err := Execute(cmd, args...)
	if !errors.Is(err, want) {
		t.Fatalf("Command should fail with %q; got %q", want, err)
	}

	return out
}

// Output expects cmd to succeed and output fmt.Sprint(want). Output returns the
// actual output.
func Output(t *testing.T, cmd *cobra.Command, args []string, want any) string {
	t.Helper()

	out, err := Execute(cmd, args...)
	if err != nil {
		t.Fatalf("Command failed with %q", err)
	}

	if wantStr := fmt.Sprint(want); out != wantStr {
		t.Fatalf("Command has wrong output.\n\nwant:\n%v\n\ngot:\n%v\n", wantStr, out)
	}

	return out
}

// Table renders rows the way the commands render tables.
func Table(rows [][]string) string {
	var builder strings.Builder
	tabw := tabwriter.NewWriter(&builder, 0, 2, 1, ' ', 0)
	for _, row := range rows {
		fmt.Fprintln(tabw, strings.Join(row, "\t"))
	}
	if err := tabw.Flush(); err != nil {
		panic(fmt.Errorf("flush tabwriter: %w", err))
	}
	return builder.String()
}
