package charm

import (
	"bytes"
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type root struct {
	verbose bool
}

func (*root) Run([]string) error { return ErrNoRun }

type leaf struct {
	root  *root
	count int
	args  []string
}

func (l *leaf) Run(args []string) error {
	l.args = args
	return nil
}

func newSpecs(got **leaf) *Spec {
	r := &Spec{
		Name:  "tool",
		Usage: "tool [options] command",
		Short: "test tool",
		Long:  "The tool does things.\n\nSecond paragraph.",
		New: func(_ Command, f *flag.FlagSet) (Command, error) {
			c := &root{}
			f.BoolVar(&c.verbose, "v", false, "verbose output")
			return c, nil
		},
	}
	r.Add(&Spec{
		Name:        "count",
		Usage:       "count [-n n] file",
		Short:       "count things",
		HiddenFlags: "secret",
		New: func(parent Command, f *flag.FlagSet) (Command, error) {
			c := &leaf{root: parent.(*root)}
			f.IntVar(&c.count, "n", 1, "how many")
			f.Bool("secret", false, "not shown")
			*got = c
			return c, nil
		},
	})
	return r
}

func TestExec(t *testing.T) {
	var got *leaf
	spec := newSpecs(&got)
	var buf bytes.Buffer
	require.NoError(t, spec.exec(&buf, []string{"-v", "count", "-n", "3", "a", "b"}))
	require.NotNil(t, got)
	assert.True(t, got.root.verbose)
	assert.Equal(t, 3, got.count)
	assert.Equal(t, []string{"a", "b"}, got.args)
	assert.Zero(t, buf.Len())
}

func TestExecErrors(t *testing.T) {
	var got *leaf
	spec := newSpecs(&got)
	var buf bytes.Buffer
	assert.EqualError(t, spec.exec(&buf, nil), `"tool": requires a sub-command: count`)
	assert.EqualError(t, spec.exec(&buf, []string{"nope"}), `"tool": no such sub-command "nope": options are: count`)
	assert.ErrorContains(t, spec.exec(&buf, []string{"count", "-x"}), "tool count: flag provided but not defined: -x")
	assert.EqualError(t, spec.exec(&buf, []string{"help", "nope"}), "no such command: nope")
}

func TestHelp(t *testing.T) {
	var got *leaf
	spec := newSpecs(&got)
	var buf bytes.Buffer
	require.NoError(t, spec.exec(&buf, []string{"count", "-h"}))
	out := buf.String()
	assert.Contains(t, out, "tool count - count things")
	assert.Contains(t, out, `-n how many (default "1")`)
	assert.Contains(t, out, "[tool flags]")
	assert.NotContains(t, out, "secret")

	buf.Reset()
	require.NoError(t, spec.exec(&buf, []string{"help"}))
	out = buf.String()
	assert.Contains(t, out, "COMMANDS\n    count - count things")
	assert.Contains(t, out, "DESCRIPTION\n    The tool does things.\n\n    Second paragraph.")
}
