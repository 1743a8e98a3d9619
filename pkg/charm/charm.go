// Package charm is a minimalist CLI framework inspired by cobra and
// urfave/cli.
package charm

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

var ErrNoRun = errors.New("no run method")

type Constructor func(parent Command, f *flag.FlagSet) (Command, error)

type Command interface {
	Run(args []string) error
}

type Spec struct {
	Name  string
	Usage string
	Short string
	Long  string
	New   Constructor
	// Hidden hides this command from help.
	Hidden bool
	// HiddenFlags (comma-separated) are left out of help.
	HiddenFlags string
	children    []*Spec
	parent      *Spec
}

func (s *Spec) Add(child *Spec) {
	s.children = append(s.children, child)
	child.parent = s
}

func (s *Spec) lookupSub(name string) *Spec {
	for _, child := range s.children {
		if name == child.Name {
			return child
		}
	}
	return nil
}

// instance is a command that has been created and had its flags parsed.
type instance struct {
	spec    *Spec
	command Command
	flags   *flag.FlagSet
}

func newInstance(parent Command, spec *Spec) (*instance, error) {
	if spec.New == nil {
		return nil, fmt.Errorf("command %q: New function is nil", spec.Name)
	}
	flags := flag.NewFlagSet(spec.Name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	cmd, err := spec.New(parent, flags)
	if err != nil {
		return nil, err
	}
	return &instance{spec, cmd, flags}, nil
}

type path []*instance

func (p path) last() *instance {
	return p[len(p)-1]
}

func (p path) pathname() string {
	names := make([]string, 0, len(p))
	for _, inst := range p {
		names = append(names, inst.spec.Name)
	}
	return strings.Join(names, " ")
}

// parse creates the command for each sub-command named in args, parsing
// the flags that follow each name. It returns the path and the remaining
// arguments. On flag.ErrHelp the path is valid up to the command that saw
// the help flag.
func parse(spec *Spec, args []string) (path, []string, error) {
	var p path
	var parent Command
	for {
		inst, err := newInstance(parent, spec)
		if err != nil {
			return p, nil, err
		}
		p = append(p, inst)
		if err := inst.flags.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return p, nil, err
			}
			return p, nil, fmt.Errorf("%s: %w", p.pathname(), err)
		}
		args = inst.flags.Args()
		if len(args) == 0 {
			return p, args, nil
		}
		child := spec.lookupSub(args[0])
		if child == nil {
			return p, args, nil
		}
		spec, parent, args = child, inst.command, args[1:]
	}
}

// ExecRoot runs the command named by args. "help [command...]" and the -h
// flag print help to stderr.
func (s *Spec) ExecRoot(args []string) error {
	return s.exec(os.Stderr, args)
}

func (s *Spec) exec(w io.Writer, args []string) error {
	if len(args) > 0 && args[0] == "help" {
		return s.help(w, args[1:])
	}
	p, rest, err := parse(s, args)
	if errors.Is(err, flag.ErrHelp) {
		displayHelp(w, p)
		return nil
	}
	if err != nil {
		return err
	}
	err = p.last().command.Run(rest)
	if errors.Is(err, ErrNoRun) {
		names := make([]string, 0, len(p.last().spec.children))
		for _, child := range p.last().spec.children {
			names = append(names, child.Name)
		}
		if len(rest) == 0 {
			err = fmt.Errorf("%q: requires a sub-command: %s", p.pathname(), strings.Join(names, " "))
		} else {
			err = fmt.Errorf("%q: no such sub-command %q: options are: %s", p.pathname(), rest[0], strings.Join(names, " "))
		}
	}
	return err
}

func (s *Spec) help(w io.Writer, names []string) error {
	spec := s
	for _, name := range names {
		if spec = spec.lookupSub(name); spec == nil {
			return fmt.Errorf("no such command: %s", strings.Join(names, " "))
		}
	}
	// Rebuild the path so parent flags show in the help.
	var chain []*Spec
	for sp := spec; sp != nil; sp = sp.parent {
		chain = append([]*Spec{sp}, chain...)
	}
	var p path
	var parent Command
	for _, sp := range chain {
		inst, err := newInstance(parent, sp)
		if err != nil {
			return err
		}
		p = append(p, inst)
		parent = inst.command
	}
	displayHelp(w, p)
	return nil
}
