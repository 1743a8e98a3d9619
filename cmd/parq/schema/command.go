package schema

import (
	"errors"
	"flag"
	"fmt"

	"github.com/brimdata/parq/cmd/parq/root"
	"github.com/brimdata/parq/pkg/charm"
	"github.com/brimdata/parq/zio/parquetio"
)

var Schema = &charm.Spec{
	Name:  "schema",
	Usage: "schema [-plan] file",
	Short: "print the schema and column levels of a Parquet file",
	Long: `
The schema command prints the schema of a Parquet file in Parquet message
syntax followed by one line per leaf column giving its path and maximum
definition and repetition levels.

With -plan, each column line is followed by the definition and repetition
levels reached at each node on the path to the leaf.`,
	New: New,
}

func init() {
	root.Parq.Add(Schema)
}

type Command struct {
	*root.Command
	plan bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.plan, "plan", false, "show the levels of every node on each column's path")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("parq schema: must be run with a single file argument")
	}
	file, err := c.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()
	s := file.Schema()
	sd, err := parquetio.NewSchemaDefinition(s)
	if err != nil {
		return err
	}
	fmt.Println(sd.String())
	fmt.Println()
	for _, leaf := range s.Leaves() {
		fmt.Printf("%s def=%d rep=%d\n", leaf.Path, leaf.MaxDef, leaf.MaxRep)
		if c.plan {
			fmt.Printf("    %s\n", leaf.Plan())
		}
	}
	return nil
}
