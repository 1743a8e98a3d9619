package levels

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/brimdata/parq/cmd/parq/root"
	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/pkg/charm"
)

var Levels = &charm.Spec{
	Name:  "levels",
	Usage: "levels [-c path] [-g n] file",
	Short: "dump the shredded columns of a Parquet file",
	Long: `
The levels command prints the shredded columns of a Parquet file: one line
per slot with its repetition level, definition level and value. A slot
whose definition level is below the column's maximum holds no value and
is shown as null.

The -c option limits the output to the column with the given dotted path
and -g limits it to one row group.`,
	New: New,
}

func init() {
	root.Parq.Add(Levels)
}

type Command struct {
	*root.Command
	column   string
	rowGroup int
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.StringVar(&c.column, "c", "", "dotted path of the column to print (default all columns)")
	f.IntVar(&c.rowGroup, "g", -1, "row group to print (default all row groups)")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("parq levels: must be run with a single file argument")
	}
	file, err := c.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()
	if c.column != "" && file.Schema().Leaf(c.column) == nil {
		return fmt.Errorf("parq levels: no column %q", c.column)
	}
	lo, hi := 0, file.NumRowGroups()
	if c.rowGroup >= 0 {
		if c.rowGroup >= hi {
			return fmt.Errorf("parq levels: file has %d row groups", hi)
		}
		lo, hi = c.rowGroup, c.rowGroup+1
	}
	for i := lo; i < hi; i++ {
		if err := c.Ctx.Err(); err != nil {
			return err
		}
		_, cols, err := file.ReadRowGroup(i)
		if err != nil {
			return err
		}
		for _, col := range cols {
			if c.column != "" && col.Path != c.column {
				continue
			}
			if err := printColumn(os.Stdout, i, col); err != nil {
				return err
			}
		}
	}
	return nil
}

func printColumn(out io.Writer, rowGroup int, col *dremel.Column) error {
	fmt.Fprintf(out, "row group %d column %s (max def %d, max rep %d, %d records)\n",
		rowGroup, col.Path, col.MaxDef, col.MaxRep, col.NumRecords())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  REP\tDEF\tVALUE")
	var k int
	for i := 0; i < col.NumSlots(); i++ {
		rep, def := col.Levels(i)
		value := "null"
		if def == col.MaxDef {
			value = col.Values.Format(k)
			k++
		}
		fmt.Fprintf(w, "  %d\t%d\t%s\n", rep, def, value)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out)
	return err
}
