package inspect

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/units"
	"github.com/brimdata/parq/cmd/parq/root"
	"github.com/brimdata/parq/pkg/charm"
)

var Inspect = &charm.Spec{
	Name:  "inspect",
	Usage: "inspect [-columns=false] file",
	Short: "print the metadata of a Parquet file",
	Long: `
The inspect command prints the writer, row count and row groups of a Parquet
file. For each row group it lists the column chunks with their physical type,
compression codec, number of level entries and compressed and uncompressed
sizes.`,
	New: New,
}

func init() {
	root.Parq.Add(Inspect)
}

type Command struct {
	*root.Command
	columns bool
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	f.BoolVar(&c.columns, "columns", true, "list the column chunks of each row group")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("parq inspect: must be run with a single file argument")
	}
	file, err := c.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()
	return c.inspect(os.Stdout, file)
}

func (c *Command) inspect(out io.Writer, file *root.File) error {
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "Created by:\t%s\n", file.CreatedBy())
	fmt.Fprintf(w, "Rows:\t%d\n", file.NumRows())
	fmt.Fprintf(w, "Columns:\t%d\n", file.Schema().NumColumns())
	fmt.Fprintf(w, "Row groups:\t%d\n", file.NumRowGroups())
	if err := w.Flush(); err != nil {
		return err
	}
	for i := 0; i < file.NumRowGroups(); i++ {
		rows, err := file.RowGroupRows(i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nRow group %d: %d rows\n", i, rows)
		if !c.columns {
			continue
		}
		chunks, err := file.ColumnChunks(i)
		if err != nil {
			return err
		}
		w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COLUMN\tTYPE\tCODEC\tVALUES\tCOMPRESSED\tUNCOMPRESSED")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", chunk.Path, chunk.Type, chunk.Codec,
				chunk.NumValues, units.Base2Bytes(chunk.CompressedSize), units.Base2Bytes(chunk.UncompressedSize))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return nil
}
