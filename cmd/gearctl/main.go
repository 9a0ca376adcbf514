// Command gearctl inspects GearDB save files from the terminal.
//
//	gearctl show   [-sheet name] [-plain] <file.gdb>
//	gearctl export [-sheet name] <file.gdb> <out.xlsx>
//	gearctl hash   <file.gdb>
//	gearctl schema [-sheet name] <file.gdb>
//	gearctl list   [-dir ./data]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/geardb/internal/core"
	"github.com/JonMunkholm/geardb/internal/export"
	"github.com/JonMunkholm/geardb/internal/logging"
	"github.com/JonMunkholm/geardb/internal/store"
)

const usage = `usage: gearctl <command> [flags] [args]

commands:
  show   [-sheet name] [-plain] <file>   print a sheet as a table
  export [-sheet name] <file> <out.xlsx> write sheets to a workbook
  hash   <file>                          check the recorded hash
  schema [-sheet name] <file>            print column definitions as YAML
  list   [-dir path]                     list save files in a directory
`

var errUsage = errors.New("usage")

func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("gearctl failed", "error", err, "code", core.MapError(err).Code)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "show":
		return runShow(rest, out)
	case "export":
		return runExport(rest, out)
	case "hash":
		return runHash(rest, out)
	case "list":
		return runList(rest, out)
	case "schema":
		return runSchema(rest, out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

// ----------------------------------------------------------------------------
// Commands
// ----------------------------------------------------------------------------

func runShow(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	sheetName := fs.String("sheet", "", "sheet to show (default: the selected sheet)")
	plain := fs.Bool("plain", false, "disable colours")
	width := fs.Int("width", 0, "table width (default: terminal width)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	data, err := readSaveFile(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := pickSheet(data, *sheetName)
	if err != nil {
		return err
	}

	opts := export.TextOptions{Width: *width, Plain: *plain}
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if opts.Width == 0 {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil {
				opts.Width = w
			}
		}
	} else {
		opts.Plain = true
	}

	_, err = fmt.Fprintln(out, export.RenderText(s, opts))
	return err
}

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	sheetName := fs.String("sheet", "", "export only this sheet (default: all sheets)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 2 {
		return errUsage
	}

	data, err := readSaveFile(fs.Arg(0))
	if err != nil {
		return err
	}
	sheets := data.Sheets
	if *sheetName != "" {
		s, err := pickSheet(data, *sheetName)
		if err != nil {
			return err
		}
		sheets = []core.Sheet{s}
	}

	f, err := os.Create(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("create %s: %w", fs.Arg(1), err)
	}
	if err := export.WriteXLSX(f, sheets...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", fs.Arg(1), err)
	}

	fmt.Fprintf(out, "wrote %d sheet(s) to %s\n", len(sheets), fs.Arg(1))
	return nil
}

func runHash(args []string, out io.Writer) error {
	if len(args) != 1 {
		return errUsage
	}
	data, err := readSaveFile(args[0])
	if err != nil {
		return err
	}
	s, _ := core.LoadSaveData(data)
	got := core.SheetHash(s)

	status := "ok"
	if got != data.HashCode {
		status = "modified"
	}
	fmt.Fprintf(out, "sheet:    %s\nrecorded: %d\ncomputed: %d\nstatus:   %s\n",
		s.Name, data.HashCode, got, status)
	return nil
}

func runList(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	dir := fs.String("dir", envOr("STORE_DIR", "./data"), "save file directory")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	files, err := store.NewFile(*dir)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	infos, err := files.ListSaveFiles(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Name, info.Size, info.ModifiedAt.Format(time.DateTime))
	}
	return tw.Flush()
}

// columnDoc is the YAML shape of one column definition.
type columnDoc struct {
	Name    string      `yaml:"name"`
	Type    string      `yaml:"type"`
	Min     *float64    `yaml:"min,omitempty"`
	Max     *float64    `yaml:"max,omitempty"`
	Step    *float64    `yaml:"step,omitempty"`
	Values  []string    `yaml:"values,omitempty"`
	Exts    []string    `yaml:"extensions,omitempty"`
	Columns []columnDoc `yaml:"columns,omitempty"`
}

func columnDocs(cols []core.Column) []columnDoc {
	docs := make([]columnDoc, 0, len(cols))
	for _, c := range cols {
		d := columnDoc{Name: c.Name, Type: string(c.Type)}
		switch st := c.Settings.(type) {
		case core.NumericSettings:
			d.Min, d.Max, d.Step = st.Min, st.Max, st.Step
		case core.EnumSettings:
			d.Values = st.PossibleValues
		case core.FilePathSettings:
			d.Exts = st.Filenames
		case core.ListSettings:
			d.Columns = columnDocs(st.Columns)
		}
		docs = append(docs, d)
	}
	return docs
}

func runSchema(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	sheetName := fs.String("sheet", "", "sheet to describe (default: the selected sheet)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	data, err := readSaveFile(fs.Arg(0))
	if err != nil {
		return err
	}
	s, err := pickSheet(data, *sheetName)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	doc := struct {
		Sheet   string      `yaml:"sheet"`
		Columns []columnDoc `yaml:"columns"`
	}{Sheet: s.Name, Columns: columnDocs(s.Columns)}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return enc.Close()
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func readSaveFile(path string) (core.SaveData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.SaveData{}, fmt.Errorf("%w: %s", core.ErrSaveFileNotFound, path)
		}
		return core.SaveData{}, fmt.Errorf("read %s: %w", path, err)
	}
	return core.DecodeSaveData(b)
}

// pickSheet returns the sheet called name, or the selected sheet when name
// is empty.
func pickSheet(data core.SaveData, name string) (core.Sheet, error) {
	if name == "" {
		s, _ := core.LoadSaveData(data)
		return s, nil
	}
	for _, s := range data.Sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return core.Sheet{}, fmt.Errorf("%w: sheet %q", core.ErrNotFound, name)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
