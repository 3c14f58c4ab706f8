package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/simonhull/firebird-suite/magpie/internal/output"
	"github.com/simonhull/firebird-suite/magpie/pkg/format"
	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// InspectCmd creates and returns the 'inspect' command
func InspectCmd() *cobra.Command {
	var formatName string
	var strip bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Parse one mapping file and print what it contains",
		Long: `Parses a single SRG, CSRG or TSRG file and prints its class, field and
method counts. The format is taken from the file extension unless --format
is given. Useful for checking a source before adding it to magpie.yml.

Examples:
  magpie inspect joined.tsrg
  magpie inspect members.txt --format csrg
  magpie inspect mappings/1.18.1/obf2mcp.srg --strip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var (
				kind format.Kind
				err  error
			)
			if formatName != "" {
				kind, err = format.ParseKind(formatName)
			} else {
				kind, err = format.KindFromPath(path)
			}
			if err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			r, err := format.Parse(kind, bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if strip {
				r = mapping.Strip(r)
			}

			classes, fields, methods := r.Counts()
			output.Plain(fmt.Sprintf("%s (%s)", path, kind))
			output.Plain(fmt.Sprintf("  classes: %d", classes))
			output.Plain(fmt.Sprintf("  fields:  %d", fields))
			output.Plain(fmt.Sprintf("  methods: %d", methods))

			for _, p := range r.Classes() {
				output.Verbose(fmt.Sprintf("%s -> %s", p.From, p.To))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatName, "format", "f", "", "Input format: srg, csrg or tsrg")
	cmd.Flags().BoolVar(&strip, "strip", false, "Drop entries that do not rename anything before counting")

	return cmd
}
