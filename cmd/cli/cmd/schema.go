// Package cmd - schema and decode commands
package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"trajectory-stn/adapters/schemafile"
	"trajectory-stn/core/location"
	"trajectory-stn/core/param"
	"trajectory-stn/internal/config"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [file]",
	Short: "Print the codebook of a parameter schema file",
	Long: `Load a schema file and print one row per parameter in code order:
name, storage, kind, encoding rule, fragment width and domain.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <code>...",
	Short: "Split location codes into per-parameter fragments",
	Long: `Decode location codes back to parameter values. Range fragments decode
to the lower edge of their bucket and placeholders to the missing marker.

Examples:
  stn decode --schema params.hcl M2150
  stn decode --schema params.yaml --json M2150 A0xxx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

var (
	schemaPath string
	decodeJSON bool
)

func init() {
	decodeCmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "parameter schema file (default from config)")
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "print fragments as JSON")
}

// loadBook resolves the schema path from an argument, a flag or the config
func loadBook(path string) (*location.Codebook, error) {
	if path == "" {
		path = config.Get().Schema.Path
	}
	if path == "" {
		return nil, fmt.Errorf("no schema file given")
	}
	return schemafile.Load(path)
}

func runSchema(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	book, err := loadBook(path)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTORAGE\tKIND\tRULE\tWIDTH\tDOMAIN")
	for i := 0; i < book.Len(); i++ {
		s, enc := book.Schema(i), book.Encoder(i)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", s.Name, s.Storage, s.Kind, enc.Rule(), enc.Width(), domain(s))
	}
	fmt.Fprintf(w, "total\t\t\t\t%d\t\n", book.Width())
	return w.Flush()
}

func domain(s *param.Schema) string {
	if s.Kind == param.NumericRange {
		return fmt.Sprintf("[%s, %s]", s.Lower, s.Upper)
	}
	tokens := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		tokens = append(tokens, v.Token())
	}
	return "{" + strings.Join(tokens, ", ") + "}"
}

func runDecode(cmd *cobra.Command, args []string) error {
	book, err := loadBook(schemaPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	decoded := make(map[string][]location.Fragment, len(args))
	for _, code := range args {
		frags, err := book.Decode(code)
		if err != nil {
			return err
		}
		if decodeJSON {
			decoded[code] = frags
			continue
		}
		parts := make([]string, 0, len(frags))
		for _, f := range frags {
			parts = append(parts, f.Name+"="+f.Value)
		}
		fmt.Fprintf(out, "%s %s\n", code, strings.Join(parts, " "))
	}

	if decodeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(decoded)
	}
	return nil
}
