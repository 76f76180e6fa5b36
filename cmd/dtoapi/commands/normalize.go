package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/normalize"
)

func newNormalizeCommand(root *rootFlags) *cobra.Command {
	var (
		maxDepth    int
		includeNull bool
		shapeLists  bool
		indent      bool
	)
	cmd := &cobra.Command{
		Use:   "normalize <document|->",
		Short: "Normalize a JSON or YAML document into a JSON-ready tree",
		Long: `Runs a decoded document through the normalizer with the configured
defaults. Flags override the configuration: --max-depth truncates deep
branches, --include-null keeps null members and --shape-lists turns
objects keyed 0..n-1 into arrays.`,
		Example: `  dtoapi normalize payload.yaml --shape-lists
  curl -s https://example.com/api | dtoapi normalize - --max-depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			data, err := readInput(args[0], cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			value, err := decodeDocument(args[0], data)
			if err != nil {
				return err
			}

			var opts []normalize.Option
			flags := cmd.Flags()
			if flags.Changed("max-depth") {
				opts = append(opts, normalize.WithMaxDepth(maxDepth))
			}
			if flags.Changed("include-null") {
				opts = append(opts, normalize.WithIncludeNull(includeNull))
			}
			if flags.Changed("shape-lists") {
				opts = append(opts, normalize.WithShapeLists(shapeLists))
			}
			tree := newNormalizer(cfg, logger).Normalize(value, opts...)

			var out []byte
			if indent {
				out, err = normalize.EncodeIndent(tree)
			} else {
				out, err = normalize.Encode(tree)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
			return err
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", normalize.DefaultMaxDepth, "maximum nesting depth")
	cmd.Flags().BoolVar(&includeNull, "include-null", true, "keep null members")
	cmd.Flags().BoolVar(&shapeLists, "shape-lists", true, "render objects keyed 0..n-1 as arrays")
	cmd.Flags().BoolVar(&indent, "indent", true, "indent the output")
	return cmd
}
