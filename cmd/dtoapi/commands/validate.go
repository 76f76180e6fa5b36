package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erraggy/dtoapi/meta"
	"github.com/erraggy/dtoapi/validate"
)

// ErrInvalidPayload is returned by the validate command when the payload
// violates its type's rules.
var ErrInvalidPayload = errors.New("payload is invalid")

// validationResult is the structured output of the validate command. Error
// is the 422 body an API would return for the payload.
type validationResult struct {
	Type  string                            `json:"type" yaml:"type"`
	Valid bool                              `json:"valid" yaml:"valid"`
	Error *validate.ValidationErrorResponse `json:"error,omitempty" yaml:"error,omitempty"`
}

func newValidateCommand(root *rootFlags) *cobra.Command {
	var (
		format string
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "validate <declarations> <type> <payload|->",
		Short: "Validate a JSON or YAML payload against a declared type",
		Long: `Decodes the payload and checks it against the constraints declared for
the type, cascading into nested payload types. Reads the payload from stdin
when it is "-". Exits with an error when any rule is violated.`,
		Example: `  dtoapi validate declarations.yaml acme.User user.json
  cat user.json | dtoapi validate declarations.yaml acme.User -`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ValidateOutputFormat(format, FormatText, FormatJSON, FormatYAML); err != nil {
				return err
			}
			e, err := newEngine(cmd, root, args[0])
			if err != nil {
				return err
			}
			data, err := readInput(args[2], cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading payload: %w", err)
			}
			payload, err := decodeDocument(args[2], data)
			if err != nil {
				return err
			}
			violations, err := e.validator.Validate(meta.TypeRef(args[1]), payload)
			if err != nil {
				return err
			}

			result := validationResult{Type: args[1], Valid: len(violations) == 0}
			if !result.Valid {
				body := violations.Response()
				result.Error = &body
			}
			switch {
			case format != FormatText:
				if err := OutputStructured(cmd.OutOrStdout(), result, format); err != nil {
					return err
				}
			case !quiet:
				writeViolations(cmd, args[1], violations)
			}
			if !result.Valid {
				return fmt.Errorf("%w: %d violation(s)", ErrInvalidPayload, len(violations))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "output format: text, json, or yaml")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode: only report through the exit status")
	return cmd
}

func writeViolations(cmd *cobra.Command, typ string, violations validate.Violations) {
	w := cmd.OutOrStdout()
	if len(violations) == 0 {
		_, _ = fmt.Fprintf(w, "%s: valid\n", typ)
		return
	}
	for _, v := range violations {
		path := v.Path
		if path == "" {
			path = "(root)"
		}
		_, _ = fmt.Fprintf(w, "%s: %s [%s]\n", path, v.Message, v.Code)
	}
}
