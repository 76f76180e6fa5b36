// Package commands provides the cobra commands of the dtoapi CLI.
package commands

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"go.yaml.in/yaml/v4"
)

// Output format constants
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// StdinFilePath is the special file path used to indicate reading from stdin.
const StdinFilePath = "-"

// ValidateOutputFormat returns an error unless format is one of allowed.
func ValidateOutputFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("invalid format '%s'. Valid formats: %s", format, strings.Join(allowed, ", "))
}

// MarshalStructured renders data as indented JSON or as YAML.
func MarshalStructured(data any, format string) ([]byte, error) {
	var out []byte
	var err error
	switch format {
	case FormatJSON:
		out, err = json.MarshalIndent(data, "", "  ")
	case FormatYAML:
		out, err = yaml.Marshal(data)
	default:
		return nil, fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("marshaling to %s: %w", format, err)
	}
	return out, nil
}

// OutputStructured writes data to w in the specified format (json or yaml).
func OutputStructured(w io.Writer, data any, format string) error {
	out, err := MarshalStructured(data, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		_, err = fmt.Fprintln(w)
	}
	return err
}

// readInput reads a file, or stdin when path is StdinFilePath.
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == StdinFilePath {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeDocument decodes JSON, or YAML for .yaml and .yml files.
func decodeDocument(path string, data []byte) (any, error) {
	var value any
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, &value); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return value, nil
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return value, nil
}
