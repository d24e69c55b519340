package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format selects how Write renders a product.
type Format string

// Supported output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for a format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch format := Format(name); format {
	case FormatText, FormatJSON, FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json or yaml)", ErrUnknownFormat, name)
	}
}

// Write renders p to w in the given format.
func Write(w io.Writer, p Product, format Format) error {
	switch format {
	case FormatText:
		_, err := fmt.Fprintln(w, p.String())
		if err != nil {
			return fmt.Errorf("write text: %w", err)
		}

		return nil
	case FormatJSON:
		jsonData, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}

		_, err = fmt.Fprintln(w, string(jsonData))
		if err != nil {
			return fmt.Errorf("write json: %w", err)
		}

		return nil
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)

		err := encoder.Encode(p)
		if err != nil {
			return fmt.Errorf("write yaml: %w", err)
		}

		return encoder.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
