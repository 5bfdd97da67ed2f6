package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Krimson/heart-risk/internal/advisory"
	"github.com/Krimson/heart-risk/internal/clinical"
	"github.com/Krimson/heart-risk/internal/features"
)

// encodeOutput вывод команды encode.
type encodeOutput struct {
	Columns    []string           `json:"columns"`
	Values     []float64          `json:"values"`
	Named      map[string]float64 `json:"named"`
	Advisories []advisory.Message `json:"advisories"`
}

func newEncodeCmd(c *cli) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode an observation JSON into the model feature vector",
		Long:  "Reads an observation as JSON from --file or stdin, checks form ranges and prints the 18-column feature vector with plausibility advisories.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if inputPath != "" && inputPath != "-" {
				f, err := os.Open(inputPath)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", inputPath, err)
				}
				defer f.Close()
				in = f
			}
			return encodeObservation(in, cmd.OutOrStdout(), advisory.NewValidator(c.cfg.Advisory))
		},
	}

	cmd.Flags().StringVarP(&inputPath, "file", "f", "", "Observation JSON file (default stdin)")
	return cmd
}

func encodeObservation(r io.Reader, w io.Writer, validator *advisory.Validator) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read observation: %w", err)
	}

	o, err := clinical.DecodeJSON(data)
	if err != nil {
		return err
	}
	if err := o.Validate(); err != nil {
		return err
	}

	v := features.Encode(o)
	out := encodeOutput{
		Columns:    features.Columns[:],
		Values:     v.Slice(),
		Named:      v.Named(),
		Advisories: validator.Validate(o),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
