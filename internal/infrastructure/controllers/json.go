package controllers

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, value any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func decodeJSON(reader io.Reader, value any) error {
	return json.NewDecoder(reader).Decode(value)
}
