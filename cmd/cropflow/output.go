package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatPoint(x, y float64) string {
	return fmt.Sprintf("(%s, %s)", formatFloat(x), formatFloat(y))
}

// formatRect renders rect_coords as "x,y wxh".
func formatRect(r [4]int) string {
	return fmt.Sprintf("%d,%d %dx%d", r[0], r[1], r[2], r[3])
}
