package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
)

// noColor 設定 NO_COLOR 時不輸出色碼
var noColor = os.Getenv("NO_COLOR") != ""

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printError(format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+fmt.Sprintf(format, args...)))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, colorize(colorYellow, "⚠ "+fmt.Sprintf(format, args...)))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
