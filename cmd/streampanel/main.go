package main

import (
	"encoding/json"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		// Automated callers parse stdout as JSON even on fatal paths.
		payload := map[string]any{"success": false, "error": err.Error()}
		data, marshalErr := json.MarshalIndent(payload, "", "  ")
		if marshalErr != nil {
			fmt.Fprintln(os.Stderr, err)
		} else {
			fmt.Println(string(data))
		}
		os.Exit(1)
	}
}
