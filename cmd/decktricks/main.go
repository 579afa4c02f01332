package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/blackwell-systems/decktricks/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		// Action failures were already reported one per result.
		if !errors.Is(err, app.ErrActionFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
