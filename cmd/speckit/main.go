// Command speckit tracks how mature each specification scenario is and which
// integration tests verify it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/theplant/speckit-extension/internal/cli"
)

func main() {
	// A .env file in the working directory may set SPECKIT_* variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	os.Exit(cli.Execute(context.Background()))
}
