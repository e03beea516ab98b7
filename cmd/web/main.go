// Command web runs the revenue dashboard HTTP server.
package main

import (
	"embed"
	"fmt"
	"io/fs"
	"os"

	"revboard/internal/app"
)

//go:embed web
var frontendFiles embed.FS

func main() {
	frontend, err := fs.Sub(frontendFiles, "web")
	if err != nil {
		fmt.Fprintf(os.Stderr, "frontend assets unavailable: %v\n", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(frontend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}
