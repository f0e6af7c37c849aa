// Command vaultctl runs operator tasks against a docvault deployment:
// schema migrations, access-code hashing, tag recounts and orphan sweeps.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"docvault/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg := config.Load()

	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
