package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Checker-Finance/secrets-manager-sdk/smctl/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
