package main

import (
	"fmt"
	"os"

	"github.com/agentboard/dashboard-service/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
