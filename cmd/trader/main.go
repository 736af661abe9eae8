package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/evotrade/trader/cmd/trader/cmd"
)

func main() {
	// Optional .env for API credentials; absence is fine.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
