package main

import (
	"github.com/joho/godotenv"

	"voice-query-client/internal/cli"
)

func main() {
	// A missing .env file is fine; the environment and config file still apply.
	_ = godotenv.Load()

	cli.Execute()
}
