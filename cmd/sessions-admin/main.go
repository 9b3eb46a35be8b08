package main

import (
	"os"

	"sessions-admin/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
