package main

import (
	"os"

	"github.com/autumnsgrove/cdnup/internal/cli"
	"github.com/autumnsgrove/cdnup/internal/logger"
)

func main() {
	logger.Init()

	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
