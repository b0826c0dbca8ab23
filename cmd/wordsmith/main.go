package main

import (
	"wordsmith/cmd/cmd"
	"wordsmith/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}
