package main

import (
	"context"
	"os"

	"github.com/mantonx/seasontracker/internal/logger"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}
