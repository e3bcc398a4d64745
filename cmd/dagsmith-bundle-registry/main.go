// Package main is the entry point for the DagSmith bundle registry server.
package main

import (
	"os"

	"github.com/spf13/viper"

	"github.com/dagsmith/bundle-registry-server/cmd/dagsmith-bundle-registry/app"
	"github.com/dagsmith/bundle-registry-server/internal/logger"
)

func main() {
	cmd := app.NewRootCmd()

	// Flags are bound to viper before execution, so the debug flag has to
	// be parsed up front to configure logging.
	_ = cmd.ParseFlags(os.Args[1:])
	logger.Initialize(viper.GetBool("debug"))
	defer logger.Sync()

	if err := cmd.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
