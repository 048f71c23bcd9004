package main

import (
	"context"
	"log"
	"os"

	"github.com/healthfair/clinicsync/internal/buildinfo"
	"github.com/healthfair/clinicsync/internal/client/cli"
	"github.com/healthfair/clinicsync/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}
