// Package main runs the interactive terminal client for the car backend.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/atinyakov/cardash/internal/backend"
	"github.com/atinyakov/cardash/internal/client"
	"github.com/atinyakov/cardash/internal/config"
	"github.com/atinyakov/cardash/internal/logger"
	"github.com/atinyakov/cardash/internal/view"
)

var (
	version   string
	buildDate string
)

func main() {
	options := config.Parse()

	fmt.Printf("Matrix Car Dashboard client\nVersion: %s\nBuild Date: %s\n",
		cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))

	zl := logger.New()
	defer func() { _ = zl.Log.Sync() }()
	if err := zl.Init(options.LogLevel); err != nil {
		log.Fatal(err)
	}

	httpClient, err := backend.NewHTTPClient(options.CAFile, options.RequestTimeout.Std())
	if err != nil {
		log.Fatal(err)
	}
	api, err := backend.NewClient(options.BaseURL,
		backend.WithHTTPClient(httpClient),
		backend.WithFetchAttempts(options.FetchAttempts),
		backend.WithLogger(zl.Log),
	)
	if err != nil {
		log.Fatal(err)
	}

	policy, err := view.ParseResetPolicy(options.ResetPolicy)
	if err != nil {
		log.Fatal(err)
	}

	sh := &client.Shell{
		Accounts:    api,
		Cars:        api,
		Prompt:      client.NewSurveyPrompter(),
		ResetPolicy: policy,
		Logger:      zl.Log,
		In:          os.Stdin,
		Out:         os.Stdout,
	}
	fmt.Println("Type 'help' for a list of commands.")
	if err := sh.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
