// Command tracky serves the notes and activity tracking API.
package main

import (
	"fmt"
	"log"

	"github.com/patric-chuzhbe/tracky/internal/app"
)

// Set with -ldflags "-X main.buildVersion=..." at build time.
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

func buildInfo() string {
	return fmt.Sprintf("Build version: %s\nBuild date: %s\nBuild commit: %s", buildVersion, buildDate, buildCommit)
}

func run() error {
	theApp, err := app.New()
	if err != nil {
		return err
	}
	defer theApp.Close()

	return theApp.Run()
}

func main() {
	fmt.Println(buildInfo())

	if err := run(); err != nil {
		log.Fatal(err)
	}
}
