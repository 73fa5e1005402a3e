package main

import (
	"log"

	"github.com/nodetec/notestack-sub002/internal/app"
)

func main() {
	if err := app.New(app.Capabilities{}).Run(); err != nil {
		log.Fatalf("❌ notestack failed to start: %v", err)
	}
}
