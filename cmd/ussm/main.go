package main

import (
	"log"

	"github.com/MrSnakeDoc/ussm/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ ussm failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ ussm stopped with error: %v", err)
	}
}
