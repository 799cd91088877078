package main

import (
	"log"

	"github.com/MrSnakeDoc/aniarc/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ aniarc failed to start: %v", err)
	}
}
