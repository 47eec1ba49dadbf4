package main

import (
	"fmt"
	"os"

	"github.com/yungbote/skillsync-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	a.Start()

	a.Log.Info("server listening", "addr", a.Cfg.ListenAddr)
	if err := a.Run(""); err != nil {
		a.Log.Error("server failed", "error", err)
	}
}
