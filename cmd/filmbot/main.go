package main

import (
	"log"

	"github.com/m3rciful/filmbot/core/cmd"
	"github.com/m3rciful/filmbot/internal/bot"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig:        bot.LoadConfig,
		Bootstrap:         bot.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
