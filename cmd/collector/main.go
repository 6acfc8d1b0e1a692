package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/leshachaplin/tracklog/app"
	"github.com/leshachaplin/tracklog/internal/config"
)

func main() {
	_ = godotenv.Load()

	path := flag.String("config", os.Getenv("COLLECTOR_CONFIG"), "path to the collector YAML config")
	flag.Parse()

	app.New(func() (config.Config, error) {
		return config.Load(*path)
	}).Start()
}
