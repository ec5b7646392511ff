package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads .env (or the file named by ENV_FILE) into the process
// environment. Variables already set win over the file.
func LoadEnv() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return
		}
		log.Printf("env: %v", err)
	}
}
