package utils

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from the given .env files (default ".env") into the
// process environment. Variables already set are left untouched.
func LoadEnv(paths ...string) {
	err := godotenv.Load(paths...)
	if err != nil {
		log.Println("ℹ️  No .env file found, continuing...")
	}
}
