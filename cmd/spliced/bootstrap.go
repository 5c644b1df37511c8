package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envFileCandidates lists locations probed for a .env file, in order.
func envFileCandidates() []string {
	candidates := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "splice", ".env"))
	}
	return candidates
}

// loadEnvironment loads the first .env file found among the candidate
// locations. Already-set variables win over file values, and a missing
// file is not an error.
func loadEnvironment() {
	for _, path := range envFileCandidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("load env file %s: %v", path, err)
		}
		return
	}
}
