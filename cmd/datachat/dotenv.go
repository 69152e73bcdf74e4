// ABOUTME: Loads environment variables from .env files at startup using godotenv.
// ABOUTME: Variables already present in the environment are never overwritten.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadDotEnv loads a single .env file without clobbering existing
// variables. Missing files are silently ignored.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("component=cli action=dotenv path=%s error=%q", path, err)
	}
}

// loadDotEnvAuto loads .env files from common locations. Search order:
//  1. .env in current directory and its parents
//  2. .env next to the current executable
//
// Earlier files win because later loads never overwrite.
func loadDotEnvAuto() {
	seen := map[string]bool{}

	addPath := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		loadDotEnv(p)
	}

	if wd, err := os.Getwd(); err == nil {
		dir := wd
		for {
			addPath(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if exe, err := os.Executable(); err == nil {
		addPath(filepath.Join(filepath.Dir(exe), ".env"))
	}
}
