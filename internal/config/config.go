package config

import (
	"fmt"
	"os"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Store configuration
	StoreType           string // firestore, memory
	FirestoreProjectID  string
	FirebaseCredentials string // service-account file path; empty uses ADC
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "3000"),
		StoreType:           getEnv("STORE_TYPE", "firestore"),
		FirestoreProjectID:  getEnv("FIRESTORE_PROJECT_ID", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
	}

	// Validate required fields
	if cfg.StoreType != "firestore" && cfg.StoreType != "memory" {
		return nil, fmt.Errorf("STORE_TYPE must be firestore or memory, got %q", cfg.StoreType)
	}
	if cfg.StoreType == "firestore" && cfg.FirestoreProjectID == "" && cfg.FirebaseCredentials == "" {
		return nil, fmt.Errorf("FIRESTORE_PROJECT_ID or FIREBASE_CREDENTIALS is required for the firestore store")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
