package config

import (
	"os"
)

type Config struct {
	Port             string
	Neo4jURI         string
	Neo4jUser        string
	Neo4jPass        string
	TEIURL           string
	GenAIURL         string
	GenAIKey         string
	GenAIModel       string
	GitHubAPIURL     string
	GitHubToken      string
	TranscribeURL    string
	TranscribeAPIKey string
	StorageURL       string
	ReposPath        string
}

func Load() *Config {
	return &Config{
		Port:             getEnv("BACKEND_PORT", "3001"),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPass:        getEnv("NEO4J_PASSWORD", "reposage_password"),
		TEIURL:           getEnv("TEI_URL", "http://localhost:8080"),
		GenAIURL:         getEnv("GENAI_URL", "https://generativelanguage.googleapis.com"),
		GenAIKey:         getEnv("GENAI_API_KEY", ""),
		GenAIModel:       getEnv("GENAI_MODEL", "gemini-2.5-flash"),
		GitHubAPIURL:     getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubToken:      getEnv("GITHUB_TOKEN", ""),
		TranscribeURL:    getEnv("TRANSCRIBE_URL", "https://api.assemblyai.com"),
		TranscribeAPIKey: getEnv("TRANSCRIBE_API_KEY", ""),
		StorageURL:       getEnv("STORAGE_URL", "http://localhost:9000"),
		ReposPath:        getEnv("REPOS_PATH", "./repos"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
