package config

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// DefaultDatasetURL is the Hugging Face locator for the Toucan SFT split,
// resolved by DuckDB's httpfs extension.
const DefaultDatasetURL = "hf://datasets/Agent-Ark/Toucan-1.5M/SFT/*.parquet"

type Config struct {
	DatasetURL string
	Model      string
	MaxTokens  int
	HFToken    string
}

func getEnv(key, defaultValue string, printEnv bool) string {
	logger := log.Default()
	value := os.Getenv(key)
	if printEnv {
		logger.Info("Env", "key", key, "value", value)
	}
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int, printEnv bool) int {
	value := getEnv(key, "", printEnv)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Default().Warn("Ignoring non-numeric env value", "key", key, "value", value)
		return defaultValue
	}
	return parsed
}

func LoadConfig(printEnv bool) (*Config, error) {
	_ = godotenv.Load()

	conf := &Config{
		DatasetURL: getEnv("TOUCAN_DATASET_URL", DefaultDatasetURL, printEnv),
		Model:      getEnv("TOUCAN_MODEL", "rwkv", printEnv),
		MaxTokens:  getEnvInt("TOUCAN_MAX_TOKENS", 4096, printEnv),
		HFToken:    getEnv("HF_TOKEN", "", printEnv),
	}

	return conf, nil
}
