package configuration

import (
	"os"

	"github.com/joho/godotenv"

	"socialhub/infrastructure/logger"
)

// LoadEnvFromFile loads KEY=VALUE files such as config.env and .env.
// Variables already present in the OS environment win.
func LoadEnvFromFile(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			logger.GetLogger().WithField("file", p).WithField("error", err).Warn("Failed to load env file")
			continue
		}
		logger.GetLogger().WithField("file", p).Info("Loaded env file")
	}
}
