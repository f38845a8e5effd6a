package file

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragdocs/internal/logger"
)

// DefaultEnvFile is the dotenv file read from the working directory.
const DefaultEnvFile = ".env"

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables that are already set are left untouched and a
// missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	logger.Debug("config: loaded environment from %s", path)
	return nil
}
