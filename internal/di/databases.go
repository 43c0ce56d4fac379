package di

import (
	"fmt"
	"path/filepath"

	"github.com/aristath/forecast/internal/clientdata"
	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens client_data.db, applies its schema and creates the cache repository.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// client_data.db - last live exchange rates, read when every rate provider fails
	clientDataDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, database.NameClientData+".db"),
		Profile: database.ProfileCache,
		Name:    database.NameClientData,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client_data database: %w", err)
	}
	container.ClientDataDB = clientDataDB

	if err := clientDataDB.Migrate(); err != nil {
		clientDataDB.Close()
		return nil, fmt.Errorf("failed to apply client_data schema: %w", err)
	}

	container.ClientDataRepo = clientdata.NewRepository(clientDataDB.Conn())

	log.Info().Str("path", clientDataDB.Path()).Msg("Client data database initialized")
	return container, nil
}
