package main

import (
	"os"

	"design-companion-be/internal/config"
	"design-companion-be/internal/model"
	"design-companion-be/internal/pkg/logger"
	"design-companion-be/internal/repository/implementation"
	"design-companion-be/pkg/database"
)

func main() {
	cfg := config.Load()
	log := logger.NewZapLogger(logger.Config{Level: "info", Console: true})
	defer func() { _ = log.Sync() }()

	switch cfg.Storage.Backend {
	case "postgres":
		if err := migratePostgres(cfg, log); err != nil {
			log.Error("MIGRATE", "Migration failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	case "sqlite":
		conn, err := database.NewSQLiteDB(cfg.Database.SQLitePath)
		if err != nil {
			log.Error("MIGRATE", "Failed to open SQLite database", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
		defer conn.Close()
		if _, err := implementation.NewSQLiteKVRepository(conn); err != nil {
			log.Error("MIGRATE", "Migration failed", map[string]interface{}{"error": err.Error()})
			os.Exit(1)
		}
	default:
		log.Info("MIGRATE", "Storage backend has no schema, nothing to do", map[string]interface{}{"backend": cfg.Storage.Backend})
		return
	}

	log.Info("MIGRATE", "Database migration completed", map[string]interface{}{"backend": cfg.Storage.Backend})
}

func migratePostgres(cfg *config.Config, log logger.ILogger) error {
	if cfg.Database.Connection == "" {
		log.Error("MIGRATE", "DB_CONNECTION_STRING is not set", nil)
		os.Exit(1)
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		return err
	}

	log.Info("MIGRATE", "Running AutoMigrate", map[string]interface{}{"table": model.KVEntry{}.TableName()})
	if err := db.AutoMigrate(&model.KVEntry{}); err != nil {
		return err
	}

	postMigrationSQL := []string{
		`CREATE OR REPLACE FUNCTION set_current_timestamp_updated_at() RETURNS trigger LANGUAGE plpgsql AS $$
		DECLARE _new_value TIMESTAMP WITH TIME ZONE;
		BEGIN
		  _new_value := now();
		  IF NEW.updated_at IS DISTINCT FROM _new_value THEN NEW.updated_at = _new_value; END IF;
		  RETURN NEW;
		END; $$;`,
		`DROP TRIGGER IF EXISTS set_kv_entries_updated_at ON kv_entries;`,
		`CREATE TRIGGER set_kv_entries_updated_at BEFORE UPDATE ON kv_entries
		 FOR EACH ROW EXECUTE FUNCTION set_current_timestamp_updated_at();`,
		// Reset walks one namespace at a time.
		`CREATE INDEX IF NOT EXISTS idx_kv_entries_namespace ON kv_entries (namespace);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Warn("MIGRATE", "Post-migration statement failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}
