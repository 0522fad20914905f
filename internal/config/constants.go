package config

// DefaultDatabasePath is the default path for the sync database
const DefaultDatabasePath = "./folio.db"
