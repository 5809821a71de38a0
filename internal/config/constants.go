package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the user database
	DefaultDatabasePath = "./heartcheck.db"

	// DefaultModelPath is the default location of the trained model artifact
	DefaultModelPath = "./model/heart_disease_lr.json"
)
