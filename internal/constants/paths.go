package constants

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file
const DefaultConfigPath = "./config.toml"

// DefaultDataDir is the default directory for state and the PID file
const DefaultDataDir = "~/.postbot"

// StateFileName is the JSON snapshot file inside the data directory
const StateFileName = "queue.json"

// SQLiteFileName is the database file inside the data directory
const SQLiteFileName = "postbot.db"

// PIDFileName is the single-instance guard inside the data directory
const PIDFileName = "postbot.pid"
