package config

// EnvPrefix is intentionally empty: every field names its variable in full via
// the envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CRAFTLANE_DB_DSN"
	EnvDBHost = "CRAFTLANE_DB_HOST"
	EnvDBUser = "CRAFTLANE_DB_USER"
	EnvDBName = "CRAFTLANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
