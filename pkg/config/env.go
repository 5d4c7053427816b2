package config

// EnvPrefix namespaces every configuration variable.
const EnvPrefix = "RENTALCRM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "RENTALCRM_DB_DSN"
	EnvDBHost = "RENTALCRM_DB_HOST"
	EnvDBUser = "RENTALCRM_DB_USER"
	EnvDBName = "RENTALCRM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
