package config

const (
	EnvPrefix = "CONSULTDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CONSULTDESK_DB_DSN"
	EnvDBHost = "CONSULTDESK_DB_HOST"
	EnvDBUser = "CONSULTDESK_DB_USER"
	EnvDBName = "CONSULTDESK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
