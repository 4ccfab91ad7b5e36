// Package consts
/*
 环境变量及viper配置键，启动时通过.env或命令行参数写入viper
*/
package consts

const (
	GatewayName    = "augment-gateway"
	GatewayVersion = "GATEWAY_VERSION"
	GatewayCommit  = "GATEWAY_COMMIT"

	DevMode    = "dev"
	ActiveMode = "ACTIVE_MODE"

	EnginePort = "PORT"

	HasuraUri         = "HASURA_URI"
	HasuraAdminSecret = "HASURA_ADMIN_SECRET"

	EnabledPlugins = "PLUGINS"
	AutoDirectives = "AUTO_DIRECTIVES"

	MongodbConnectionString = "MONGODB_CONNECTION_STRING"

	AnomaliesScorerUri = "ANOMALIES_SCORER_URI"
	ClusterScorerUri   = "CLUSTER_SCORER_URI"

	MinioEndpoint  = "MINIO_ENDPOINT"
	MinioAccessKey = "MINIO_ACCESS_KEY"
	MinioSecretKey = "MINIO_SECRET_KEY"
	MinioBucket    = "MINIO_BUCKET"
	MinioUseSSL    = "MINIO_USE_SSL"

	SchemaRefreshSeconds = "SCHEMA_REFRESH_SECONDS"

	NamingVerbs = "NAMING_VERBS"

	LogFilename = "LOG_FILENAME"

	JaegerConfigFile = "JAEGER_CONFIG_FILE"
)
