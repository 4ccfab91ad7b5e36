package consts

const (
	GraphqlKeyQuery         = "query"
	GraphqlKeyOperationName = "operationName"
	GraphqlKeyVariables     = "variables"
	GraphqlKeyData          = "data"
	GraphqlKeyErrors        = "errors"
	GraphqlKeyExtensions    = "extensions"

	GraphqlIntrospectionField = "__schema"
	GraphqlFederationField    = "_service"

	// 查询历史记录的簿记字段
	HistoryKeyReplayId  = "replayID"
	HistoryKeyIndex     = "_index"
	HistoryKeyTimestamp = "_timestamp"
	HistoryKeyMetadata  = "metadata"
	HistoryKeyObjectId  = "_id"
)
