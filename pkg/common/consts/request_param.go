package consts

const (
	HeaderParamAdminSecret      = "X-Hasura-Admin-Secret"
	HeaderParamUserId           = "X-Hasura-User-Id"
	HeaderParamRequestId        = "X-Request-Id"
	HeaderParamProtocolEncoding = "X-Protocol-Encoding"
	HeaderParamContentLength    = "Content-Length"
	HeaderParamContentType      = "Content-Type"

	ProtocolEncodingStruct = "struct"

	PathParamFormat = "format"

	ContentTypeJson = "application/json"

	AnonymousUser = "anonymous"
)
