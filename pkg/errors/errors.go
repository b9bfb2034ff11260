package errors

import stderrors "errors"

// Kind 错误大类，决定 HTTP 状态码。
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindInvalidOperation
	KindUnauthorized
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvalidOperation:
		return "InvalidOperation"
	case KindUnauthorized:
		return "Unauthorized"
	case KindTooManyRequests:
		return "TooManyRequests"
	default:
		return "InternalError"
	}
}

func (d Definition) Error() string {
	return d.Message
}

// Is 按错误码比较，WithMessage 派生出的错误仍然匹配原 Definition。
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	if !ok {
		return false
	}
	return d.Code == t.Code
}

// WithMessage 返回替换了提示信息的副本。
func (d Definition) WithMessage(msg string) Definition {
	d.Message = msg
	return d
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
	Kind    Kind
}

// 通用错误。
var (
	ValidationFailed = Definition{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: "Request validation failed"}
	InvalidRequest   = Definition{Kind: KindValidation, Code: "INVALID_REQUEST", Message: "Invalid request"}
	Internal         = Definition{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "Internal server error"}
	TooManyRequests  = Definition{Kind: KindTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
)

// 认证相关错误。
var (
	Unauthorized  = Definition{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID = Definition{Kind: KindUnauthorized, Code: "INVALID_USER_ID", Message: "Invalid user ID format"}

	ErrTokenGeneratorNotInitialized = Definition{Kind: KindInternal, Code: "TOKEN_GENERATOR_NOT_INITIALIZED", Message: "Token generator not initialized"}
	ErrUnexpectedSigningMethod      = Definition{Kind: KindUnauthorized, Code: "UNEXPECTED_SIGNING_METHOD", Message: "Unexpected signing method"}
	ErrInvalidToken                 = Definition{Kind: KindUnauthorized, Code: "INVALID_TOKEN", Message: "Invalid token"}
	ErrInvalidTokenClaims           = Definition{Kind: KindUnauthorized, Code: "INVALID_TOKEN_CLAIMS", Message: "Invalid token claims"}
	ErrUserIDNotFound               = Definition{Kind: KindUnauthorized, Code: "USER_ID_NOT_FOUND", Message: "User ID not found in token"}
)

// 路线模块错误。
var (
	RouteNotFound     = Definition{Kind: KindNotFound, Code: "ROUTE_NOT_FOUND", Message: "Route not found"}
	RouteNotActive    = Definition{Kind: KindNotFound, Code: "ROUTE_NOT_FOUND", Message: "Route not found, completed or not owned by user"}
	RouteCompleted    = Definition{Kind: KindConflict, Code: "ROUTE_COMPLETED", Message: "Route already completed"}
	RouteTargetBroken = Definition{Kind: KindInternal, Code: "ROUTE_TARGET_INVALID", Message: "Route has no valid target"}
	RouteNotCustom    = Definition{Kind: KindInvalidOperation, Code: "ROUTE_NOT_CUSTOM", Message: "Only available for custom circuits"}
	POINotInCircuit   = Definition{Kind: KindNotFound, Code: "POI_NOT_IN_CIRCUIT", Message: "POI is not part of this circuit"}
	POIOrderMismatch  = Definition{Kind: KindValidation, Code: "POI_ORDER_MISMATCH", Message: "Provided POIs do not match the circuit POIs"}
)

// 线路模块错误。
var (
	CircuitNotFound       = Definition{Kind: KindNotFound, Code: "CIRCUIT_NOT_FOUND", Message: "Circuit not found"}
	CustomCircuitNotFound = Definition{Kind: KindNotFound, Code: "CUSTOM_CIRCUIT_NOT_FOUND", Message: "Custom circuit not found"}
	POINotFound           = Definition{Kind: KindNotFound, Code: "POI_NOT_FOUND", Message: "POI not found"}
	DuplicatePOI          = Definition{Kind: KindValidation, Code: "DUPLICATE_POI", Message: "Duplicate POI in selection"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	ValidationFailed.Code:      ValidationFailed,
	InvalidRequest.Code:        InvalidRequest,
	Internal.Code:              Internal,
	TooManyRequests.Code:       TooManyRequests,
	Unauthorized.Code:          Unauthorized,
	InvalidUserID.Code:         InvalidUserID,
	RouteNotFound.Code:         RouteNotFound,
	RouteCompleted.Code:        RouteCompleted,
	RouteTargetBroken.Code:     RouteTargetBroken,
	RouteNotCustom.Code:        RouteNotCustom,
	POINotInCircuit.Code:       POINotInCircuit,
	POIOrderMismatch.Code:      POIOrderMismatch,
	CircuitNotFound.Code:       CircuitNotFound,
	CustomCircuitNotFound.Code: CustomCircuitNotFound,
	POINotFound.Code:           POINotFound,
	DuplicatePOI.Code:          DuplicatePOI,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// As 从错误链中取出 Definition。
func As(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}

// SkipMessageError 消息无需处理（重复投递或格式错误），消费端直接确认
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}
