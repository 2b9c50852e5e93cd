package dto

// Response is the envelope of every API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code           string             `json:"code"`
	Kind           string             `json:"kind,omitempty"`
	Message        string             `json:"message"`
	Entity         *EntityRef         `json:"entity,omitempty"`
	CurrentState   string             `json:"current_state,omitempty"`
	AttemptedState string             `json:"attempted_state,omitempty"`
	Retryable      bool               `json:"retryable"`
	RequestID      string             `json:"request_id,omitempty"`
	Details        []ValidationDetail `json:"details,omitempty"`
}

// EntityRef names the entity an error is about
type EntityRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// ValidationDetail is one failed binding rule
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta carries paging information for lists
type Meta struct {
	Count     int   `json:"count"`
	Total     int64 `json:"total,omitempty"`
	NextAfter int64 `json:"next_after,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta creates a success response carrying list metadata
func NewSuccessResponseWithMeta(data any, meta Meta) Response {
	return Response{Success: true, Data: data, Meta: &meta}
}

// NewErrorResponse creates an error response
func NewErrorResponse(info *ErrorInfo) Response {
	return Response{Success: false, Error: info}
}
