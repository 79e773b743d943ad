package http

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

type APIResponse400Err struct {
	Status  int               `json:"status" example:"400"`
	Message string            `json:"message" example:"Bad Request"`
	Data    []ValidationError `json:"data,omitempty"`
}

type APIResponse404Err struct {
	Status  int         `json:"status" example:"404"`
	Message string      `json:"message" example:"Not Found"`
	Data    []*AppError `json:"data,omitempty"`
}

type APIResponse409Err struct {
	Status  int         `json:"status" example:"409"`
	Message string      `json:"message" example:"Conflict"`
	Data    []*AppError `json:"data,omitempty"`
}

type APIResponse429Err struct {
	Status  int    `json:"status" example:"429"`
	Message string `json:"message" example:"Too Many Requests"`
	Data    string `json:"data,omitempty" example:"rate limit exceeded"`
}

type APIResponse500Err struct {
	Status  int    `json:"status" example:"500"`
	Message string `json:"message" example:"Internal Server Error"`
	Data    string `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"round_id"`
	Message string                 `json:"message,omitempty" example:"round_id is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
