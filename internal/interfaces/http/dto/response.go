package dto

import "time"

// Response is the envelope of every API answer. Exactly one of Data and
// Error is set; Meta only accompanies paginated lists.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected request field.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

const defaultPageSize = 20

// OK wraps data in a success envelope.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// Paged is OK plus pagination. A non-positive pageSize is reported as the
// default page size.
func Paged(data any, total int64, page, pageSize int) Response {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pages := (total + int64(pageSize) - 1) / int64(pageSize)
	resp := OK(data)
	resp.Meta = &Meta{Total: total, Page: page, PageSize: pageSize, TotalPages: int(pages)}
	return resp
}

// Fail builds an error envelope. code is normalized to its API form.
func Fail(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{
		Code:      NormalizeErrorCode(code),
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now(),
	}}
}

// Invalid is Fail with ERR_VALIDATION and per-field details.
func Invalid(message, requestID string, details []ValidationDetail) Response {
	resp := Fail(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}
