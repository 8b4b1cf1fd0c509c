package global

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type APIResponse struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

func SuccessResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

func ErrorResponse(message string, errors []ValidationError) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}

// FieldErrors builds one ValidationError per field, all sharing message and code.
func FieldErrors(fields []string, message, code string) []ValidationError {
	if len(fields) == 0 {
		return nil
	}
	out := make([]ValidationError, len(fields))
	for i, field := range fields {
		out[i] = ValidationError{Field: field, Message: message, Code: code}
	}
	return out
}
