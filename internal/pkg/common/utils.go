package common

import "errors"

// ErrorBody 產生 API 錯誤響應
func ErrorBody(err error, debug bool) ErrorResponse {
	resp := ErrorResponse{
		Code:    CodeOf(err),
		Message: err.Error(),
	}
	var ce *CustomError
	if errors.As(err, &ce) {
		resp.Message = ce.Message
		if debug && ce.Err != nil {
			resp.Details = ce.Err.Error()
		}
	}
	return resp
}
