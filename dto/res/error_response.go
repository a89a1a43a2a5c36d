package res

type ErrorResponse struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error"`
}
