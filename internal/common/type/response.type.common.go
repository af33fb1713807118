package types

// Response is the envelope every service method returns.
type Response struct {
	Code    int
	Message string
	Data    any
	Error   error
}

// ResponseAPI is the JSON body written to the shell.
type ResponseAPI struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
