package types

// ShellClaims identifies the UI shell calling the headless core.
type ShellClaims struct {
	UserID   string `json:"user_id" validate:"required"`
	DeviceID string `json:"device_id" validate:"required"`
}
