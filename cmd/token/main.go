package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	config "mobile-banking-core/configs"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/jwt"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/validation"
)

// token prints a bearer token for a UI shell instance, signed with
// APP_JWT_SECRET:
//
//	go run ./cmd/token -user u-1 -device pixel-7
func main() {
	userID := flag.String("user", "", "user id carried in the token")
	deviceID := flag.String("device", "", "device id of the shell")
	flag.Parse()

	env, err := config.GetEnv()
	if err != nil {
		logger.Error.Println("Error getting environment", err)
		os.Exit(1)
	}
	if err := validation.Setup(); err != nil {
		logger.Error.Println("Failed to setup validation", err)
		os.Exit(1)
	}

	token, exp, err := issue(env.AppJWTSecret, types.ShellClaims{UserID: *userID, DeviceID: *deviceID})
	if err != nil {
		logger.Error.Println("Error issuing token", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "expires %s\n", exp.Format(time.RFC3339))
	fmt.Println(token)
}

func issue(secret string, claims types.ShellClaims) (string, *time.Time, error) {
	if err := validation.Validate(claims); err != nil {
		return "", nil, err
	}
	return jwt.GenerateToken(secret, claims)
}
