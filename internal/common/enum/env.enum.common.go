package enum

// EnvEnum is the deployment environment read from APP_ENV.
type EnvEnum string

const (
	LOCAL       EnvEnum = "local"
	DEVELOPMENT EnvEnum = "development"
	PRODUCTION  EnvEnum = "production"
	STAGING     EnvEnum = "staging"
)

func (e EnvEnum) ToString() string {
	switch e {
	case LOCAL:
		return "local"
	case DEVELOPMENT:
		return "development"
	case PRODUCTION:
		return "production"
	case STAGING:
		return "staging"
	}
	return ""
}

func (e EnvEnum) IsValid() bool {
	switch e {
	case LOCAL, DEVELOPMENT, PRODUCTION, STAGING:
		return true
	}
	return false
}

// RunsWorkers reports whether background consumers start with the API.
func (e EnvEnum) RunsWorkers() bool {
	return e == PRODUCTION || e == STAGING
}
