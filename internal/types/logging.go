package types

// LogLevel controls logger verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DeploymentMode identifies which process role a binary is running as.
type DeploymentMode string

const (
	ModeLocal  DeploymentMode = "local"
	ModeServer DeploymentMode = "server"
	ModeCron   DeploymentMode = "cron"
)
