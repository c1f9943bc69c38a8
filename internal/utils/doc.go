// Package utils exposes the configuration and logging helpers shared by debsync commands.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file, and
// environment variables through Viper; LoggerFactory builds zap loggers.
package utils
