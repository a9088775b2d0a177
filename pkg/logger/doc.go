// Package logger builds slog loggers with environment presets and automatic
// context attribute injection.
//
// Context extractors pull request-scoped values (tenant id, request id) into
// every log record without call sites passing them explicitly:
//
//	log := logger.New(
//		logger.WithProduction("api"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
package logger
