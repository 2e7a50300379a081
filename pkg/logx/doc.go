// Package logx is fcsched's structured logging on top of zerolog.
//
// Loggers are values carrying fixed fields. A Service owns the sinks
// (console or JSON on stdout, JSON file) and can be re-applied at runtime
// when the logging section of the config changes. Throttle rate-limits
// warnings raised from the scheduler loop.
package logx
