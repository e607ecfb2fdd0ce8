// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - attributes whose key names a password, secret or credential
//   - values carrying credentials (user:pass@ in URLs, password= in DSNs)
//   - registered secrets, such as the password of an encrypted PDF, wherever
//     they appear in a message, a string value or an error
//
// Verbose mode lowers the level to Debug; sensitive values stay masked.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose, cfg.Password)
//	slog.SetDefault(logger)
//
//	logger.Info("opening pdf", "path", path, "password", pw) // password is masked
package log
