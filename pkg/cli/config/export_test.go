package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channel, apiURL string) *Slack {
	return &Slack{
		botToken: botToken,
		channel:  channel,
		apiURL:   apiURL,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewAppConfigForTest creates an AppConfig bound to a file path
func NewAppConfigForTest(path string) *AppConfig {
	return &AppConfig{path: path}
}

// NewExportForTest creates an Export config for testing purposes
func NewExportForTest(bucket, prefix, output string) *Export {
	return &Export{bucket: bucket, prefix: prefix, output: output}
}
