package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# TabSum configuration
version: "1.0"

# Analysis backend connection
backend:
  # Root URL of the analysis service (POST /analyze, POST /compare)
  base_url: "http://127.0.0.1:8000"
  # Client-side deadline per request; 0s waits indefinitely
  timeout: 0s
  # Outgoing request pacing; 0 disables the limiter
  requests_per_second: 0
  burst: 1
  user_agent: "tabsum"

# Output formatting
output:
  # text, json, markdown or csv
  default_format: "text"
  # auto, always or never
  color_mode: "auto"
  verbose: false
  no_emoji: false

# Interactive dashboard
ui:
  # default, high-contrast or minimal
  theme: "default"
  # Directory listed by the file picker
  start_dir: "."

# Chart image export
charts:
  export_dir: "./charts"

# Logging
log:
  # debug, info, warn or error
  level: "info"
  # Empty logs to stderr; the dashboard discards logs unless a file is set
  file: ""
`
}

// MinimalSampleConfig returns the smallest useful configuration file
func MinimalSampleConfig() string {
	return `version: "1.0"
backend:
  base_url: "http://127.0.0.1:8000"
output:
  default_format: "text"
`
}
