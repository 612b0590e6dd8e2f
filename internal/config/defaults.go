package config

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Directory name used for global (~/.newsdesk) and project (./.newsdesk) settings.
const dirName = ".newsdesk"

const defaultTemplate = `# newsdesk configuration
api_url: http://127.0.0.1:8000
ws_path: /api/ws/board

# token_file: ~/.newsdesk/token.json
request_timeout: 30s

# How long a task may stay in one stage before it is shown as overdue.
overdue_after: 72h

realtime:
  initial_backoff: 1s
  max_backoff: 30s
  ping_interval: 25s

log:
  level: info
  format: console
`

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://127.0.0.1:8000")
	v.SetDefault("ws_path", "/api/ws/board")
	v.SetDefault("token_file", "")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("overdue_after", 72*time.Hour)
	v.SetDefault("realtime.initial_backoff", time.Second)
	v.SetDefault("realtime.max_backoff", 30*time.Second)
	v.SetDefault("realtime.ping_interval", 25*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// WriteDefault writes a commented default configuration file.
func WriteDefault(path string) error {
	return os.WriteFile(path, []byte(defaultTemplate), 0644)
}
