package config

// Config is the complete linegate configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// Integrity controls checksum verification at load time:
	// "enforce" (default), "warn" or "off".
	Integrity string `yaml:"integrity"`

	Server  ServerConfig  `yaml:"server"`
	Line    LineConfig    `yaml:"line"`
	Storage StorageConfig `yaml:"storage"`
	Publish PublishConfig `yaml:"publish,omitempty"`
}

// ServerConfig defines the HTTP server settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`

	// AdminToken guards the read-only admin routes. Empty disables them.
	AdminToken string `yaml:"admin_token,omitempty"`
}

// LineConfig carries the platform credentials and endpoints.
type LineConfig struct {
	ChannelSecret      string `yaml:"channel_secret"`
	ChannelAccessToken string `yaml:"channel_access_token"`
	ReplyEndpoint      string `yaml:"reply_endpoint"`
	ContentEndpoint    string `yaml:"content_endpoint"`
}

// StorageConfig defines persistence locations.
type StorageConfig struct {
	Path       string `yaml:"path"`
	ContentDir string `yaml:"content_dir"`
}

// PublishConfig defines optional NATS forwarding. Empty URL disables it.
type PublishConfig struct {
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// ChecksumManifest is the .checksums file layout.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}
