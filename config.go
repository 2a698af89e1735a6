package kathy

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Nick      string
	User      string
	Real      string
	Password  string
	Invisible bool

	Host        string // server to connect to with autoconnect.
	AutoConnect bool   `yaml:"autoconnect"`
	Proxy       string // proxy URL, such as socks5://localhost:9050.

	Transcript   string // path of the raw transcript, "-" to disable it.
	NickColWidth int    `yaml:"nick-column-width"`
	Debug        bool
}

func ParseConfig(buf []byte) (cfg Config, err error) {
	err = yaml.Unmarshal(buf, &cfg)
	if err != nil {
		return
	}

	if cfg.User == "" {
		cfg.User = cfg.Nick
	}
	if cfg.Real == "" {
		cfg.Real = cfg.Nick
	}
	if cfg.NickColWidth <= 0 {
		cfg.NickColWidth = 16
	}

	return
}

func LoadConfigFile(filename string) (cfg Config, err error) {
	var buf []byte

	buf, err = os.ReadFile(filename)
	if err != nil {
		return
	}

	cfg, err = ParseConfig(buf)

	return
}

// DefaultConfigPath is kathy/kathy.yaml in the user configuration directory.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "kathy", "kathy.yaml"), nil
}
