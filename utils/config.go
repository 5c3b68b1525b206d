package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// ConfigFileName is the file name LoadAllConfigFiles looks for.
const ConfigFileName = "subset.yaml"

const (
	DefaultLineCacheWindow = 64
	DefaultConcurrency     = 1
)

// RegionConfig is a source pixel rectangle.
type RegionConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// SubsetConfig describes one subset request. A nil Region selects the full
// scene, a nil NodeNames list retains every node.
type SubsetConfig struct {
	Name                    string        `yaml:"name"`
	Description             string        `yaml:"description"`
	Region                  *RegionConfig `yaml:"region"`
	SubSamplingX            int           `yaml:"sub_sampling_x"`
	SubSamplingY            int           `yaml:"sub_sampling_y"`
	NodeNames               []string      `yaml:"node_names"`
	IgnoreMetadata          bool          `yaml:"ignore_metadata"`
	TreatVirtualBandsAsReal bool          `yaml:"treat_virtual_bands_as_real"`
}

// Config is the struct representing a subset configuration document: the
// list of subsets to derive plus the settings of the services they use.
type Config struct {
	NameSpace       string         `yaml:"-"`
	Subsets         []SubsetConfig `yaml:"subsets"`
	LineCacheWindow int            `yaml:"line_cache_window"`
	Concurrency     int            `yaml:"concurrency"`
	MemcacheAddress string         `yaml:"memcache_address"`
	CatalogueDSN    string         `yaml:"catalogue_dsn"`
	MetricsLogDir   string         `yaml:"metrics_log_dir"`
}

// ParseConfig decodes a YAML document, applies defaults and validates it.
func ParseConfig(raw []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, ConfigurationError("error at YAML parsing config document: %v", err)
	}
	if config.LineCacheWindow == 0 {
		config.LineCacheWindow = DefaultLineCacheWindow
	}
	if config.Concurrency == 0 {
		config.Concurrency = DefaultConcurrency
	}
	for i := range config.Subsets {
		s := &config.Subsets[i]
		if s.SubSamplingX == 0 {
			s.SubSamplingX = 1
		}
		if s.SubSamplingY == 0 {
			s.SubSamplingY = 1
		}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *Config) Validate() error {
	if config.LineCacheWindow < 1 {
		return ConfigurationError("line_cache_window must be positive, got %d", config.LineCacheWindow)
	}
	if config.Concurrency < 1 {
		return ConfigurationError("concurrency must be positive, got %d", config.Concurrency)
	}
	for i, s := range config.Subsets {
		if s.SubSamplingX < 1 || s.SubSamplingY < 1 {
			return ConfigurationError("subset %d (%s): sub-sampling must be >= 1, got %dx%d", i, s.Name, s.SubSamplingX, s.SubSamplingY)
		}
		if s.Region != nil && (s.Region.Width <= 0 || s.Region.Height <= 0) {
			return ConfigurationError("subset %d (%s): degenerate region %dx%d", i, s.Name, s.Region.Width, s.Region.Height)
		}
	}
	return nil
}

// LoadConfigFile reads and parses a single config document.
func LoadConfigFile(configFile string) (*Config, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return nil, ConfigurationError("error while reading config file: %s. Error: %v", configFile, err)
	}
	config, err := ParseConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configFile, err)
	}
	return config, nil
}

// LoadAllConfigFiles walks rootDir and loads every subset.yaml found, keyed
// by its directory relative to rootDir.
func LoadAllConfigFiles(rootDir string) (map[string]*Config, error) {
	configMap := make(map[string]*Config)
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Name() != ConfigFileName {
			return nil
		}

		relPath, _ := filepath.Rel(rootDir, filepath.Dir(path))
		logrus.WithFields(logrus.Fields{"path": path, "namespace": relPath}).Info("loading config file")

		config, err := LoadConfigFile(path)
		if err != nil {
			return err
		}
		if relPath != "." {
			config.NameSpace = relPath
		}
		configMap[relPath] = config
		return nil
	})

	if err == nil && len(configMap) == 0 {
		err = ConfigurationError("no %s found under %s", ConfigFileName, rootDir)
	}
	return configMap, err
}
