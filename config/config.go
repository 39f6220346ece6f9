// Package config 定义数据集加载器的配置（支持 YAML/JSON 与 KUAIREC_* 环境变量覆盖）。
//
// 示例：
//
//	dataset:
//	  local_root: "data/data_extracted"
//	  remote_url: "https://example.com/KuaiRec.zip"
//	  clean: true
//	  read_concurrency: 2
//	  parse_modes:
//	    captions: tolerant
//	lock:
//	  backend: file
//	cleaning:
//	  extra:
//	    big_matrix:
//	      - type: clean.where
//	        config: {expr: "row.watch_ratio < 5.0"}
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/kuairec/core"
	"github.com/rushteam/kuairec/pipeline"
)

const (
	// DefaultRemoteURL 是 KuaiRec 2.0 压缩包的默认下载地址
	DefaultRemoteURL = "https://drive.usercontent.google.com/download?id=1qe5hOSBxzIuxBb1G_Ih5X-O65QElollE&export=download&confirm=t&uuid=b2002093-cc6e-4bd5-be47-9603f0b33470"
	DefaultLocalRoot  = "data/data_extracted"
	DefaultDataSubdir = "KuaiRec 2.0/data"
)

// Config 是加载器的完整配置。
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset" json:"dataset"`
	Download DownloadConfig `yaml:"download" json:"download"`
	Lock     LockConfig     `yaml:"lock" json:"lock"`
	Cleaning CleaningConfig `yaml:"cleaning" json:"cleaning"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// DatasetConfig 描述数据集的来源、落盘位置与读取方式。
type DatasetConfig struct {
	LocalRoot  string `yaml:"local_root" json:"local_root"`   // 解压目标目录
	RemoteURL  string `yaml:"remote_url" json:"remote_url"`   // 压缩包地址，支持 http(s) 与 file
	DataSubdir string `yaml:"data_subdir" json:"data_subdir"` // CSV 所在的相对路径
	Clean      bool   `yaml:"clean" json:"clean"`

	// ReadConcurrency 是并发读取的文件数，1 表示顺序读取
	ReadConcurrency int `yaml:"read_concurrency" json:"read_concurrency"`

	// ParseModes 按表名覆盖解析模式，未列出的表使用默认值
	ParseModes map[string]core.ParseMode `yaml:"parse_modes" json:"parse_modes"`
}

// DownloadConfig 是下载参数。
type DownloadConfig struct {
	Timeout   Duration `yaml:"timeout" json:"timeout"` // 0 表示不超时
	UserAgent string   `yaml:"user_agent" json:"user_agent"`
}

// LockConfig 选择首次下载时的互斥后端。
type LockConfig struct {
	Backend       string   `yaml:"backend" json:"backend"` // none / memory / file / redis
	TTL           Duration `yaml:"ttl" json:"ttl"`
	PollInterval  Duration `yaml:"poll_interval" json:"poll_interval"`
	RedisAddr     string   `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string   `yaml:"redis_password" json:"redis_password"`
	RedisDB       int      `yaml:"redis_db" json:"redis_db"`
}

// CleaningConfig 在默认清洗规则之后追加的额外规则，key 为表名。
type CleaningConfig struct {
	Extra map[string][]pipeline.NodeConfig `yaml:"extra" json:"extra"`
}

// LoggingConfig 是日志级别与格式（text / json）。
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			LocalRoot:       DefaultLocalRoot,
			RemoteURL:       DefaultRemoteURL,
			DataSubdir:      DefaultDataSubdir,
			Clean:           true,
			ReadConcurrency: 1,
		},
		Lock: LockConfig{
			Backend:      "file",
			TTL:          Duration(30 * time.Minute),
			PollInterval: Duration(500 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultParseModes 返回每张表的默认解析模式：captions 容错，其余严格。
func DefaultParseModes() map[core.TableName]core.ParseMode {
	modes := make(map[core.TableName]core.ParseMode)
	for _, name := range core.Order() {
		modes[name] = core.ParseStrict
	}
	modes[core.Captions] = core.ParseTolerant
	return modes
}

// DataDir 返回 CSV 文件所在目录。
func (c *Config) DataDir() string {
	return filepath.Join(c.Dataset.LocalRoot, c.Dataset.DataSubdir)
}

// ParseMode 返回表的解析模式（配置覆盖优先）。
func (c *Config) ParseMode(name core.TableName) core.ParseMode {
	if m, ok := c.Dataset.ParseModes[string(name)]; ok {
		return m
	}
	return DefaultParseModes()[name]
}

// Load 按扩展名加载 YAML 或 JSON 配置，未出现的字段保留默认值。
func Load(path string) (*Config, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadFromJSON(path)
	}
	return LoadFromYAML(path)
}

// LoadFromYAML 从 YAML 文件加载配置。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// LoadFromJSON 从 JSON 文件加载配置。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return cfg, nil
}

// ApplyEnv 用 KUAIREC_* 环境变量覆盖配置；lookup 为 nil 时使用 os.LookupEnv。
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("KUAIREC_LOCAL_ROOT", &c.Dataset.LocalRoot)
	str("KUAIREC_REMOTE_URL", &c.Dataset.RemoteURL)
	str("KUAIREC_DATA_SUBDIR", &c.Dataset.DataSubdir)
	str("KUAIREC_LOCK_BACKEND", &c.Lock.Backend)
	str("KUAIREC_REDIS_ADDR", &c.Lock.RedisAddr)
	str("KUAIREC_REDIS_PASSWORD", &c.Lock.RedisPassword)
	str("KUAIREC_LOG_LEVEL", &c.Logging.Level)
	str("KUAIREC_LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup("KUAIREC_CLEAN"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("KUAIREC_CLEAN: %w", err)
		}
		c.Dataset.Clean = b
	}
	if v, ok := lookup("KUAIREC_READ_CONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("KUAIREC_READ_CONCURRENCY: %w", err)
		}
		c.Dataset.ReadConcurrency = n
	}
	if v, ok := lookup("KUAIREC_DOWNLOAD_TIMEOUT"); ok && v != "" {
		if err := c.Download.Timeout.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("KUAIREC_DOWNLOAD_TIMEOUT: %w", err)
		}
	}
	return nil
}

// Validate 校验配置。
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.NewDomainError(core.ModuleConfig, core.ErrorCodeInvalidInput, fmt.Sprintf(format, args...))
	}

	if c.Dataset.LocalRoot == "" {
		return invalid("dataset.local_root is required")
	}
	u, err := url.Parse(c.Dataset.RemoteURL)
	if err != nil || c.Dataset.RemoteURL == "" {
		return invalid("dataset.remote_url %q is not a valid url", c.Dataset.RemoteURL)
	}
	switch u.Scheme {
	case "http", "https", "file":
	default:
		return invalid("dataset.remote_url scheme %q not supported", u.Scheme)
	}
	if c.Dataset.ReadConcurrency < 1 {
		return invalid("dataset.read_concurrency must be >= 1, got %d", c.Dataset.ReadConcurrency)
	}
	for name, mode := range c.Dataset.ParseModes {
		if !core.TableName(name).Valid() {
			return invalid("dataset.parse_modes: unknown table %q", name)
		}
		if !mode.Valid() {
			return invalid("dataset.parse_modes.%s: unknown mode %q", name, mode)
		}
	}

	switch c.Lock.Backend {
	case "", "none", "memory", "file":
	case "redis":
		if c.Lock.RedisAddr == "" {
			return invalid("lock.redis_addr is required for redis backend")
		}
	default:
		return invalid("lock.backend %q not supported", c.Lock.Backend)
	}

	for name, rules := range c.Cleaning.Extra {
		if !core.TableName(name).Valid() {
			return invalid("cleaning.extra: unknown table %q", name)
		}
		for i, r := range rules {
			if r.Type == "" {
				return invalid("cleaning.extra.%s[%d]: type is required", name, i)
			}
		}
	}
	return nil
}

// Duration 是支持 "30s"、"5m" 文本形式的时长（YAML/JSON 通用）。
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}
