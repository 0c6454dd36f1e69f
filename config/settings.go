package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Settings represents the application configuration persisted to settings.json.
type Settings struct {
	Server         ServerSettings         `json:"server"`
	EZTV           EZTVSettings           `json:"eztv"`
	Catalog        CatalogSettings        `json:"catalog"`
	Log            LogConfig              `json:"log"`
	ScheduledTasks ScheduledTasksSettings `json:"scheduledTasks,omitempty"`
}

type ServerSettings struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	PIN    string `json:"pin,omitempty"`
	APIKey string `json:"apiKey,omitempty"` // legacy, migrated to PIN on startup
}

// EZTVSettings configures the upstream tracker client.
type EZTVSettings struct {
	BaseURL        string `json:"baseUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	RetryAttempts  int    `json:"retryAttempts"`
	UserAgent      string `json:"userAgent"`
}

// CatalogSettings configures the persistent catalog and its maintenance.
type CatalogSettings struct {
	DatabasePath    string  `json:"databasePath"`
	SnapshotPath    string  `json:"snapshotPath"`    // JSON catalog export written after each refresh; empty disables
	WarmShowLimit   int     `json:"warmShowLimit"`   // shows to prefetch episode tables for after a refresh; 0 disables
	WarmConcurrency int     `json:"warmConcurrency"` // parallel episode fetches during warm-up
	SearchThreshold float64 `json:"searchThreshold"` // minimum similarity score for q= catalog searches
}

type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// ScheduledTaskType defines the type of scheduled task
type ScheduledTaskType string

const (
	ScheduledTaskTypeCatalogRefresh ScheduledTaskType = "catalog_refresh"
)

// ScheduledTaskFrequency defines how often a task runs
type ScheduledTaskFrequency string

const (
	ScheduledTaskFrequency1Min    ScheduledTaskFrequency = "1min"
	ScheduledTaskFrequency5Min    ScheduledTaskFrequency = "5min"
	ScheduledTaskFrequency15Min   ScheduledTaskFrequency = "15min"
	ScheduledTaskFrequency30Min   ScheduledTaskFrequency = "30min"
	ScheduledTaskFrequencyHourly  ScheduledTaskFrequency = "hourly"
	ScheduledTaskFrequency6Hours  ScheduledTaskFrequency = "6hours"
	ScheduledTaskFrequency12Hours ScheduledTaskFrequency = "12hours"
	ScheduledTaskFrequencyDaily   ScheduledTaskFrequency = "daily"
)

// ScheduledTaskStatus represents the last run status
type ScheduledTaskStatus string

const (
	ScheduledTaskStatusPending ScheduledTaskStatus = "pending"
	ScheduledTaskStatusRunning ScheduledTaskStatus = "running"
	ScheduledTaskStatusSuccess ScheduledTaskStatus = "success"
	ScheduledTaskStatusError   ScheduledTaskStatus = "error"
)

// ScheduledTask represents a single scheduled task configuration
type ScheduledTask struct {
	ID             string                 `json:"id"`
	Type           ScheduledTaskType      `json:"type"`
	Name           string                 `json:"name"`
	Enabled        bool                   `json:"enabled"`
	Frequency      ScheduledTaskFrequency `json:"frequency"`
	LastRunAt      *time.Time             `json:"lastRunAt,omitempty"`
	LastStatus     ScheduledTaskStatus    `json:"lastStatus"`
	LastError      string                 `json:"lastError,omitempty"`
	ItemsProcessed int                    `json:"itemsProcessed,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// ScheduledTasksSettings contains all scheduled task configurations
type ScheduledTasksSettings struct {
	Tasks                []ScheduledTask `json:"tasks"`
	CheckIntervalSeconds int             `json:"checkIntervalSeconds"` // How often scheduler checks for due tasks (default: 60)
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 7979},
		EZTV: EZTVSettings{
			BaseURL:        "https://eztvx.to",
			TimeoutSeconds: 20,
			RetryAttempts:  3,
			UserAgent:      "showdex/1.0",
		},
		Catalog: CatalogSettings{
			DatabasePath:    "cache/catalog.db",
			SnapshotPath:    "cache/catalog.json",
			WarmShowLimit:   0,
			WarmConcurrency: 4,
			SearchThreshold: 0.55,
		},
		Log: LogConfig{
			File:       "cache/logs/showdex.log",
			Level:      "info",
			MaxSize:    50,   // 50 MB per file
			MaxBackups: 3,    // keep 3 old files
			MaxAge:     7,    // 7 days
			Compress:   true, // compress old files
		},
		ScheduledTasks: ScheduledTasksSettings{
			Tasks: []ScheduledTask{
				{
					ID:         "default-catalog-refresh",
					Type:       ScheduledTaskTypeCatalogRefresh,
					Name:       "Catalog refresh",
					Enabled:    false,
					Frequency:  ScheduledTaskFrequencyDaily,
					LastStatus: ScheduledTaskStatusPending,
					CreatedAt:  time.Now().UTC(),
				},
			},
			CheckIntervalSeconds: 60, // Check every 60 seconds
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		// create with defaults
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	// Decode into a raw map first so legacy layouts can be migrated
	// before the typed decode.
	var raw map[string]interface{}
	dec := json.NewDecoder(f)
	if err := dec.Decode(&raw); err != nil {
		return Settings{}, err
	}

	// Early builds kept the tracker client under "tracker".
	if trackerRaw, ok := raw["tracker"]; ok {
		if _, hasEZTV := raw["eztv"]; !hasEZTV {
			raw["eztv"] = trackerRaw
		}
		delete(raw, "tracker")
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := json.Unmarshal(rawJSON, &s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults for settings introduced after the config was written
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port == 0 {
		s.Server.Port = 7979
	}

	if strings.TrimSpace(s.EZTV.BaseURL) == "" {
		s.EZTV.BaseURL = "https://eztvx.to"
	}
	if s.EZTV.TimeoutSeconds == 0 {
		s.EZTV.TimeoutSeconds = 20
	}
	if s.EZTV.RetryAttempts == 0 {
		s.EZTV.RetryAttempts = 3
	}
	if strings.TrimSpace(s.EZTV.UserAgent) == "" {
		s.EZTV.UserAgent = "showdex/1.0"
	}

	if strings.TrimSpace(s.Catalog.DatabasePath) == "" {
		s.Catalog.DatabasePath = "cache/catalog.db"
	}
	if s.Catalog.WarmConcurrency == 0 {
		s.Catalog.WarmConcurrency = 4
	}
	if s.Catalog.SearchThreshold == 0 {
		s.Catalog.SearchThreshold = 0.55
	}

	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "cache/logs/showdex.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}

	if s.ScheduledTasks.CheckIntervalSeconds == 0 {
		s.ScheduledTasks.CheckIntervalSeconds = 60
	}
	if s.ScheduledTasks.Tasks == nil {
		s.ScheduledTasks.Tasks = []ScheduledTask{}
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
