package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// WindowDef binds a game window title to the display language of its client.
type WindowDef struct {
	Title    string `mapstructure:"title"`
	Language string `mapstructure:"language"`
}

// TaskDef is one scheduled play window as written by the operator.
type TaskDef struct {
	Type  string `mapstructure:"type"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
	Count int    `mapstructure:"count"`
}

type ScheduleDef struct {
	Enabled bool      `mapstructure:"enabled"`
	Tasks   []TaskDef `mapstructure:"tasks"`
}

// User holds operator preferences; it round-trips through user.json.
type User struct {
	Language       string      `mapstructure:"language"`
	Title          string      `mapstructure:"title"`
	Process        string      `mapstructure:"process"`
	Windows        []WindowDef `mapstructure:"windows"`
	LogLevel       string      `mapstructure:"log_level"`
	LogsDir        string      `mapstructure:"logs_dir"`
	ScheduledTasks ScheduleDef `mapstructure:"scheduled_tasks"`
}

func setUserDefaults(v *viper.Viper) {
	v.SetDefault("language", "en")
	v.SetDefault("title", "World of Warships")
	v.SetDefault("process", "WorldOfWarships64.exe")
	v.SetDefault("log_level", "info")
	v.SetDefault("logs_dir", "logs")
	v.SetDefault("scheduled_tasks.enabled", false)
}

// LoadUser reads user.json from dir.
func LoadUser(dir string) (*User, error) {
	v := viper.New()
	setUserDefaults(v)

	v.SetConfigFile(filepath.Join(dir, UserFile))
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading user file: %w", err)
	}

	u := &User{}
	if err := v.Unmarshal(u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return u, nil
}

// SaveUser writes u to dir/user.json, replacing the previous document.
func SaveUser(dir string, u *User) error {
	v := viper.New()
	v.SetConfigType("json")

	windows := make([]map[string]any, 0, len(u.Windows))
	for _, w := range u.Windows {
		windows = append(windows, map[string]any{"title": w.Title, "language": w.Language})
	}
	tasks := make([]map[string]any, 0, len(u.ScheduledTasks.Tasks))
	for _, t := range u.ScheduledTasks.Tasks {
		tasks = append(tasks, map[string]any{"type": t.Type, "start": t.Start, "end": t.End, "count": t.Count})
	}

	v.Set("language", u.Language)
	v.Set("title", u.Title)
	v.Set("process", u.Process)
	v.Set("windows", windows)
	v.Set("log_level", u.LogLevel)
	v.Set("logs_dir", u.LogsDir)
	v.Set("scheduled_tasks.enabled", u.ScheduledTasks.Enabled)
	v.Set("scheduled_tasks.tasks", tasks)

	if err := v.WriteConfigAs(filepath.Join(dir, UserFile)); err != nil {
		return fmt.Errorf("error writing user file: %w", err)
	}
	return nil
}

// LanguageFor returns the display language configured for a window title.
func (u *User) LanguageFor(title string) string {
	for _, w := range u.Windows {
		if w.Title == title && w.Language != "" {
			return w.Language
		}
	}
	return u.Language
}

// Titles lists every window title the bot should attach to.
func (u *User) Titles() []string {
	if len(u.Windows) == 0 {
		return []string{u.Title}
	}
	titles := make([]string, 0, len(u.Windows))
	for _, w := range u.Windows {
		titles = append(titles, w.Title)
	}
	return titles
}
