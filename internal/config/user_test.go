package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUser(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, UserFile, `{
		"language": "zh_CN",
		"windows": [
			{ "title": "World of Warships", "language": "en" },
			{ "title": "战舰世界", "language": "zh_CN" }
		],
		"scheduled_tasks": {
			"enabled": true,
			"tasks": [
				{ "type": "daily", "start": "22:00", "end": "02:00", "count": 3 },
				{ "type": "once", "start": "9", "end": "11:30", "count": 1 }
			]
		}
	}`)

	u, err := LoadUser(dir)
	require.NoError(t, err)

	assert.Equal(t, "zh_CN", u.Language)
	assert.Equal(t, "WorldOfWarships64.exe", u.Process)
	assert.Equal(t, "info", u.LogLevel)
	assert.Equal(t, []string{"World of Warships", "战舰世界"}, u.Titles())
	assert.Equal(t, "en", u.LanguageFor("World of Warships"))
	assert.Equal(t, "zh_CN", u.LanguageFor("unknown window"))

	require.True(t, u.ScheduledTasks.Enabled)
	require.Len(t, u.ScheduledTasks.Tasks, 2)
	assert.Equal(t, TaskDef{Type: "daily", Start: "22:00", End: "02:00", Count: 3}, u.ScheduledTasks.Tasks[0])
}

func TestLoadUser_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, UserFile, `{}`)

	u, err := LoadUser(dir)
	require.NoError(t, err)
	assert.Equal(t, "en", u.Language)
	assert.Equal(t, []string{"World of Warships"}, u.Titles())
	assert.False(t, u.ScheduledTasks.Enabled)
}

func TestSaveUser_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := &User{
		Language: "en",
		Title:    "World of Warships",
		Process:  "WorldOfWarships64.exe",
		Windows:  []WindowDef{{Title: "World of Warships", Language: "en"}},
		LogLevel: "debug",
		LogsDir:  "logs",
		ScheduledTasks: ScheduleDef{
			Enabled: true,
			Tasks: []TaskDef{
				{Type: "daily", Start: "08:00", End: "10:00", Count: 5},
				{Type: "once", Start: "23:30", End: "01:00", Count: 2},
			},
		},
	}

	require.NoError(t, SaveUser(dir, in))
	out, err := LoadUser(dir)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
