package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Barabama/WoWsBot/internal/config"
)

type Kind int

const (
	// Daily tasks come back every day; their quota refills when the window
	// reopens with nothing left.
	Daily Kind = iota
	// Once tasks run in their next window and are then gone.
	Once
)

func (k Kind) String() string {
	if k == Once {
		return "once"
	}
	return "daily"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "":
		return Daily, nil
	case "once", "one_shot", "oneshot":
		return Once, nil
	default:
		return Daily, fmt.Errorf("unknown task type %q", s)
	}
}

// TimeOfDay is a wall-clock time with minute resolution.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay accepts "HH:MM" or a bare hour "HH".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	hh, mm, found := strings.Cut(s, ":")
	if !found {
		mm = "0"
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Task is one scheduled play window.
type Task struct {
	ID    uuid.UUID
	Index int
	Kind  Kind
	Start TimeOfDay
	End   TimeOfDay
	Quota int
}

// Contains reports whether now falls inside the window, both ends included.
// A window whose start is after its end spans midnight.
func (t Task) Contains(now time.Time) bool {
	cur := now.Hour()*60 + now.Minute()
	start, end := t.Start.minutes(), t.End.minutes()
	if start <= end {
		return start <= cur && cur <= end
	}
	return cur >= start || cur <= end
}

// openedOn is the date on which the window containing now opened. The early
// part of a window that spans midnight belongs to the previous day.
func (t Task) openedOn(now time.Time) time.Time {
	y, mo, d := now.Date()
	day := time.Date(y, mo, d, 0, 0, 0, 0, now.Location())
	start, end := t.Start.minutes(), t.End.minutes()
	if start > end && now.Hour()*60+now.Minute() <= end {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// Entry is an open task window with the battles it still wants.
type Entry struct {
	TaskID    uuid.UUID
	Index     int
	Remaining int
}

type taskState struct {
	task      Task
	remaining int
	open      bool
	removed   bool
	// day the current window opened on
	day time.Time
}

// Manager tracks scheduled tasks for one game instance.
type Manager struct {
	mu      sync.Mutex
	log     zerolog.Logger
	enabled bool
	states  []*taskState
}

// NewManager builds the task list from the user document. Invalid entries are
// logged and skipped.
func NewManager(def config.ScheduleDef, log zerolog.Logger) *Manager {
	m := &Manager{
		log:     log.With().Str("component", "scheduler").Logger(),
		enabled: def.Enabled,
	}
	for i, td := range def.Tasks {
		task, err := newTask(i, td)
		if err != nil {
			m.log.Warn().Err(err).Int("index", i).Msg("Invalid scheduled task")
			continue
		}
		m.states = append(m.states, &taskState{task: task, remaining: task.Quota})
	}
	if m.enabled {
		m.log.Info().Int("tasks", len(m.states)).Msg("Scheduled tasks loaded")
	}
	return m
}

func newTask(index int, td config.TaskDef) (Task, error) {
	kind, err := ParseKind(td.Type)
	if err != nil {
		return Task{}, err
	}
	start, err := ParseTimeOfDay(td.Start)
	if err != nil {
		return Task{}, err
	}
	end, err := ParseTimeOfDay(td.End)
	if err != nil {
		return Task{}, err
	}
	if td.Count < 0 {
		return Task{}, fmt.Errorf("negative battle count %d", td.Count)
	}
	return Task{
		ID:    uuid.New(),
		Index: index,
		Kind:  kind,
		Start: start,
		End:   end,
		Quota: td.Count,
	}, nil
}

func (m *Manager) Enabled() bool {
	return m.enabled
}

// Tasks lists the tasks that have not been removed.
func (m *Manager) Tasks() []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, s := range m.states {
		if !s.removed {
			out = append(out, s.task)
		}
	}
	return out
}

// Refresh opens and closes task windows for the given time.
func (m *Manager) Refresh(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh(now)
}

func (m *Manager) refresh(now time.Time) {
	if !m.enabled {
		return
	}
	for _, s := range m.states {
		if s.removed {
			continue
		}
		in := s.task.Contains(now)
		switch {
		case in && !s.open:
			s.open = true
			s.day = s.task.openedOn(now)
			if s.task.Kind == Daily && s.remaining == 0 {
				s.remaining = s.task.Quota
			}
			m.log.Info().Int("task", s.task.Index).Stringer("kind", s.task.Kind).
				Int("remaining", s.remaining).Msg("Task window opened")
		case in && s.task.Kind == Daily && !s.task.openedOn(now).Equal(s.day):
			// a window covering the whole day never closes, so a new day reopens it
			s.day = s.task.openedOn(now)
			if s.remaining == 0 {
				s.remaining = s.task.Quota
			}
			m.log.Info().Int("task", s.task.Index).Int("remaining", s.remaining).Msg("Task window reopened for a new day")
		case !in && s.open:
			s.open = false
			if s.task.Kind == Once {
				s.removed = true
			}
			m.log.Info().Int("task", s.task.Index).Bool("removed", s.removed).Msg("Task window closed")
		}
		if s.open && s.task.Kind == Once && s.remaining == 0 {
			s.open = false
			s.removed = true
			m.log.Info().Int("task", s.task.Index).Msg("One-shot task completed")
		}
	}
}

// RecordBattle counts a finished battle against every open task.
func (m *Manager) RecordBattle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled {
		return
	}
	m.refresh(now)
	for _, s := range m.states {
		if s.open && !s.removed && s.remaining > 0 {
			s.remaining--
			m.log.Debug().Int("task", s.task.Index).Int("remaining", s.remaining).Msg("Task recorded battle")
		}
	}
	m.refresh(now)
}

// ShouldContinue decides whether the bot keeps playing. A running battle is
// always finished first.
func (m *Manager) ShouldContinue(inBattle bool) bool {
	if inBattle || !m.enabled {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.states {
		if s.open && !s.removed && s.remaining > 0 {
			return true
		}
	}
	return false
}

// Finished reports whether every scheduled task has been used up.
func (m *Manager) Finished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || len(m.states) == 0 {
		return false
	}
	for _, s := range m.states {
		if !s.removed {
			return false
		}
	}
	return true
}

// Active lists the open task windows ordered by task index.
func (m *Manager) Active() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, s := range m.states {
		if s.open && !s.removed {
			out = append(out, Entry{TaskID: s.task.ID, Index: s.task.Index, Remaining: s.remaining})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
