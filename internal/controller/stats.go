package controller

import (
	"time"

	"github.com/rs/zerolog"
)

// Stats counts what one instance did during a run.
type Stats struct {
	Cycles  int
	Battles int
	Errors  int
	Started time.Time
}

func (s *Stats) record(err error) {
	s.Cycles++
	if err != nil {
		s.Errors++
	}
}

func (s *Stats) log(l zerolog.Logger, now time.Time) {
	l.Info().
		Int("cycles", s.Cycles).
		Int("battles", s.Battles).
		Int("errors", s.Errors).
		Dur("elapsed", now.Sub(s.Started).Round(time.Second)).
		Msg("Instance finished")
}
