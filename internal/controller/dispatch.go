package controller

import (
	"github.com/Barabama/WoWsBot/internal/config"
)

// Category is the game phase a recognized screen belongs to.
type Category int

const (
	CategoryPort Category = iota
	CategoryPrep
	CategoryActive
	CategoryEnded
)

func (c Category) String() string {
	switch c {
	case CategoryPrep:
		return "prep"
	case CategoryActive:
		return "active"
	case CategoryEnded:
		return "ended"
	default:
		return "port"
	}
}

// Classifier maps template names to game phases. Unregistered names,
// Unknown included, are port screens.
type Classifier struct {
	categories map[string]Category
}

func NewClassifier(states config.StateConfig) *Classifier {
	c := &Classifier{categories: make(map[string]Category)}
	c.Register(CategoryPrep, states.Prep...)
	c.Register(CategoryActive, states.Active...)
	c.Register(CategoryEnded, states.Ended...)
	return c
}

// Register assigns names to a category; a later registration wins.
func (c *Classifier) Register(cat Category, names ...string) {
	for _, name := range names {
		c.categories[name] = cat
	}
}

func (c *Classifier) Classify(name string) Category {
	if cat, ok := c.categories[name]; ok {
		return cat
	}
	return CategoryPort
}
