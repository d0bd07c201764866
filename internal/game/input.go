package game

import "github.com/go-vgo/robotgo"

// Input drives the system mouse and keyboard through robotgo.
type Input struct{}

func (Input) Position() (int, int) {
	return robotgo.Location()
}

func (Input) MoveTo(x, y int) {
	robotgo.Move(x, y)
}

func (Input) MouseDown() {
	robotgo.Toggle("left")
}

func (Input) MouseUp() {
	robotgo.Toggle("left", "up")
}

func (Input) KeyDown(key string) {
	robotgo.KeyDown(key)
}

func (Input) KeyUp(key string) {
	robotgo.KeyUp(key)
}

func (Input) Scroll(amount int, direction string) {
	robotgo.ScrollDir(amount, direction)
}
