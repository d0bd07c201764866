package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWindows(t *testing.T) {
	titles := map[int]string{
		10: "World of Warships",
		11: "",
		12: "战舰世界",
		13: "World of Warships",
		14: "Launcher",
	}
	titleOf := func(pid int) string { return titles[pid] }
	pids := []int{10, 11, 12, 13, 14}

	got := selectWindows(pids, titleOf, []string{"World of Warships", "战舰世界"})
	assert.Equal(t, []Info{
		{Pid: 10, Title: "World of Warships"},
		{Pid: 12, Title: "战舰世界"},
		{Pid: 13, Title: "World of Warships"},
	}, got)

	got = selectWindows(pids, titleOf, nil)
	assert.Len(t, got, 4)

	assert.Empty(t, selectWindows(pids, titleOf, []string{"Other"}))
}

func TestSelectWindows_SameTitleKeepsEveryClient(t *testing.T) {
	titleOf := func(int) string { return "World of Warships" }

	got := selectWindows([]int{21, 22, 21}, titleOf, []string{"World of Warships"})
	assert.Equal(t, []Info{
		{Pid: 21, Title: "World of Warships"},
		{Pid: 22, Title: "World of Warships"},
	}, got)
}

func TestNewCapturer(t *testing.T) {
	c, err := NewCapturer("robotgo")
	require.NoError(t, err)
	assert.IsType(t, robotgoCapturer{}, c)

	c, err = NewCapturer("screenshot")
	require.NoError(t, err)
	assert.IsType(t, screenshotCapturer{}, c)

	_, err = NewCapturer("dxgi")
	assert.Error(t, err)
}

func TestFindWindows_EmptyProcess(t *testing.T) {
	_, err := FindWindows("", nil)
	assert.Error(t, err)
}
