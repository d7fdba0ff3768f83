package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/syllacal/internal/calendar"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	d, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestSettings(t *testing.T) {
	d := openTemp(t)

	v, err := d.GetSetting("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, d.SetSetting("k", "one"))
	require.NoError(t, d.SetSetting("k", "two"))
	v, err = d.GetSetting("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}

func TestLastView(t *testing.T) {
	d := openTemp(t)
	assert.Equal(t, calendar.ViewWeek, d.LastView(calendar.ViewWeek))

	require.NoError(t, d.SetLastView(calendar.ViewDay))
	assert.Equal(t, calendar.ViewDay, d.LastView(calendar.ViewMonth))

	require.NoError(t, d.SetSetting(KeyLastView, "fortnight"))
	assert.Equal(t, calendar.ViewMonth, d.LastView(calendar.ViewMonth))
}

func TestLastScreen(t *testing.T) {
	d := openTemp(t)
	screen, course := d.LastScreen()
	assert.Empty(t, screen)
	assert.Empty(t, course)

	require.NoError(t, d.SetLastScreen("course", "c-1"))
	screen, course = d.LastScreen()
	assert.Equal(t, "course", screen)
	assert.Equal(t, "c-1", course)
}

func TestSettingsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.SetLastView(calendar.ViewWeek))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	assert.Equal(t, calendar.ViewWeek, d.LastView(calendar.ViewMonth))
}
