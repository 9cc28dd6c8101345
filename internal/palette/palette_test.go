package palette

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func sendKeys(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
		m = next.(Model)
	}
	return m
}

func pressEnter(m Model) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func pressTab(m Model) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	return next.(Model)
}

func TestAddingASwatchRecordsNameAndHex(t *testing.T) {
	m := New()
	m = sendKeys(t, m, "b", "r", "a", "n", "d")
	m = pressTab(m)
	m = sendKeys(t, m, "#", "f", "f", "6", "b", "6", "b")
	m = pressEnter(m)

	require.Len(t, m.Swatches(), 1)
	require.Equal(t, "brand", m.Swatches()[0].Name)
	require.Equal(t, "#ff6b6b", m.Swatches()[0].Hex)
}

func TestInvalidHexIsRejectedWithoutAddingASwatch(t *testing.T) {
	m := New()
	m = sendKeys(t, m, "b", "a", "d")
	m = pressTab(m)
	m = sendKeys(t, m, "n", "o", "t", "-", "a", "-", "c", "o", "l", "o", "r")
	m = pressEnter(m)

	require.Empty(t, m.Swatches())
	require.Error(t, m.err)
}

func TestEmptyNameQuits(t *testing.T) {
	m := New()
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	require.True(t, m.quitting)
}
