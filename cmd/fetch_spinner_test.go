package cmd

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSpinnerModelShowsLabelWhileRunning(t *testing.T) {
	m := newFetchSpinnerModel("Fetching dashboard data...", func() tea.Msg {
		return fetchDoneMsg{}
	})

	assert.Contains(t, m.View(), "Fetching dashboard data...")
}

func TestFetchSpinnerModelQuitsOnDone(t *testing.T) {
	fetchErr := errors.New("backend unreachable")
	m := newFetchSpinnerModel("Fetching dashboard data...", func() tea.Msg {
		return fetchDoneMsg{err: fetchErr}
	})

	updated, cmd := m.Update(fetchDoneMsg{err: fetchErr})
	final, ok := updated.(fetchSpinnerModel)
	require.True(t, ok)

	assert.True(t, final.done)
	assert.Equal(t, fetchErr, final.err)
	assert.Empty(t, final.View(), "finished spinner leaves no residue on the terminal")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRunFetchSpinnerReturnsFetchError(t *testing.T) {
	fetchErr := errors.New("backend unreachable")

	err := runFetchSpinner(context.Background(), io.Discard, "Fetching dashboard data...",
		func(ctx context.Context) error { return fetchErr })

	assert.ErrorIs(t, err, fetchErr)
}
