package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFixedPick(t *testing.T, index int) {
	t.Helper()
	orig := randIntN
	randIntN = func(n int) int {
		require.Greater(t, n, index)
		return index
	}
	t.Cleanup(func() { randIntN = orig })
}

func TestFormatList(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"empty", nil, ""},
		{"one", []string{"Mabel"}, "Mabel"},
		{"two", []string{"Mabel", "Hugo"}, "Mabel and Hugo"},
		{"three", []string{"Mabel", "Theresa", "Hugo"}, "Mabel, Theresa and Hugo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatList(tt.items))
		})
	}
}

func TestUsers(t *testing.T) {
	withFixedPick(t, 1)

	result, err := Users([]string{"U1", "U2", "U3"}, "to run the next meeting", "U9", "")
	require.NoError(t, err)

	assert.Equal(t, "U2", result.Winner)
	assert.Equal(t, "<@U2> was chosen at random *to run the next meeting*!", result.Message)
	assert.Equal(t, "<@U1>, <@U2> and <@U3> were included in the draw. Draw performed by <@U9>.", result.Context)
}

func TestUsers_NoReason(t *testing.T) {
	withFixedPick(t, 0)

	result, err := Users([]string{"U1", "U2"}, "  ", "U9", "")
	require.NoError(t, err)
	assert.Equal(t, "<@U1> was chosen at random!", result.Message)
}

func TestManual(t *testing.T) {
	withFixedPick(t, 2)

	result, err := Manual([]string{"Mabel", "Theresa", "Hugo"}, "", "U9", "")
	require.NoError(t, err)

	assert.Equal(t, "Hugo", result.Winner)
	assert.Equal(t, "_*Hugo*_ was chosen at random!", result.Message)
	assert.Equal(t, "Mabel, Theresa and Hugo were included in the draw. Draw performed by <@U9>.", result.Context)
}

func TestContextWarning(t *testing.T) {
	withFixedPick(t, 0)

	result, err := Manual([]string{"Mabel"}, "", "U9", "You have 1 draw remaining this month. Paid plans with unlimited draws coming soon!")
	require.NoError(t, err)
	assert.Contains(t, result.Context, "\n\n⚠️ You have 1 draw remaining")
}

func TestEmptyParticipants(t *testing.T) {
	_, err := Users(nil, "", "U9", "")
	assert.Error(t, err)

	_, err = Manual(nil, "", "U9", "")
	assert.Error(t, err)
}

func TestSplitNames(t *testing.T) {
	assert.Equal(t, []string{"Mabel", "Theresa", "Hugo"}, SplitNames("Mabel\r\nTheresa\n  Hugo  \n\n"))
	assert.Nil(t, SplitNames("  \r\n \n"))
}
