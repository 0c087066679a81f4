package svgwrite_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/Sriram-PR/svgwrite"
)

const cardTemplate = `<?xml version="1.0" encoding="utf-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="200">
  <text>
    <tspan id="age_data">?</tspan>
    <tspan id="commit_data_dots">?</tspan>
    <tspan id="commit_data">?</tspan>
    <tspan id="star_data_dots">?</tspan>
    <tspan id="star_data">?</tspan>
    <tspan id="repo_data_dots">?</tspan>
    <tspan id="repo_data">?</tspan>
    <tspan id="follower_data_dots">?</tspan>
    <tspan id="follower_data">?</tspan>
    <tspan id="loc_data_dots">?</tspan>
    <tspan id="loc_data">?</tspan>
    <tspan id="loc_add">?</tspan>
    <tspan id="loc_del_dots">?</tspan>
    <tspan id="loc_del">?</tspan>
  </text>
</svg>
`

// writeCard puts the template card into a temp file and
// returns its path.
func writeCard(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "card.svg")

	//nolint:gosec // test file
	err := os.WriteFile(
		path, []byte(cardTemplate), 0o644,
	)
	require.NoError(t, err)

	return path
}

// textOf reads back the text of the element with the
// given id.
func textOf(t *testing.T, path, id string) string {
	t.Helper()

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))

	el := doc.FindElement(
		"//*[@id='" + id + "']",
	)
	require.NotNil(t, el, "element %s", id)

	return el.Text()
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	path := writeCard(t)

	err := svgwrite.Update(path, svgwrite.Stats{
		Age:         "21 years, 6 months, 12 days",
		Commits:     4321,
		Stars:       87,
		Repos:       24,
		Contributed: 31,
		Followers:   150,
		LOCAdded:    123456,
		LOCDeleted:  54321,
		LOCNet:      69135,
	})
	require.NoError(t, err)

	assert.Equal(
		t,
		"21 years, 6 months, 12 days",
		textOf(t, path, "age_data"),
	)
	assert.Equal(
		t, "4,321", textOf(t, path, "commit_data"),
	)
	assert.Equal(
		t, "87", textOf(t, path, "star_data"),
	)
	assert.Equal(
		t, "123,456", textOf(t, path, "loc_add"),
	)
	assert.Equal(
		t, "69,135", textOf(t, path, "loc_data"),
	)

	// "4,321" is 5 characters against a width of 22, so
	// the leader is 17 dots with spaces around it.
	assert.Equal(
		t,
		" ................. ",
		textOf(t, path, "commit_data_dots"),
	)
}

func TestUpdate_missing_elements_skipped(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny.svg")

	tiny := `<svg><tspan id="star_data">?</tspan></svg>`

	//nolint:gosec // test file
	err := os.WriteFile(path, []byte(tiny), 0o644)
	require.NoError(t, err)

	err = svgwrite.Update(path, svgwrite.Stats{
		Stars: 9,
	})
	require.NoError(t, err)

	assert.Equal(t, "9", textOf(t, path, "star_data"))
}

func TestUpdate_missing_file(t *testing.T) {
	t.Parallel()

	err := svgwrite.Update(
		filepath.Join(t.TempDir(), "nope.svg"),
		svgwrite.Stats{},
	)

	assert.Error(t, err)
}

func TestDotLeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pad  int
		want string
	}{
		{name: "negative collapses", pad: -3, want: ""},
		{name: "zero", pad: 0, want: ""},
		{name: "one", pad: 1, want: " "},
		{name: "two", pad: 2, want: ". "},
		{name: "three", pad: 3, want: " ... "},
		{name: "five", pad: 5, want: " ..... "},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := svgwrite.DotLeaderForTest(tt.pad)
			assert.Equal(t, tt.want, got)
		})
	}
}
