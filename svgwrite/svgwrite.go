// Package svgwrite rewrites the stat placeholders inside
// the profile SVG cards. Elements are located by their
// id attribute; numeric stats get comma grouping and a
// dot-leader written into the matching "<id>_dots"
// element so the card's columns stay aligned.
package svgwrite

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/dustin/go-humanize"
)

// Stats carries every value written into a card.
type Stats struct {
	// Age is the rendered account age string.
	Age string
	// Commits is the total own-commit count.
	Commits int
	// Stars is the total stargazer count.
	Stars int
	// Repos is the owned repository count.
	Repos int
	// Contributed is the contributed-to repo count.
	Contributed int
	// Followers is the follower count.
	Followers int
	// LOCAdded is the total lines added.
	LOCAdded int
	// LOCDeleted is the total lines deleted.
	LOCDeleted int
	// LOCNet is LOCAdded minus LOCDeleted.
	LOCNet int
}

// Column widths for the dot leaders, tuned to the card
// layout.
const (
	commitWidth   = 22
	starWidth     = 16
	repoWidth     = 6
	followerWidth = 10
	locNetWidth   = 12
	locDelWidth   = 7
)

// Update rewrites the placeholders in the SVG file at
// path in place.
func Update(path string, st Stats) error {
	const errCtx = "updating svg"

	doc := etree.NewDocument()

	if err := doc.ReadFromFile(path); err != nil {
		return fmt.Errorf(
			"%s: read %s: %w", errCtx, path, err,
		)
	}

	setText(doc, "age_data", st.Age)

	justify(doc, "commit_data",
		humanize.Comma(int64(st.Commits)),
		commitWidth,
	)
	justify(doc, "star_data",
		humanize.Comma(int64(st.Stars)),
		starWidth,
	)
	justify(doc, "repo_data",
		humanize.Comma(int64(st.Repos)),
		repoWidth,
	)
	justify(doc, "contrib_data",
		humanize.Comma(int64(st.Contributed)),
		0,
	)
	justify(doc, "follower_data",
		humanize.Comma(int64(st.Followers)),
		followerWidth,
	)
	justify(doc, "loc_data",
		humanize.Comma(int64(st.LOCNet)),
		locNetWidth,
	)
	justify(doc, "loc_add",
		humanize.Comma(int64(st.LOCAdded)),
		0,
	)
	justify(doc, "loc_del",
		humanize.Comma(int64(st.LOCDeleted)),
		locDelWidth,
	)

	if err := doc.WriteToFile(path); err != nil {
		return fmt.Errorf(
			"%s: write %s: %w", errCtx, path, err,
		)
	}

	return nil
}

// justify writes text into the element with the given
// id and a dot leader into "<id>_dots".
func justify(
	doc *etree.Document,
	id string,
	text string,
	width int,
) {
	setText(doc, id, text)
	setText(doc, id+"_dots", dotLeader(width-len(text)))
}

// dotLeader renders the filler between a label and its
// value. Small gaps use fixed strings so the layout
// never collapses; larger gaps get a dotted run with
// one space on each side.
func dotLeader(pad int) string {
	if pad < 0 {
		pad = 0
	}

	switch pad {
	case 0:
		return ""
	case 1:
		return " "
	case 2:
		return ". "
	default:
		return " " + strings.Repeat(".", pad) + " "
	}
}

// setText replaces the text of the element whose id
// attribute matches. Missing elements are skipped so a
// card can omit stats it does not display.
func setText(
	doc *etree.Document,
	id string,
	text string,
) {
	el := doc.FindElement(
		fmt.Sprintf("//*[@id='%s']", id),
	)
	if el == nil {
		return
	}

	el.SetText(text)
}
