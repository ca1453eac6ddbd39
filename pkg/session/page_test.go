package session

import (
	"testing"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/stretchr/testify/assert"
)

func testPage(selected []string) *Page {
	options := []Option{
		{ID: "A", Label: "Prison A"},
		{ID: "B", Label: "Prison B"},
	}

	return NewPage(options, "All prisons", facets.SelectorState{}, selected)
}

func TestPage_NewPageKeepsKnownSelection(t *testing.T) {
	page := testPage([]string{"B", "X", "A"})

	assert.Equal(t, []string{"A", "B"}, page.Selected())
}

func TestPage_DisablingDeselects(t *testing.T) {
	page := testPage([]string{"A", "B"})

	page.options.SetOptionState("A", facets.OptionState{Visible: false, Enabled: false})
	page.options.SetOptionState("B", facets.OptionState{Visible: true, Enabled: true})

	assert.Equal(t, []string{"B"}, page.Selected())

	views := page.Options()
	assert.False(t, views[0].Selected)
	assert.True(t, views[1].Selected)
}

func TestPage_SelectOptionsSkipsUnknownAndDisabled(t *testing.T) {
	page := testPage(nil)
	page.options.SetOptionState("B", facets.OptionState{Visible: false, Enabled: false})

	page.SelectOptions([]string{"A", "B", "C"})

	assert.Equal(t, []string{"A"}, page.Selected())

	page.SelectOptions(nil)
	assert.Empty(t, page.Selected())
}

func TestPage_PresentOnNilControls(t *testing.T) {
	var s *selector
	var o *optionList

	assert.False(t, s.Present())
	assert.False(t, o.Present())
	assert.True(t, testPage(nil).region.Present())
}
