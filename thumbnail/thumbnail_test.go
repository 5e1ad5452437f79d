package thumbnail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlayTextShortens(t *testing.T) {
	assert.Equal(t, "Learn Numbers 1 to 5", overlayText("Learn Numbers 1 to 5 for Toddlers and Preschoolers"))
	assert.Equal(t, "ABC Song", overlayText("ABC Song"))
}

func TestEscapeDrawtext(t *testing.T) {
	assert.Equal(t, `Let\'s Count\: 1 to 5`, escapeDrawtext(`Let's Count: 1 to 5`))
	assert.Equal(t, `100\% Fun`, escapeDrawtext(`100% Fun`))
}
