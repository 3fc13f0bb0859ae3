package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextStripsTags(t *testing.T) {
	assert.Equal(t, "hello", Text("<b>hello</b>"))
	assert.Equal(t, "", Text("<script>alert(1)</script>"))
	assert.Equal(t, "", Text("<img src=x onerror=alert(1)>"))
}

func TestTextKeepsPlain(t *testing.T) {
	assert.Equal(t, "sunset at the pier #nofilter", Text("sunset at the pier #nofilter"))
}

func TestTextTrims(t *testing.T) {
	assert.Equal(t, "hi", Text("  hi  "))
}
