package message

import (
	"testing"

	"github.com/echo88/core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestPairKeyOrdersLexicographically(t *testing.T) {
	a, b := pairKey("beta", "alpha")
	assert.Equal(t, "alpha", a)
	assert.Equal(t, "beta", b)

	a, b = pairKey("alpha", "beta")
	assert.Equal(t, "alpha", a)
	assert.Equal(t, "beta", b)
}

func TestPeerOf(t *testing.T) {
	conv := &models.ConversationModel{UserAID: "a", UserBID: "b"}
	assert.Equal(t, "b", peerOf(conv, "a"))
	assert.Equal(t, "a", peerOf(conv, "b"))
}
