package notification

import (
	"testing"

	"github.com/echo88/core/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMutedRespectsPreferences(t *testing.T) {
	prefs := models.NotificationPreferences{Likes: false, Comments: true, Follows: false, Messages: true}

	assert.True(t, muted(prefs, models.NotificationLike))
	assert.False(t, muted(prefs, models.NotificationComment))
	assert.False(t, muted(prefs, models.NotificationMention))
	assert.True(t, muted(prefs, models.NotificationFollow))
	assert.False(t, muted(prefs, models.NotificationMessage))
}

func TestMutedUnknownTypeDelivered(t *testing.T) {
	prefs := models.NotificationPreferences{}
	assert.False(t, muted(prefs, models.NotificationType("unknown")))
}
