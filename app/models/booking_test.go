package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingAddOnIDsRoundTrip(t *testing.T) {
	b := &Booking{}

	b.SetAddOnIDs([]uint{3, 5, 8})
	assert.Equal(t, `[3,5,8]`, b.AddOnIDsJSON)
	assert.Equal(t, []uint{3, 5, 8}, b.AddOnIDs())

	b.SetAddOnIDs(nil)
	assert.Equal(t, `[]`, b.AddOnIDsJSON)
	assert.Empty(t, b.AddOnIDs())
}

func TestBookingAddOnIDsMalformedStorage(t *testing.T) {
	b := &Booking{AddOnIDsJSON: "{broken"}
	assert.Nil(t, b.AddOnIDs())

	b.AddOnIDsJSON = ""
	assert.Nil(t, b.AddOnIDs())
}

func TestWebhookRecordIsTerminal(t *testing.T) {
	rec := &WebhookRecord{Status: WebhookStatusReceived}
	assert.False(t, rec.IsTerminal())

	rec.Status = WebhookStatusProcessing
	assert.False(t, rec.IsTerminal())

	rec.Status = WebhookStatusProcessed
	assert.True(t, rec.IsTerminal())

	rec.Status = WebhookStatusFailed
	assert.True(t, rec.IsTerminal())
}
