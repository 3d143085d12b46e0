package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]GuestCategory{
		"vip":     CategoryVIP,
		"VIP":     CategoryVIP,
		" Vip ":   CategoryVIP,
		"media":   CategoryMedia,
		"Sponsor": CategorySponsor,
		"regular": CategoryRegular,
		"press":   CategoryRegular,
		"":        CategoryRegular,
	}

	for input, expected := range cases {
		assert.Equal(t, expected, NormalizeCategory(input), "input %q", input)
	}
}

func TestEventsRemaining(t *testing.T) {
	account := Account{Role: RoleEventManager, EventQuota: 5, EventsUsed: 3}
	assert.Equal(t, 2, account.EventsRemaining())

	account.EventsUsed = 6
	assert.Equal(t, 0, account.EventsRemaining(), "remaining is clamped, never negative")
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"super_admin", "admin", "event_manager", "organizer"} {
		role, ok := ParseRole(valid)
		assert.True(t, ok)
		assert.Equal(t, Role(valid), role)
	}

	_, ok := ParseRole("superadmin")
	assert.False(t, ok)
}
