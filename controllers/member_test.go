package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/models"
)

func TestUpsertMemberBlankIDIsAnonymous(t *testing.T) {
	setupTestDB(t)

	id, err := UpsertMember("   ", MemberProfile{DisplayName: "Nobody"})
	require.NoError(t, err)
	assert.Nil(t, id)

	var count int64
	require.NoError(t, config.DB.Model(&models.Member{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpsertMemberCreateThenRefresh(t *testing.T) {
	setupTestDB(t)

	id, err := UpsertMember("line_U1", MemberProfile{DisplayName: "阿明", Source: "line"})
	require.NoError(t, err)
	require.NotNil(t, id)

	var created models.Member
	require.NoError(t, config.DB.First(&created, *id).Error)
	firstSeen := created.LastInteractionAt
	require.NotNil(t, firstSeen)

	// Empty fields never overwrite, filled ones do.
	again, err := UpsertMember("line_U1", MemberProfile{Email: "ming@example.com", Source: "line"})
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.Equal(t, *id, *again)

	var refreshed models.Member
	require.NoError(t, config.DB.First(&refreshed, *id).Error)
	assert.Equal(t, "阿明", refreshed.DisplayName)
	assert.Equal(t, "ming@example.com", refreshed.Email)

	var count int64
	require.NoError(t, config.DB.Model(&models.Member{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertMemberDefaultsSource(t *testing.T) {
	setupTestDB(t)

	id, err := UpsertMember("anon@example.com", MemberProfile{})
	require.NoError(t, err)
	require.NotNil(t, id)

	var member models.Member
	require.NoError(t, config.DB.First(&member, *id).Error)
	assert.Equal(t, "form", member.Source)
}
