package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/profile-service/internal/cache"
	"github.com/iliyamo/profile-service/internal/model"
)

const profileID = "7b1c7d0e-4f7e-4d55-9a4e-0c6f7f3a2b11"

var testProfileCfg = ProfileConfig{CacheTTL: time.Hour, KeyPrefix: "user_data"}

func newTestProfiles(t *testing.T, c cache.Store) (*Profiles, *fakeProfiles) {
	t.Helper()
	store := newFakeProfiles()
	return NewProfiles(store, c, testProfileCfg, testLog), store
}

func TestGetProfile_CacheTakesPrecedence(t *testing.T) {
	c, mr := newMiniStore(t)
	p, store := newTestProfiles(t, c)
	ctx := context.Background()
	store.Rows[profileID] = model.Profile{ID: profileID, FirstName: strPtr("Alice")}

	first, err := p.GetProfile(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", *first.FirstName)
	assert.True(t, mr.Exists("user_data:"+profileID))
	assert.Equal(t, time.Hour, mr.TTL("user_data:"+profileID))

	store.Rows[profileID] = model.Profile{ID: profileID, FirstName: strPtr("Changed")}

	second, err := p.GetProfile(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	mr.FastForward(time.Hour + time.Second)
	third, err := p.GetProfile(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, "Changed", *third.FirstName)
}

func TestGetProfile_UndecodableEntryIsMiss(t *testing.T) {
	c, mr := newMiniStore(t)
	p, store := newTestProfiles(t, c)
	store.Rows[profileID] = model.Profile{ID: profileID, Bio: strPtr("hi")}
	require.NoError(t, mr.Set("user_data:"+profileID, "{not json"))

	got, err := p.GetProfile(context.Background(), profileID)
	require.NoError(t, err)
	assert.Equal(t, "hi", *got.Bio)

	raw, err := mr.Get("user_data:" + profileID)
	require.NoError(t, err)
	assert.Contains(t, raw, `"bio":"hi"`)
}

func TestGetProfile_CacheDownStillServes(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})
	store.Rows[profileID] = model.Profile{ID: profileID, LastName: strPtr("Liddell")}

	got, err := p.GetProfile(context.Background(), profileID)
	require.NoError(t, err)
	assert.Equal(t, "Liddell", *got.LastName)
}

func TestGetProfile_NotFound(t *testing.T) {
	c, mr := newMiniStore(t)
	p, _ := newTestProfiles(t, c)

	_, err := p.GetProfile(context.Background(), profileID)
	requireKind(t, err, KindNotFound, "Profile not found")
	assert.Empty(t, mr.Keys())
}

func TestGetProfile_StoreErrorIsInternal(t *testing.T) {
	c, _ := newMiniStore(t)
	p, store := newTestProfiles(t, c)
	store.GetErr = errors.New("too many connections")

	_, err := p.GetProfile(context.Background(), profileID)
	requireKind(t, err, KindInternal, "Failed to load profile: too many connections")
}

func TestUpdateProfile_AgeBoundaries(t *testing.T) {
	cases := []struct {
		age int
		ok  bool
	}{
		{17, false},
		{18, true},
		{50, true},
		{51, false},
	}
	for _, tc := range cases {
		p, store := newTestProfiles(t, brokenCache{})
		err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{Age: intPtr(tc.age)})
		if tc.ok {
			require.NoError(t, err, "age %d", tc.age)
			require.NotNil(t, store.Rows[profileID].Age)
			assert.Equal(t, uint8(tc.age), *store.Rows[profileID].Age)
			continue
		}
		requireKind(t, err, KindBadRequest, "Age must be between 18 and 50")
		assert.Empty(t, store.Calls, "age %d must not write", tc.age)
	}
}

func TestUpdateProfile_CreatesRowOnFirstWrite(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{
		FirstName: strPtr("Alice"),
		LastName:  strPtr("Liddell"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"exists", "insert", "firstname", "lastname"}, store.Calls)
	assert.Equal(t, "Alice", *store.Rows[profileID].FirstName)
	assert.Equal(t, "Liddell", *store.Rows[profileID].LastName)
}

func TestUpdateProfile_ExistingRowSkipsInsert(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})
	store.Rows[profileID] = model.Profile{ID: profileID}

	require.NoError(t, p.UpdateProfile(context.Background(), profileID, ProfileUpdate{Bio: strPtr("hi")}))
	assert.Equal(t, []string{"exists", "bio"}, store.Calls)
}

func TestUpdateProfile_AgeRejectionKeepsEarlierFields(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})
	g := model.GenderFemale

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{
		FirstName: strPtr("Alice"),
		Age:       intPtr(51),
		Gender:    &g,
	})
	requireKind(t, err, KindBadRequest, "Age must be between 18 and 50")
	assert.Equal(t, []string{"exists", "insert", "firstname"}, store.Calls)
	assert.Equal(t, "Alice", *store.Rows[profileID].FirstName)
	assert.Nil(t, store.Rows[profileID].Gender)
}

func TestUpdateProfile_AllFieldsInOrder(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})
	store.Rows[profileID] = model.Profile{ID: profileID}
	g := model.GenderOther

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{
		ProfileURL: strPtr("https://x.test/a.png"),
		Bio:        strPtr("hello"),
		Gender:     &g,
		Age:        intPtr(30),
		LastName:   strPtr("L"),
		FirstName:  strPtr("F"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"exists", "firstname", "lastname", "age", "gender", "bio", "profile_url"}, store.Calls)
	assert.Equal(t, model.GenderOther, *store.Rows[profileID].Gender)
}

func TestUpdateProfile_InvalidGender(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})
	g := model.Gender("Robot")

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{Gender: &g})
	requireKind(t, err, KindBadRequest, "")
	assert.Empty(t, store.Calls)
}

func TestUpdateProfile_SanitisesBio(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{Bio: strPtr(`<script>alert(1)</script><b>hi</b>`)})
	require.NoError(t, err)
	assert.Equal(t, "hi", *store.Rows[profileID].Bio)
}

func TestUpdateProfile_Empty(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{})
	requireKind(t, err, KindBadRequest, "No fields to update")
	assert.Empty(t, store.Calls)
}

func TestUpdateProfile_StatementFailureIsInternal(t *testing.T) {
	p, store := newTestProfiles(t, brokenCache{})
	store.UpdateErr = errors.New("lock wait timeout")

	err := p.UpdateProfile(context.Background(), profileID, ProfileUpdate{LastName: strPtr("L")})
	requireKind(t, err, KindInternal, "Failed to update lastname: lock wait timeout")
}

func TestUpdateProfile_DoesNotTouchCache(t *testing.T) {
	c, mr := newMiniStore(t)
	p, store := newTestProfiles(t, c)
	store.Rows[profileID] = model.Profile{ID: profileID, FirstName: strPtr("Alice")}
	ctx := context.Background()

	_, err := p.GetProfile(ctx, profileID)
	require.NoError(t, err)
	before, err := mr.Get("user_data:" + profileID)
	require.NoError(t, err)

	require.NoError(t, p.UpdateProfile(ctx, profileID, ProfileUpdate{FirstName: strPtr("Bob")}))

	after, err := mr.Get("user_data:" + profileID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
