package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cigale/internal/entities"
)

func mustObject(t *testing.T, body string) Object {
	t.Helper()
	obj, err := ParseObject([]byte(body))
	require.NoError(t, err)
	return obj
}

func issuePaths(t *testing.T, err error) []string {
	t.Helper()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "expected a validation error, got %v", err)
	paths := make([]string, 0, len(vErr.Issues))
	for _, issue := range vErr.Issues {
		paths = append(paths, issue.Path)
	}
	return paths
}

func TestParseObject(t *testing.T) {
	for _, body := range []string{"", "   ", "{", "[1,2]", "null", `"text"`} {
		_, err := ParseObject([]byte(body))
		assert.Equal(t, []string{""}, issuePaths(t, err), "body %q", body)
	}
}

func TestValidateCreate(t *testing.T) {
	t.Run("valid input with defaults", func(t *testing.T) {
		input, err := ValidateCreate(mustObject(t, `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":4,"phone":"0601020304"}`))
		require.NoError(t, err)
		assert.Equal(t, entities.ReservationInput{
			Name:      "Dupont",
			Date:      "2026-01-16",
			Time:      "19:30",
			PartySize: 4,
			Phone:     "0601020304",
			Status:    entities.StatusUpcoming,
		}, input)
	})

	t.Run("legacy status spelling", func(t *testing.T) {
		input, err := ValidateCreate(mustObject(t, `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":4,"status":"ARRIVE"}`))
		require.NoError(t, err)
		assert.Equal(t, entities.StatusArrived, input.Status)
	})

	cases := []struct {
		name string
		body string
		want []string
	}{
		{"empty name", `{"name":"","date":"2026-01-16","time":"19:30","partySize":4}`, []string{"name"}},
		{"name too long", `{"name":"` + longName() + `","date":"2026-01-16","time":"19:30","partySize":4}`, []string{"name"}},
		{"party size zero", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":0}`, []string{"partySize"}},
		{"party size too large", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":51}`, []string{"partySize"}},
		{"party size fraction", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":2.5}`, []string{"partySize"}},
		{"party size as string", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":"4"}`, []string{"partySize"}},
		{"day first date", `{"name":"Dupont","date":"16-01-2026","time":"19:30","partySize":4}`, []string{"date"}},
		{"impossible date", `{"name":"Dupont","date":"2026-02-30","time":"19:30","partySize":4}`, []string{"date"}},
		{"unknown status", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":4,"status":"GONE"}`, []string{"status"}},
		{"everything missing", `{}`, []string{"name", "date", "time", "partySize"}},
		{"wrong types", `{"name":12,"date":"2026-01-16","time":"19:30","partySize":4,"phone":601020304}`, []string{"name", "phone"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCreate(mustObject(t, tc.body))
			assert.Equal(t, tc.want, issuePaths(t, err))
		})
	}
}

func TestValidateCreateMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Issue
	}{
		{"missing party size", `{"name":"Dupont","date":"2026-01-16","time":"19:30"}`, Issue{Path: "partySize", Message: "le nombre de personnes est obligatoire"}},
		{"fraction", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":0.5}`, Issue{Path: "partySize", Message: "le nombre de personnes doit être un entier"}},
		{"below minimum", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":0}`, Issue{Path: "partySize", Message: "le nombre de personnes doit être au moins 1"}},
		{"above maximum", `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":51}`, Issue{Path: "partySize", Message: "nombre de personnes trop élevé (50 maximum)"}},
		{"name counted in characters", `{"name":"` + longName() + `","date":"2026-01-16","time":"19:30","partySize":4}`, Issue{Path: "name", Message: "le nom est trop long (100 caractères maximum)"}},
		{"impossible date", `{"name":"Dupont","date":"2026-02-30","time":"19:30","partySize":4}`, Issue{Path: "date", Message: "date inexistante"}},
		{"bad date format", `{"name":"Dupont","date":"16/01/2026","time":"19:30","partySize":4}`, Issue{Path: "date", Message: "format de date invalide (YYYY-MM-DD attendu)"}},
		{"name of wrong type", `{"name":true,"date":"2026-01-16","time":"19:30","partySize":4}`, Issue{Path: "name", Message: "doit être une chaîne de caractères"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateCreate(mustObject(t, tc.body))
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, []Issue{tc.want}, vErr.Issues)
		})
	}

	t.Run("name of exactly the maximum length", func(t *testing.T) {
		name := []rune(longName())[:MaxNameLength]
		input, err := ValidateCreate(mustObject(t, `{"name":"`+string(name)+`","date":"2026-01-16","time":"19:30","partySize":50}`))
		require.NoError(t, err)
		assert.Equal(t, MaxPartySize, input.PartySize)
	})
}

func longName() string {
	name := make([]rune, MaxNameLength+1)
	for i := range name {
		name[i] = 'é'
	}
	return string(name)
}

func TestValidateUpdate(t *testing.T) {
	t.Run("only present fields", func(t *testing.T) {
		patch, err := ValidateUpdate(mustObject(t, `{"partySize":6,"isArrived":true}`))
		require.NoError(t, err)
		require.NotNil(t, patch.PartySize)
		assert.Equal(t, 6, *patch.PartySize)
		assert.Nil(t, patch.Name)
		assert.Nil(t, patch.Status)
	})

	t.Run("empty object is a no-op patch", func(t *testing.T) {
		patch, err := ValidateUpdate(mustObject(t, `{}`))
		require.NoError(t, err)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("clearing notes", func(t *testing.T) {
		patch, err := ValidateUpdate(mustObject(t, `{"notes":""}`))
		require.NoError(t, err)
		require.NotNil(t, patch.Notes)
		assert.Equal(t, "", *patch.Notes)
	})

	t.Run("status is normalised", func(t *testing.T) {
		patch, err := ValidateUpdate(mustObject(t, `{"status":" arrive "}`))
		require.NoError(t, err)
		require.NotNil(t, patch.Status)
		assert.Equal(t, entities.StatusArrived, *patch.Status)

		_, err = ValidateUpdate(mustObject(t, `{"status":""}`))
		assert.Equal(t, []string{"status"}, issuePaths(t, err))
	})

	t.Run("present fields obey create rules", func(t *testing.T) {
		_, err := ValidateUpdate(mustObject(t, `{"name":"","partySize":51,"date":"16/01/2026"}`))
		assert.Equal(t, []string{"name", "date", "partySize"}, issuePaths(t, err))
	})
}

func TestValidateStatus(t *testing.T) {
	arrived, err := ValidateStatus(mustObject(t, `{"isArrived":true}`))
	require.NoError(t, err)
	assert.True(t, arrived)

	_, err = ValidateStatus(mustObject(t, `{}`))
	assert.Equal(t, []string{"isArrived"}, issuePaths(t, err))

	_, err = ValidateStatus(mustObject(t, `{"isArrived":"yes"}`))
	assert.Equal(t, []string{"isArrived"}, issuePaths(t, err))

	_, err = ValidateStatus(mustObject(t, `{"isArrived":null}`))
	assert.Equal(t, []string{"isArrived"}, issuePaths(t, err))
}

func TestObjectOnlyKey(t *testing.T) {
	assert.True(t, mustObject(t, `{"isArrived":false}`).OnlyKey("isArrived"))
	assert.False(t, mustObject(t, `{"isArrived":false,"notes":"x"}`).OnlyKey("isArrived"))
}
