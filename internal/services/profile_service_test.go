package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reunion/internal/apperr"
	"reunion/internal/models"
	"reunion/internal/storage"
	"reunion/internal/storage/storagetest"
)

func TestProfileLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(storage.NewGormProfileRepository(storagetest.NewDB(t)))

	in := ProfileInput{
		FirstName: "John", LastName: "Carter", PenName: "jc",
		EduDetails: json.RawMessage(`{"undergraduate": {"university": "MIT", "department": "CS", "year": "2018-2022"}}`),
	}
	p, err := svc.Create(ctx, "john", in)
	require.NoError(t, err)
	assert.Equal(t, "john", p.Username)
	assert.Equal(t, models.ProfileVisibilityPublic, p.Visibility)

	_, err = svc.Create(ctx, "john", in)
	assert.ErrorIs(t, err, ErrProfileExists)

	got, err := svc.Get(ctx, "john")
	require.NoError(t, err)
	assert.JSONEq(t, `{"university": "MIT", "department": "CS", "year": "2018-2022"}`, string(got.EduDetails["undergraduate"]))

	_, err = svc.Get(ctx, "jane")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	in.PenName = "johnny"
	in.Visibility = models.ProfileVisibilityPrivate
	in.EduDetails = nil
	updated, err := svc.UpdateMine(ctx, "john", in)
	require.NoError(t, err)
	assert.Equal(t, "johnny", updated.PenName)
	assert.Empty(t, updated.EduDetails)

	_, err = svc.UpdateMine(ctx, "jane", in)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProfileInputValidation(t *testing.T) {
	base := ProfileInput{FirstName: "a", LastName: "b", PenName: "c"}

	cases := map[string]func(in *ProfileInput){
		"missing penname":    func(in *ProfileInput) { in.PenName = "  " },
		"unknown visibility": func(in *ProfileInput) { in.Visibility = "friends" },
		"edu_details array":  func(in *ProfileInput) { in.EduDetails = json.RawMessage(`[1,2]`) },
		"edu_details string": func(in *ProfileInput) { in.EduDetails = json.RawMessage(`"MIT"`) },
		"firstname too long": func(in *ProfileInput) { in.FirstName = strings.Repeat("a", 101) },
		"lastname too long":  func(in *ProfileInput) { in.LastName = strings.Repeat("b", 101) },
		"penname too long":   func(in *ProfileInput) { in.PenName = strings.Repeat("p", 101) },
		"instagram too long": func(in *ProfileInput) { in.Instagram = strings.Repeat("i", 101) },
		"snapchat too long":  func(in *ProfileInput) { in.Snapchat = strings.Repeat("s", 101) },
		"phone too long":     func(in *ProfileInput) { in.Phone = strings.Repeat("9", 101) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			err := applyProfileInput(&models.Profile{}, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	require.NoError(t, applyProfileInput(&models.Profile{}, base))
}

func TestProfileInputLengthsCountTrimmedCharacters(t *testing.T) {
	in := ProfileInput{
		FirstName: "  " + strings.Repeat("é", 100) + "  ",
		LastName:  "b",
		PenName:   "c",
		Phone:     " " + strings.Repeat("9", 100) + " ",
	}

	p := &models.Profile{}
	require.NoError(t, applyProfileInput(p, in))
	assert.Equal(t, strings.Repeat("é", 100), p.FirstName)
	assert.Len(t, p.Phone, 100)
}
