package directory

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reunion/internal/apperr"
	"reunion/internal/models"
)

// memorySource is a Source over a fixed slice that counts scans.
type memorySource struct {
	profiles []models.Profile
	scans    int
	err      error
}

func (m *memorySource) List(ctx context.Context) ([]models.Profile, error) {
	m.scans++
	return m.profiles, m.err
}

func (m *memorySource) SearchByName(ctx context.Context, fragment string) ([]models.Profile, error) {
	m.scans++
	if m.err != nil {
		return nil, m.err
	}
	needle := strings.ToLower(fragment)
	var out []models.Profile
	for _, p := range m.profiles {
		if strings.Contains(strings.ToLower(p.FirstName), needle) ||
			strings.Contains(strings.ToLower(p.LastName), needle) ||
			strings.Contains(strings.ToLower(p.PenName), needle) {
			out = append(out, p)
		}
	}
	return out, nil
}

func profile(username, first, last, pen string, edu map[string]string) models.Profile {
	details := models.EduDetails{}
	for k, v := range edu {
		details[k] = json.RawMessage(v)
	}
	return models.Profile{Username: username, FirstName: first, LastName: last, PenName: pen, EduDetails: details}
}

func directoryFixture() *memorySource {
	return &memorySource{profiles: []models.Profile{
		profile("john1", "John", "Carter", "jc", map[string]string{
			"undergraduate": `{"university": "MIT", "department": "CS", "year": "2018-2022"}`,
			"school":        `{"Springfield High": 2014, "Shelbyville Prep": 2012}`,
		}),
		profile("john2", "John", "Doe", "jd", map[string]string{
			"undergraduate": `{"university": "MIT", "department": "Physics", "year": "2017 - 2021"}`,
		}),
		profile("maria", "Maria", "Lopez", "ml", map[string]string{
			"other": `"Night School of Arts"`,
		}),
	}}
}

func TestSearchExactName(t *testing.T) {
	src := directoryFixture()
	s := NewSearcher(src, 0)

	res, err := s.Search(context.Background(), Query{Name: "JOHN"})
	require.NoError(t, err)
	assert.False(t, res.Structured)
	require.Len(t, res.Basic, 2)
	assert.Equal(t, Basic{Username: "john1", FirstName: "John", LastName: "Carter", PenName: "jc"}, res.Basic[0])

	res, err = s.Search(context.Background(), Query{Name: "jon"})
	require.NoError(t, err)
	assert.Empty(t, res.Basic)
}

func TestSearchFuzzyName(t *testing.T) {
	s := NewSearcher(directoryFixture(), DefaultFuzzyThreshold)

	res, err := s.Search(context.Background(), Query{Name: "jon", Fuzzy: true})
	require.NoError(t, err)
	assert.Len(t, res.Basic, 2)

	res, err = s.Search(context.Background(), Query{Name: "xyz", Fuzzy: true})
	require.NoError(t, err)
	assert.Empty(t, res.Basic)
}

func TestSearchStructuredDegree(t *testing.T) {
	start, end := 2018, 2022
	s := NewSearcher(directoryFixture(), 0)

	res, err := s.Search(context.Background(), Query{
		Name: "john", EduType: "undergraduate", Education: "MIT",
		Department: "CS", BatchStart: &start, BatchEnd: &end,
	})
	require.NoError(t, err)
	require.True(t, res.Structured)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, "john1", m.Username)
	assert.Equal(t, "MIT", m.Edu.Education)
	assert.Equal(t, "CS", *m.Edu.Department)
	assert.Equal(t, "2018-2022", m.Edu.Year)
	assert.Equal(t, "2018", *m.Edu.StartYear)
	assert.Equal(t, "2022", *m.Edu.EndYear)
}

func TestSearchStructuredBatchTrimsYear(t *testing.T) {
	start := 2017
	s := NewSearcher(directoryFixture(), 0)

	res, err := s.Search(context.Background(), Query{Name: "john", EduType: "undergraduate", Education: "phys", BatchStart: &start})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "john2", res.Matches[0].Username)
	// matched through the department, so that is what is reported
	assert.Equal(t, "Physics", res.Matches[0].Edu.Education)

	wrong := 2016
	res, err = s.Search(context.Background(), Query{Name: "john", EduType: "undergraduate", Education: "mit", BatchStart: &wrong})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

func TestSearchStructuredSchool(t *testing.T) {
	s := NewSearcher(directoryFixture(), 0)

	res, err := s.Search(context.Background(), Query{Name: "john", EduType: "school", Education: "s"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	// first entry in document order wins
	assert.Equal(t, "Springfield High", res.Matches[0].Edu.Education)
	assert.Equal(t, float64(2014), res.Matches[0].Edu.Year)
	assert.Nil(t, res.Matches[0].Edu.Department)
}

func TestSearchStructuredPlainString(t *testing.T) {
	s := NewSearcher(directoryFixture(), 0)

	res, err := s.Search(context.Background(), Query{Name: "maria", EduType: "other", Education: "night"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "Night School of Arts", res.Matches[0].Edu.Education)
	assert.Nil(t, res.Matches[0].Edu.Year)

	raw, err := json.Marshal(res.Items())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"maria","firstname":"Maria","lastname":"Lopez","penname":"ml",
		"edu":{"edu_type":"other","education":"Night School of Arts","year":null}}]`, string(raw))
}

func TestSearchDegreeWithoutRangeKeepsYearKeys(t *testing.T) {
	src := &memorySource{profiles: []models.Profile{
		profile("ann", "Ann", "Lee", "al", map[string]string{
			"postgraduate": `{"university": "MIT", "department": "CS", "year": "2018"}`,
		}),
	}}
	start := 2016

	res, err := NewSearcher(src, 0).Search(context.Background(), Query{Name: "ann", EduType: "postgraduate", Education: "mit", BatchStart: &start})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	raw, err := json.Marshal(res.Items())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"username":"ann","firstname":"Ann","lastname":"Lee","penname":"al",
		"edu":{"edu_type":"postgraduate","education":"MIT","department":"CS","year":"2018",
		"start_year":null,"end_year":null}}]`, string(raw))
}

func TestSearchMissingNameDoesNotScan(t *testing.T) {
	src := directoryFixture()
	s := NewSearcher(src, 0)

	_, err := s.Search(context.Background(), Query{EduType: "school", Education: "x"})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Zero(t, src.scans)
}

func TestSearchSourceError(t *testing.T) {
	src := &memorySource{err: errors.New("db down")}
	_, err := NewSearcher(src, 0).Search(context.Background(), Query{Name: "x"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrValidation)
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{
		"name": {"jon"}, "edu_type": {"undergraduate"}, "education": {"MIT"},
		"batch_start": {"2018"}, "batch_end": {""}, "fuzzy": {"TRUE"},
	})
	require.NoError(t, err)
	assert.True(t, q.Fuzzy)
	assert.True(t, q.Structured())
	require.NotNil(t, q.BatchStart)
	assert.Equal(t, 2018, *q.BatchStart)
	assert.Nil(t, q.BatchEnd)

	_, err = ParseQuery(url.Values{})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = ParseQuery(url.Values{"name": {"x"}, "batch_end": {"20x2"}})
	assert.ErrorIs(t, err, ErrInvalidBatchYear)
}

func TestParseQueryFailureKeepsParsedFields(t *testing.T) {
	q, err := ParseQuery(url.Values{"fuzzy": {"true"}, "edu_type": {"school"}})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.True(t, q.Fuzzy)
	assert.Equal(t, "school", q.EduType)

	q, err = ParseQuery(url.Values{"name": {"x"}, "fuzzy": {"true"}, "batch_start": {"twenty"}})
	assert.ErrorIs(t, err, ErrInvalidBatchYear)
	assert.True(t, q.Fuzzy)
}

func TestWhitespaceNameIsRejected(t *testing.T) {
	src := directoryFixture()

	_, err := ParseQuery(url.Values{"name": {"  \t "}})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = NewSearcher(src, 0).Search(context.Background(), Query{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, src.scans)
}

func TestBatchBoundZeroIsApplied(t *testing.T) {
	zero := 0
	s := NewSearcher(directoryFixture(), 0)

	res, err := s.Search(context.Background(), Query{Name: "john", EduType: "undergraduate", Education: "mit", BatchStart: &zero})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)

	res, err = s.Search(context.Background(), Query{Name: "john", EduType: "undergraduate", Education: "mit", BatchEnd: &zero})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)

	q, err := ParseQuery(url.Values{"name": {"john"}, "batch_start": {"0"}})
	require.NoError(t, err)
	require.NotNil(t, q.BatchStart)
	assert.Equal(t, 0, *q.BatchStart)
}

func TestSplitYearRange(t *testing.T) {
	s, e := splitYearRange(" 2018 - 2022 ")
	assert.Equal(t, "2018", *s)
	assert.Equal(t, "2022", *e)

	s, e = splitYearRange("2018")
	assert.Nil(t, s)
	assert.Nil(t, e)

	s, e = splitYearRange("")
	assert.Nil(t, s)
	assert.Nil(t, e)
}
