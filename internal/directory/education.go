package directory

import (
	"bytes"
	"encoding/json"
	"strings"

	"reunion/internal/models"
)

// EducationMatch describes the education entry that satisfied a structured search.
// Degree matches always carry department, start_year and end_year (null when
// unknown); school and free-text matches have none of them.
type EducationMatch struct {
	EduType    string  `json:"edu_type"`
	Education  string  `json:"education"`
	Department *string `json:"department,omitempty"`
	Year       any     `json:"year"`
	StartYear  *string `json:"start_year,omitempty"`
	EndYear    *string `json:"end_year,omitempty"`

	degree bool
}

// MarshalJSON keeps the degree shape stable whatever the year format.
func (m EducationMatch) MarshalJSON() ([]byte, error) {
	if !m.degree {
		type plain EducationMatch
		return json.Marshal(plain(m))
	}
	return json.Marshal(struct {
		EduType    string  `json:"edu_type"`
		Education  string  `json:"education"`
		Department *string `json:"department"`
		Year       any     `json:"year"`
		StartYear  *string `json:"start_year"`
		EndYear    *string `json:"end_year"`
	}{m.EduType, m.Education, m.Department, m.Year, m.StartYear, m.EndYear})
}

type degreeInfo struct {
	University string
	Department string
	Year       string
}

// matchEducation applies the structured filter of q to one profile's details.
// It returns nil when the profile does not match.
func matchEducation(details models.EduDetails, q Query) *EducationMatch {
	raw, ok := details[q.EduType]
	if !ok {
		return nil
	}
	education := strings.ToLower(q.Education)

	switch {
	case q.EduType == models.EduTypeSchool && isObject(raw):
		return matchSchool(raw, q.EduType, education)
	case (q.EduType == models.EduTypeUndergraduate || q.EduType == models.EduTypePostgraduate) && isObject(raw):
		return matchDegree(raw, q, education)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	if !strings.Contains(strings.ToLower(text), education) {
		return nil
	}
	return &EducationMatch{EduType: q.EduType, Education: text, Year: nil}
}

// matchSchool returns the first school, in document order, whose name contains education.
func matchSchool(raw json.RawMessage, eduType, education string) *EducationMatch {
	entries, err := objectEntries(raw)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.key), education) {
			var year any
			_ = json.Unmarshal(e.value, &year)
			return &EducationMatch{EduType: eduType, Education: e.key, Year: year}
		}
	}
	return nil
}

func matchDegree(raw json.RawMessage, q Query, education string) *EducationMatch {
	info, err := decodeDegree(raw)
	if err != nil {
		return nil
	}
	uni, dept := strings.ToLower(info.University), strings.ToLower(info.Department)

	inUniversity := strings.Contains(uni, education)
	if !inUniversity && !strings.Contains(dept, education) {
		return nil
	}
	if q.Department != "" && !strings.Contains(dept, strings.ToLower(q.Department)) {
		return nil
	}

	start, end := splitYearRange(info.Year)
	if q.BatchStart != nil && start != nil && itoa(*q.BatchStart) != *start {
		return nil
	}
	if q.BatchEnd != nil && end != nil && itoa(*q.BatchEnd) != *end {
		return nil
	}

	match := &EducationMatch{
		EduType:    q.EduType,
		Education:  info.Department,
		Department: &info.Department,
		Year:       info.Year,
		StartYear:  start,
		EndYear:    end,
		degree:     true,
	}
	if inUniversity {
		match.Education = info.University
	}
	return match
}

// splitYearRange parses "2018-2022" into its trimmed halves. Anything that
// is not exactly two dash-separated parts yields nil bounds.
func splitYearRange(year string) (start, end *string) {
	if year == "" {
		return nil, nil
	}
	parts := strings.Split(year, "-")
	if len(parts) != 2 {
		return nil, nil
	}
	s, e := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	return &s, &e
}

// decodeDegree reads university, department and year, treating
// non-string values as empty.
func decodeDegree(raw json.RawMessage) (degreeInfo, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return degreeInfo{}, err
	}
	str := func(key string) string {
		s, _ := fields[key].(string)
		return s
	}
	return degreeInfo{University: str("university"), Department: str("department"), Year: str("year")}, nil
}

type objectEntry struct {
	key   string
	value json.RawMessage
}

// objectEntries decodes a JSON object keeping its key order.
func objectEntries(raw json.RawMessage) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // {
		return nil, err
	}
	var entries []objectEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, objectEntry{key: key, value: value})
	}
	return entries, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
