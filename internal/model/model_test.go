package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChapters() Chapters {
	return Chapters{
		{ChapterID: "c1", ChapterContent: Lectures{
			{LectureID: "a", LectureDuration: 10, LectureURL: "u-a", IsPreviewFree: true},
			{LectureID: "b", LectureDuration: 25, LectureURL: "u-b"},
		}},
		{ChapterID: "c2", ChapterContent: Lectures{}},
		{ChapterID: "c3", ChapterContent: Lectures{{LectureID: "c", LectureDuration: 5, LectureURL: "u-c"}}},
	}
}

func TestChaptersTotals(t *testing.T) {
	c := testChapters()
	assert.Equal(t, 3, c.TotalLectures())
	assert.Equal(t, 40, c.TotalDuration())
	assert.True(t, c.HasLecture("c"))
	assert.False(t, c.HasLecture("z"))
	assert.Len(t, c.LectureIDs(), 3)

	_, ok := c.At(3)
	assert.False(t, ok)
	_, ok = c[0].ChapterContent.At(-1)
	assert.False(t, ok)
}

func TestCompletedIn(t *testing.T) {
	var nilProgress *CourseProgress
	assert.Zero(t, nilProgress.CompletedIn(testChapters()))

	p := &CourseProgress{LectureCompleted: []string{"a", "a", "gone", "c"}}
	assert.Equal(t, 2, p.CompletedIn(testChapters()))
}

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		price    float64
		discount int
		want     float64
	}{
		{100, 0, 100},
		{100, 20, 80},
		{49.99, 15, 42.49},
		{10, 100, 0},
	}
	for _, tt := range tests {
		c := &Course{CoursePrice: tt.price, Discount: tt.discount}
		assert.Equal(t, tt.want, c.EffectivePrice(), "price=%v discount=%d", tt.price, tt.discount)
	}
}

func TestSetRating(t *testing.T) {
	c := &Course{}
	c.SetRating("u1", 5)
	c.SetRating("u2", 3)
	c.SetRating("u1", 1)
	require.Len(t, c.CourseRatings, 2)
	assert.Equal(t, 1, c.CourseRatings[0].Rating)
	assert.Equal(t, 2.0, c.AverageRating())
	assert.Zero(t, (&Course{}).AverageRating())
}

func TestPublicView(t *testing.T) {
	c := Course{CourseContent: testChapters(), EnrolledStudents: []UserID{"u1"}}
	view := c.PublicView()

	assert.Equal(t, "u-a", view.CourseContent[0].ChapterContent[0].LectureURL)
	assert.Empty(t, view.CourseContent[0].ChapterContent[1].LectureURL)
	assert.Nil(t, view.EnrolledStudents)
	assert.Equal(t, "u-b", c.CourseContent[0].ChapterContent[1].LectureURL, "original is not modified")
}

func TestParseJobType(t *testing.T) {
	tests := map[string]JobType{
		"FULL_TIME":  FullTime,
		"Full Time":  FullTime,
		"fulltime":   FullTime,
		"part-time":  PartTime,
		"Contract":   Contract,
		"internship": Intern,
		" remote ":   Remote,
	}
	for in, want := range tests {
		got, ok := ParseJobType(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseJobType("freelance")
	assert.False(t, ok)
}

func TestStringListUnmarshal(t *testing.T) {
	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`"Go, SQL ,, Docker"`), &l))
	assert.Equal(t, StringList{"Go", "SQL", "Docker"}, l)

	require.NoError(t, json.Unmarshal([]byte(`[" Go ", ""]`), &l))
	assert.Equal(t, StringList{"Go"}, l)

	require.NoError(t, json.Unmarshal([]byte(`""`), &l))
	assert.Empty(t, l)

	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}
