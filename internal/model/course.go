package model

import (
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lecture 章节下的单个课时
type Lecture struct {
	LectureID       string `bson:"lectureId" json:"lectureId"`
	LectureTitle    string `bson:"lectureTitle" json:"lectureTitle"`
	LectureDuration int    `bson:"lectureDuration" json:"lectureDuration"` // 分钟
	LectureURL      string `bson:"lectureUrl" json:"lectureUrl"`
	IsPreviewFree   bool   `bson:"isPreviewFree" json:"isPreviewFree"`
	LectureOrder    int    `bson:"lectureOrder" json:"lectureOrder"`
}

// Lectures 有序课时列表
type Lectures []Lecture

func (l Lectures) At(i int) (Lecture, bool) {
	if i < 0 || i >= len(l) {
		return Lecture{}, false
	}
	return l[i], true
}

func (l Lectures) TotalDuration() int {
	total := 0
	for _, lec := range l {
		total += lec.LectureDuration
	}
	return total
}

// Chapter 课程章节
type Chapter struct {
	ChapterID      string   `bson:"chapterId" json:"chapterId"`
	ChapterOrder   int      `bson:"chapterOrder" json:"chapterOrder"`
	ChapterTitle   string   `bson:"chapterTitle" json:"chapterTitle"`
	ChapterContent Lectures `bson:"chapterContent" json:"chapterContent"`
}

// Chapters 有序章节列表
type Chapters []Chapter

func (c Chapters) At(i int) (Chapter, bool) {
	if i < 0 || i >= len(c) {
		return Chapter{}, false
	}
	return c[i], true
}

func (c Chapters) TotalLectures() int {
	total := 0
	for _, ch := range c {
		total += len(ch.ChapterContent)
	}
	return total
}

func (c Chapters) TotalDuration() int {
	total := 0
	for _, ch := range c {
		total += ch.ChapterContent.TotalDuration()
	}
	return total
}

// LectureIDs 返回所有课时ID的集合
func (c Chapters) LectureIDs() map[string]struct{} {
	ids := make(map[string]struct{}, c.TotalLectures())
	for _, ch := range c {
		for _, lec := range ch.ChapterContent {
			ids[lec.LectureID] = struct{}{}
		}
	}
	return ids
}

func (c Chapters) HasLecture(lectureID string) bool {
	for _, ch := range c {
		for _, lec := range ch.ChapterContent {
			if lec.LectureID == lectureID {
				return true
			}
		}
	}
	return false
}

// Rating 用户评分，每个用户至多一条
type Rating struct {
	UserID UserID `bson:"userId" json:"userId"`
	Rating int    `bson:"rating" json:"rating"`
}

type Course struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CourseTitle       string             `bson:"courseTitle" json:"courseTitle"`
	CourseDescription string             `bson:"courseDescription" json:"courseDescription"`
	CoursePrice       float64            `bson:"coursePrice" json:"coursePrice"`
	Discount          int                `bson:"discount" json:"discount"`
	CourseThumbnail   string             `bson:"courseThumbnail" json:"courseThumbnail"`
	IsPublished       bool               `bson:"isPublished" json:"isPublished"`
	Educator          UserID             `bson:"educator" json:"educator"`
	CourseContent     Chapters           `bson:"courseContent" json:"courseContent"`
	EnrolledStudents  []UserID           `bson:"enrolledStudents" json:"enrolledStudents"`
	CourseRatings     []Rating           `bson:"courseRatings" json:"courseRatings"`
	Timestamps        `bson:",inline"`
}

func (c *Course) OwnerID() UserID {
	return c.Educator
}

// EffectivePrice 折后价，保留两位小数
func (c *Course) EffectivePrice() float64 {
	price := c.CoursePrice * (1 - float64(c.Discount)/100)
	return math.Round(price*100) / 100
}

// SetRating 同一用户重复评分时覆盖旧值
func (c *Course) SetRating(userID UserID, rating int) {
	for i := range c.CourseRatings {
		if c.CourseRatings[i].UserID == userID {
			c.CourseRatings[i].Rating = rating
			return
		}
	}
	c.CourseRatings = append(c.CourseRatings, Rating{UserID: userID, Rating: rating})
}

func (c *Course) AverageRating() float64 {
	if len(c.CourseRatings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range c.CourseRatings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(c.CourseRatings))
}

func (c *Course) HasStudent(userID UserID) bool {
	for _, s := range c.EnrolledStudents {
		if s == userID {
			return true
		}
	}
	return false
}

// PublicView 未购买用户看到的课程：非试看课时不返回视频地址
func (c Course) PublicView() Course {
	chapters := make(Chapters, len(c.CourseContent))
	for i, ch := range c.CourseContent {
		lectures := make(Lectures, len(ch.ChapterContent))
		for j, lec := range ch.ChapterContent {
			if !lec.IsPreviewFree {
				lec.LectureURL = ""
			}
			lectures[j] = lec
		}
		ch.ChapterContent = lectures
		chapters[i] = ch
	}
	c.CourseContent = chapters
	c.EnrolledStudents = nil
	return c
}

// CourseFilter 课程列表查询条件
type CourseFilter struct {
	Educator      UserID
	Keyword       string
	PublishedOnly bool
}

// CoursePatch 课程部分更新，nil 字段保持不变
type CoursePatch struct {
	CourseTitle       *string   `json:"courseTitle"`
	CourseDescription *string   `json:"courseDescription"`
	CoursePrice       *float64  `json:"coursePrice"`
	Discount          *int      `json:"discount"`
	IsPublished       *bool     `json:"isPublished"`
	CourseContent     *Chapters `json:"courseContent"`
}

func (p CoursePatch) Apply(c *Course) {
	if p.CourseTitle != nil {
		c.CourseTitle = *p.CourseTitle
	}
	if p.CourseDescription != nil {
		c.CourseDescription = *p.CourseDescription
	}
	if p.CoursePrice != nil {
		c.CoursePrice = *p.CoursePrice
	}
	if p.Discount != nil {
		c.Discount = *p.Discount
	}
	if p.IsPublished != nil {
		c.IsPublished = *p.IsPublished
	}
	if p.CourseContent != nil {
		c.CourseContent = *p.CourseContent
	}
}
