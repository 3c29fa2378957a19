// Package testutil 内存版存储与外部协作方，供服务层与控制器测试使用
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID(nil), ids...)
}

// UserStore 查找不到时返回 nil, nil，与 Mongo 实现一致
type UserStore struct {
	mu    sync.Mutex
	Users map[model.UserID]*model.User
}

func NewUserStore(users ...*model.User) *UserStore {
	s := &UserStore{Users: map[model.UserID]*model.User{}}
	for _, u := range users {
		s.Users[u.ID] = u
	}
	return s
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.EnrolledCourses = cloneIDs(u.EnrolledCourses)
	c.SavedJobs = cloneIDs(u.SavedJobs)
	return &c
}

func (s *UserStore) FindByID(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (s *UserStore) FindByIDs(ctx context.Context, ids []model.UserID) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.User{}
	for _, id := range ids {
		if u, ok := s.Users[id]; ok {
			out = append(out, *copyUser(u))
		}
	}
	return out, nil
}

func (s *UserStore) Upsert(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.Users[user.ID]; ok {
		u.Name, u.Email, u.ImageURL = user.Name, user.Email, user.ImageURL
		return nil
	}
	s.Users[user.ID] = &model.User{ID: user.ID, Name: user.Name, Email: user.Email, ImageURL: user.ImageURL}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, id model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Users, id)
	return nil
}

func (s *UserStore) AddEnrolledCourse(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[userID]
	if !ok || u.IsEnrolled(courseID) {
		return nil
	}
	u.EnrolledCourses = append(u.EnrolledCourses, courseID)
	return nil
}

func (s *UserStore) ToggleSavedJob(ctx context.Context, userID model.UserID, jobID primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[userID]
	if !ok {
		return false, nil
	}
	for i, id := range u.SavedJobs {
		if id == jobID {
			u.SavedJobs = append(u.SavedJobs[:i], u.SavedJobs[i+1:]...)
			return false, nil
		}
	}
	u.SavedJobs = append(u.SavedJobs, jobID)
	return true, nil
}

func (s *UserStore) RemoveSavedJob(ctx context.Context, jobID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.Users {
		kept := u.SavedJobs[:0]
		for _, id := range u.SavedJobs {
			if id != jobID {
				kept = append(kept, id)
			}
		}
		u.SavedJobs = kept
	}
	return nil
}

func (s *UserStore) SetResume(ctx context.Context, userID model.UserID, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.Users[userID]
	if !ok {
		return "", nil
	}
	prev := u.Resume
	u.Resume = url
	return prev, nil
}

type CourseStore struct {
	mu      sync.Mutex
	Courses map[primitive.ObjectID]*model.Course
}

func NewCourseStore(courses ...*model.Course) *CourseStore {
	s := &CourseStore{Courses: map[primitive.ObjectID]*model.Course{}}
	for _, c := range courses {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		s.Courses[c.ID] = c
	}
	return s
}

func copyCourse(c *model.Course) *model.Course {
	out := *c
	out.CourseContent = make(model.Chapters, len(c.CourseContent))
	for i, ch := range c.CourseContent {
		ch.ChapterContent = append(model.Lectures(nil), ch.ChapterContent...)
		out.CourseContent[i] = ch
	}
	out.EnrolledStudents = append([]model.UserID(nil), c.EnrolledStudents...)
	out.CourseRatings = append([]model.Rating(nil), c.CourseRatings...)
	return &out
}

func (s *CourseStore) Create(ctx context.Context, course *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if course.ID.IsZero() {
		course.ID = primitive.NewObjectID()
	}
	course.Touch(time.Now())
	s.Courses[course.ID] = copyCourse(course)
	return nil
}

func (s *CourseStore) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Courses[id]
	if !ok {
		return nil, nil
	}
	return copyCourse(c), nil
}

func (s *CourseStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Course{}
	for _, id := range ids {
		if c, ok := s.Courses[id]; ok {
			out = append(out, *copyCourse(c))
		}
	}
	return out, nil
}

func (s *CourseStore) List(ctx context.Context, f model.CourseFilter) ([]model.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Course{}
	for _, c := range s.Courses {
		if f.Educator != "" && c.Educator != f.Educator {
			continue
		}
		if f.PublishedOnly && !c.IsPublished {
			continue
		}
		if f.Keyword != "" && !containsFold(c.CourseTitle, f.Keyword) && !containsFold(c.CourseDescription, f.Keyword) {
			continue
		}
		out = append(out, *copyCourse(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *CourseStore) Update(ctx context.Context, course *model.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.Courses[course.ID]
	if !ok {
		return nil
	}
	updated := copyCourse(course)
	// 选课与评分只通过原子操作修改
	updated.EnrolledStudents = existing.EnrolledStudents
	updated.CourseRatings = existing.CourseRatings
	updated.UpdatedAt = time.Now()
	s.Courses[course.ID] = updated
	return nil
}

func (s *CourseStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Courses, id)
	return nil
}

func (s *CourseStore) AddEnrolledStudent(ctx context.Context, courseID primitive.ObjectID, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Courses[courseID]
	if !ok || c.HasStudent(userID) {
		return nil
	}
	c.EnrolledStudents = append(c.EnrolledStudents, userID)
	return nil
}

func (s *CourseStore) UpsertRating(ctx context.Context, courseID primitive.ObjectID, userID model.UserID, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.Courses[courseID]; ok {
		c.SetRating(userID, rating)
	}
	return nil
}

type progressKey struct {
	user   model.UserID
	course primitive.ObjectID
}

type ProgressStore struct {
	mu      sync.Mutex
	records map[progressKey]*model.CourseProgress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: map[progressKey]*model.CourseProgress{}}
}

func (s *ProgressStore) Find(ctx context.Context, userID model.UserID, courseID primitive.ObjectID) (*model.CourseProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[progressKey{userID, courseID}]
	if !ok {
		return nil, nil
	}
	c := *p
	c.LectureCompleted = append([]string(nil), p.LectureCompleted...)
	return &c, nil
}

func (s *ProgressStore) AddLecture(ctx context.Context, userID model.UserID, courseID primitive.ObjectID, lectureID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := progressKey{userID, courseID}
	p, ok := s.records[key]
	if !ok {
		p = &model.CourseProgress{ID: primitive.NewObjectID(), UserID: userID, CourseID: courseID}
		p.Touch(time.Now())
		s.records[key] = p
	}
	if p.HasLecture(lectureID) {
		return false, nil
	}
	p.LectureCompleted = append(p.LectureCompleted, lectureID)
	return true, nil
}

type JobStore struct {
	mu   sync.Mutex
	Jobs map[primitive.ObjectID]*model.Job
}

func NewJobStore(jobs ...*model.Job) *JobStore {
	s := &JobStore{Jobs: map[primitive.ObjectID]*model.Job{}}
	for _, j := range jobs {
		if j.ID.IsZero() {
			j.ID = primitive.NewObjectID()
		}
		s.Jobs[j.ID] = j
	}
	return s
}

func copyJob(j *model.Job) *model.Job {
	c := *j
	c.Requirements = append(model.StringList(nil), j.Requirements...)
	c.Applications = cloneIDs(j.Applications)
	return &c
}

func (s *JobStore) Create(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID.IsZero() {
		job.ID = primitive.NewObjectID()
	}
	job.Touch(time.Now())
	s.Jobs[job.ID] = copyJob(job)
	return nil
}

func (s *JobStore) InsertFromFeed(ctx context.Context, job *model.Job) (bool, error) {
	s.mu.Lock()
	for _, j := range s.Jobs {
		if j.ExternalID != "" && j.ExternalID == job.ExternalID {
			s.mu.Unlock()
			return false, nil
		}
	}
	s.mu.Unlock()
	return true, s.Create(ctx, job)
}

func (s *JobStore) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.Jobs[id]
	if !ok {
		return nil, nil
	}
	return copyJob(j), nil
}

func (s *JobStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Job{}
	for _, id := range ids {
		if j, ok := s.Jobs[id]; ok {
			out = append(out, *copyJob(j))
		}
	}
	return out, nil
}

func (s *JobStore) List(ctx context.Context, f model.JobFilter) ([]model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Job{}
	for _, j := range s.Jobs {
		if f.CreatedBy != "" && j.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Keyword != "" && !containsFold(j.Title, f.Keyword) && !containsFold(j.Description, f.Keyword) {
			continue
		}
		out = append(out, *copyJob(j))
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out, nil
}

func (s *JobStore) Update(ctx context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.Jobs[job.ID]
	if !ok {
		return nil
	}
	updated := copyJob(job)
	updated.Applications = existing.Applications
	updated.UpdatedAt = time.Now()
	s.Jobs[job.ID] = updated
	return nil
}

func (s *JobStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Jobs, id)
	return nil
}

func (s *JobStore) AddApplication(ctx context.Context, jobID, applicationID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.Jobs[jobID]; ok && !model.ContainsObjectID(j.Applications, applicationID) {
		j.Applications = append(j.Applications, applicationID)
	}
	return nil
}

// ApplicationStore 模拟 (job, applicant) 唯一索引
type ApplicationStore struct {
	mu   sync.Mutex
	Apps map[primitive.ObjectID]*model.Application
}

func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{Apps: map[primitive.ObjectID]*model.Application{}}
}

func (s *ApplicationStore) Create(ctx context.Context, app *model.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Apps {
		if a.Job == app.Job && a.Applicant == app.Applicant {
			return util.ConflictErr("You have already applied for this job")
		}
	}
	if app.ID.IsZero() {
		app.ID = primitive.NewObjectID()
	}
	app.Touch(time.Now())
	c := *app
	s.Apps[app.ID] = &c
	return nil
}

func (s *ApplicationStore) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Apps[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (s *ApplicationStore) filter(keep func(*model.Application) bool) []model.Application {
	out := []model.Application{}
	for _, a := range s.Apps {
		if keep(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *ApplicationStore) FindByApplicant(ctx context.Context, userID model.UserID) ([]model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(a *model.Application) bool { return a.Applicant == userID }), nil
}

func (s *ApplicationStore) FindByJobs(ctx context.Context, jobIDs []primitive.ObjectID) ([]model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter(func(a *model.Application) bool { return model.ContainsObjectID(jobIDs, a.Job) }), nil
}

func (s *ApplicationStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status model.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.Apps[id]; ok {
		a.Status = status
	}
	return nil
}

func (s *ApplicationStore) DeleteByJob(ctx context.Context, jobID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.Apps {
		if a.Job == jobID {
			delete(s.Apps, id)
		}
	}
	return nil
}
