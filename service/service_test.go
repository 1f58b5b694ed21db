package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gym-console/api"
	"gym-console/fakeapi"
	"gym-console/gym"
	"gym-console/session"
)

type fixture struct {
	fake    *fakeapi.Server
	sess    *session.Session
	svc     *Services
	auth    *Auth
	dbPath  string
	storage *session.Database
}

func setup(t *testing.T) *fixture {
	t.Helper()
	fake := fakeapi.New().Start()
	t.Cleanup(fake.Close)

	path := filepath.Join(t.TempDir(), "console.db")
	db, err := session.NewDatabase(path)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sess := session.New(db)
	if err := sess.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	client := api.New(fake.BaseURL(), sess)
	svc := NewServices(client)
	return &fixture{
		fake:    fake,
		sess:    sess,
		svc:     svc,
		auth:    NewAuth(client, svc.Users, sess, zerolog.Nop()),
		dbPath:  path,
		storage: db,
	}
}

// loggedIn seeds an account and logs it in.
func loggedIn(t *testing.T) *fixture {
	t.Helper()
	f := setup(t)
	f.fake.Seed("users", gym.User{Name: "Admin", Phone: "13800000000", Status: gym.UserActive})
	f.fake.Account("13800000000", "secret1")
	if _, err := f.auth.Login(context.Background(), "13800000000", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	return f
}

func TestLoginStoresSession(t *testing.T) {
	f := loggedIn(t)
	if !f.sess.Authenticated() {
		t.Fatalf("no token after login")
	}
	u, ok := f.sess.User()
	if !ok || u.Name != "Admin" || u.UserNo == "" {
		t.Fatalf("user: %+v %v", u, ok)
	}
	reqs := f.fake.Requests()
	if len(reqs) != 1 || reqs[0].Path != "/login" || reqs[0].Authorization != "" {
		t.Fatalf("requests: %+v", reqs)
	}
}

func TestLoginRejectsBlankWithoutRequest(t *testing.T) {
	f := setup(t)
	if _, err := f.auth.Login(context.Background(), "  ", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err: %v", err)
	}
	if n := len(f.fake.Requests()); n != 0 {
		t.Fatalf("requests sent: %d", n)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	f := setup(t)
	f.fake.Seed("users", gym.User{Name: "A", Phone: "1"})
	f.fake.Account("1", "right-one")
	_, err := f.auth.Login(context.Background(), "1", "wrong-one")
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err: %v", err)
	}
	if f.sess.Authenticated() {
		t.Fatalf("session authenticated after failed login")
	}
}

func TestRestoreAfterRestart(t *testing.T) {
	f := loggedIn(t)
	if err := f.storage.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	db, err := session.NewDatabase(f.dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sess := session.New(db)
	if err := sess.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if _, ok := sess.User(); ok {
		t.Fatalf("user restored from disk")
	}

	client := api.New(f.fake.BaseURL(), sess)
	svc := NewServices(client)
	auth := NewAuth(client, svc.Users, sess, zerolog.Nop())
	u, err := auth.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if u.Phone != "13800000000" {
		t.Fatalf("restored user: %+v", u)
	}
}

func TestLogout(t *testing.T) {
	f := loggedIn(t)
	if err := f.auth.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := f.auth.Restore(context.Background()); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("restore after logout: %v", err)
	}
}

func TestRegister(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	if _, err := f.auth.Register(ctx, gym.RegisterInput{Name: "N", Phone: "2", Password: "123"}); err == nil {
		t.Fatalf("short password accepted")
	}
	u, err := f.auth.Register(ctx, gym.RegisterInput{Name: "N", Phone: "2", Password: "123456"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("no id assigned")
	}
	if f.sess.Authenticated() {
		t.Fatalf("register logged in")
	}
	if _, err := f.auth.Login(ctx, "2", "123456"); err != nil {
		t.Fatalf("login after register: %v", err)
	}
}

func TestListPagination(t *testing.T) {
	f := loggedIn(t)
	for i := 0; i < 12; i++ {
		f.fake.Seed("coaches", gym.Coach{Name: fmt.Sprintf("Coach %d", i), Phone: fmt.Sprint(i)})
	}
	ctx := context.Background()

	p, err := f.svc.Coaches.List(ctx, Query{Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if p.Total != 12 || len(p.Items) != 5 || p.Items[0].Name != "Coach 5" {
		t.Fatalf("page 2: total=%d items=%d", p.Total, len(p.Items))
	}
	p, err = f.svc.Coaches.List(ctx, Query{Page: 4, PageSize: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if p.Total != 12 || p.Items == nil || len(p.Items) != 0 {
		t.Fatalf("past the end: %+v", p)
	}
}

func TestListRejectsBadPage(t *testing.T) {
	f := loggedIn(t)
	f.fake.ResetRequests()
	_, err := f.svc.Users.List(context.Background(), Query{Page: 0, PageSize: 10})
	var ve *api.ValidationError
	if !errors.As(err, &ve) || ve.Field != "page" {
		t.Fatalf("err: %v", err)
	}
	if n := len(f.fake.Requests()); n != 0 {
		t.Fatalf("requests sent: %d", n)
	}
}

func TestCreateValidatesLocally(t *testing.T) {
	f := loggedIn(t)
	f.fake.ResetRequests()
	ctx := context.Background()
	start := gym.Date{Year: 2026, Month: time.March, Day: 1}

	_, err := f.svc.Cards.Create(ctx, gym.CardInput{CardTypeID: 1, StartDate: start, EndDate: start})
	var ve *api.ValidationError
	if !errors.As(err, &ve) || ve.Field != "user_id" {
		t.Fatalf("missing user: %v", err)
	}

	_, err = f.svc.Cards.Create(ctx, gym.CardInput{
		UserID:     1,
		CardTypeID: 1,
		StartDate:  start,
		EndDate:    gym.Date{Year: 2026, Month: time.February, Day: 1},
	})
	if !errors.As(err, &ve) || ve.Field != "end_date" {
		t.Fatalf("end before start: %v", err)
	}
	if n := len(f.fake.Requests()); n != 0 {
		t.Fatalf("requests sent: %d", n)
	}
}

func TestServerFieldError(t *testing.T) {
	f := loggedIn(t)
	f.fake.Fail("POST /users", fakeapi.Failure{
		Code:    400,
		Message: "Key: 'User.Phone' Error:Field validation for 'Phone' failed on the 'required' tag",
	})
	_, err := f.svc.Users.Create(context.Background(), gym.UserInput{Name: "X", Phone: "3"})
	var ve *api.ValidationError
	if !errors.As(err, &ve) || ve.Field != "phone" {
		t.Fatalf("err: %v", err)
	}
}

func TestCourseLifecycle(t *testing.T) {
	f := loggedIn(t)
	ctx := context.Background()
	coach := f.fake.Seed("coaches", gym.Coach{Name: "Li", Phone: "9"})
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.FixedZone("CST", 8*3600))

	in := gym.CourseInput{
		CoachID:     coach,
		CourseName:  "Spin",
		CourseType:  gym.CourseGroup,
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		MaxCapacity: 20,
		Price:       50,
	}
	created, err := f.svc.Courses.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 || !created.StartTime.Equal(start) {
		t.Fatalf("created: %+v", created)
	}

	edit := created.Input()
	edit.CourseName = "Spin 2"
	if err := f.svc.Courses.Update(ctx, created.ID, edit); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := f.svc.Courses.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CourseName != "Spin 2" || got.MaxCapacity != 20 || !got.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("after update: %+v", got)
	}

	if err := f.svc.Courses.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.svc.Courses.Get(ctx, created.ID); !api.IsNotFound(err) {
		t.Fatalf("get after delete: %v", err)
	}
	if err := f.svc.Courses.Delete(ctx, created.ID); !api.IsNotFound(err) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPatchSendsOnlySetFields(t *testing.T) {
	f := loggedIn(t)
	ctx := context.Background()
	id := f.fake.Seed("users", gym.User{Name: "Old", Phone: "5", Email: "old@example.com"})

	name := "New"
	if err := f.svc.Users.Patch(ctx, id, gym.UserPatch{Name: &name}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	row, _ := f.fake.Row("users", id)
	if row["name"] != "New" || row["email"] != "old@example.com" {
		t.Fatalf("row: %v", row)
	}
}

func TestCardDatesRoundTrip(t *testing.T) {
	f := loggedIn(t)
	ctx := context.Background()
	times := 30
	in := gym.CardInput{
		UserID:         1,
		CardTypeID:     2,
		StartDate:      gym.Date{Year: 2026, Month: time.January, Day: 1},
		EndDate:        gym.Date{Year: 2026, Month: time.December, Day: 31},
		RemainingTimes: &times,
	}
	c, err := f.svc.Cards.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	row, _ := f.fake.Row("cards", c.ID)
	if row["start_date"] != "2026-01-01" || row["end_date"] != "2026-12-31" {
		t.Fatalf("wire dates: %v %v", row["start_date"], row["end_date"])
	}
	if c.StartDate != in.StartDate || c.RemainingTimes == nil || *c.RemainingTimes != 30 {
		t.Fatalf("card: %+v", c)
	}
}

func TestUserStats(t *testing.T) {
	f := loggedIn(t)
	last := gym.Date{Year: 2026, Month: time.October, Day: 1}
	f.fake.SetStats(1, gym.UserStats{UserID: 1, TotalDays: 40, ContinuousDays: 3, LastCheckInDate: &last})

	st, err := f.svc.Users.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.TotalDays != 40 || st.LastCheckInDate == nil || *st.LastCheckInDate != last {
		t.Fatalf("stats: %+v", st)
	}
	if _, err := f.svc.Users.Stats(context.Background(), 77); !api.IsNotFound(err) {
		t.Fatalf("stats of missing user: %v", err)
	}
}

func TestRejectedTokenClearsSession(t *testing.T) {
	f := setup(t)
	if err := f.sess.SetAuth("not-a-jwt", gym.User{ID: 1}); err != nil {
		t.Fatalf("set auth: %v", err)
	}
	_, err := f.svc.Users.List(context.Background(), Query{Page: 1, PageSize: 10})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("err: %v", err)
	}
	if f.sess.Authenticated() {
		t.Fatalf("session kept rejected token")
	}
}

func TestUpdateClearsEmptiedFields(t *testing.T) {
	f := loggedIn(t)
	ctx := context.Background()
	u, err := f.svc.Users.Create(ctx, gym.UserInput{Name: "Ann", Phone: "7", Email: "ann@example.com", Gender: gym.GenderFemale})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	in := u.Input()
	in.Email, in.Gender = "", 0
	if err := f.svc.Users.Update(ctx, u.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := f.svc.Users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "" || got.Gender != 0 || got.Name != "Ann" {
		t.Fatalf("cleared fields kept: %+v", got)
	}

	visits := 10
	c, err := f.svc.Cards.Create(ctx, gym.CardInput{
		UserID:         u.ID,
		CardTypeID:     1,
		StartDate:      gym.Date{Year: 2026, Month: time.January, Day: 1},
		EndDate:        gym.Date{Year: 2026, Month: time.June, Day: 30},
		RemainingTimes: &visits,
		TotalTimes:     &visits,
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	cin := c.Input()
	cin.RemainingTimes, cin.TotalTimes = nil, nil
	if err := f.svc.Cards.Update(ctx, c.ID, cin); err != nil {
		t.Fatalf("update card: %v", err)
	}
	gc, err := f.svc.Cards.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	if gc.RemainingTimes != nil || gc.TotalTimes != nil || gc.CardNo != c.CardNo {
		t.Fatalf("card counts kept: %+v", gc)
	}
}
