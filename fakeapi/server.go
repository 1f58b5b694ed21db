// Package fakeapi is an in-memory stand-in for the gym REST API, used by
// tests. It speaks the same envelope, status codes and auth scheme as the
// real server.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Prefix is where the API is mounted; clients use Server.URL()+Prefix.
const Prefix = "/api/v1"

type record = map[string]any

// Request is one request the fake received.
type Request struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	RequestID     string
}

// Failure makes a route answer with an error instead of its normal
// response. Status is the HTTP status (200 when zero); Code the envelope code.
type Failure struct {
	Status  int
	Code    int
	Message string
}

type collection struct {
	singular string
	noPrefix string
	noField  string
	required []string
	defaults record
	nextID   int64
	rows     map[int64]record
}

// Server is the fake API.
type Server struct {
	mu        sync.Mutex
	secret    []byte
	engine    *gin.Engine
	cols      map[string]*collection
	passwords map[string]string
	stats     map[int64]record
	failures  map[string]Failure
	requests  []Request
	tokenTTL  time.Duration
	http      *httptest.Server
}

// New returns an empty fake.
func New() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		secret:    []byte("fakeapi-secret"),
		passwords: map[string]string{},
		stats:     map[int64]record{},
		failures:  map[string]Failure{},
		tokenTTL:  time.Hour,
		cols: map[string]*collection{
			"users": {
				singular: "User", noPrefix: "U", noField: "user_no",
				required: []string{"name", "phone"},
				defaults: record{"status": 1},
			},
			"cards": {
				singular: "MembershipCard", noPrefix: "C", noField: "card_no",
				required: []string{"user_id", "card_type_id", "start_date", "end_date"},
				defaults: record{"status": 1, "freeze_times": 0, "freeze_days": 0, "is_frozen": 0},
			},
			"coaches": {
				singular: "Coach", noPrefix: "T", noField: "coach_no",
				required: []string{"name", "phone"},
				defaults: record{"status": 1},
			},
			"courses": {
				singular: "Course",
				required: []string{"coach_id", "course_name", "course_type", "start_time", "end_time", "max_capacity"},
				defaults: record{"status": 1, "current_count": 0},
			},
		},
	}
	for _, c := range s.cols {
		c.rows = map[int64]record{}
	}
	s.engine = s.routes()
	return s
}

// Start serves the fake on a local port until Close.
func (s *Server) Start() *Server {
	s.http = httptest.NewServer(s.engine)
	return s
}

// BaseURL is the API root to hand to api.New.
func (s *Server) BaseURL() string { return s.http.URL + Prefix }

// Close stops the listener.
func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

// Handler exposes the routes without a listener.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.record, s.inject)

	v1 := r.Group(Prefix)
	v1.POST("/login", s.login)
	v1.POST("/register", s.register)

	auth := v1.Group("")
	auth.Use(s.authenticate)
	for name := range s.cols {
		name := name
		g := auth.Group("/" + name)
		g.GET("", func(c *gin.Context) { s.list(c, name) })
		g.POST("", func(c *gin.Context) { s.create(c, name) })
		g.GET("/:id", func(c *gin.Context) { s.get(c, name) })
		g.PUT("/:id", func(c *gin.Context) { s.update(c, name) })
		g.DELETE("/:id", func(c *gin.Context) { s.remove(c, name) })
	}
	auth.GET("/users/:id/stats", s.userStats)
	return r
}

// ---------------------------------------------------------------------------
// Envelope
// ---------------------------------------------------------------------------

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success", "data": data, "timestamp": time.Now().Unix()})
}

func fail(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message, "timestamp": time.Now().Unix()})
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func (s *Server) record(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        c.Request.Method,
		Path:          strings.TrimPrefix(c.Request.URL.Path, Prefix),
		Query:         c.Request.URL.RawQuery,
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-ID"),
	})
	s.mu.Unlock()
	c.Next()
}

func (s *Server) inject(c *gin.Context) {
	key := c.Request.Method + " " + strings.TrimPrefix(c.Request.URL.Path, Prefix)
	s.mu.Lock()
	f, ok := s.failures[key]
	s.mu.Unlock()
	if !ok {
		c.Next()
		return
	}
	status := f.Status
	if status == 0 {
		status = http.StatusOK
	}
	fail(c, status, f.Code, f.Message)
}

func (s *Server) authenticate(c *gin.Context) {
	raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || raw == "" {
		fail(c, http.StatusUnauthorized, 401, "missing token")
		return
	}
	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		fail(c, http.StatusUnauthorized, 401, "invalid token")
		return
	}
	c.Next()
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (s *Server) login(c *gin.Context) {
	var req struct {
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusOK, 400, "Invalid request: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if pw, ok := s.passwords[req.Phone]; !ok || pw != req.Password {
		fail(c, http.StatusOK, 401, "Invalid phone or password")
		return
	}
	user := s.findByLocked("users", "phone", req.Phone)
	token, err := s.issueLocked(toInt(user["id"]))
	if err != nil {
		fail(c, http.StatusOK, 500, "Failed to generate token")
		return
	}
	success(c, gin.H{"token": token, "user": user})
}

func (s *Server) register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Phone    string `json:"phone" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusOK, 400, "Invalid request: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.passwords[req.Phone]; taken {
		fail(c, http.StatusOK, 400, "phone already registered")
		return
	}
	s.passwords[req.Phone] = req.Password
	success(c, s.insertLocked("users", record{"name": req.Name, "phone": req.Phone}))
}

// Token signs a token for userID, as /login would.
func (s *Server) Token(userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, err := s.issueLocked(userID)
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) issueLocked(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    "user",
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func (s *Server) list(c *gin.Context, name string) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.cols[name]
	ids := make([]int64, 0, len(col.rows))
	for id, row := range col.rows {
		if matches(row, c.Request.URL.Query()) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := []record{}
	start := (page - 1) * pageSize
	for i := start; i < len(ids) && i < start+pageSize; i++ {
		items = append(items, col.rows[ids[i]])
	}
	success(c, gin.H{"list": items, "total": len(ids), "page": page, "page_size": pageSize})
}

func matches(row record, q map[string][]string) bool {
	for k, vs := range q {
		if k == "page" || k == "page_size" || len(vs) == 0 {
			continue
		}
		if fmt.Sprint(row[k]) != vs[0] {
			return false
		}
	}
	return true
}

func (s *Server) get(c *gin.Context, name string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, found := s.cols[name].rows[id]
	if !found {
		fail(c, http.StatusOK, 404, notFound(s.cols[name]))
		return
	}
	success(c, row)
}

func (s *Server) create(c *gin.Context, name string) {
	var body record
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusOK, 400, "Invalid request: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.cols[name]
	for _, field := range col.required {
		if isBlank(body[field]) {
			fail(c, http.StatusOK, 400, bindingMessage(col.singular, field))
			return
		}
	}
	success(c, s.insertLocked(name, body))
}

func (s *Server) update(c *gin.Context, name string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch record
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, http.StatusOK, 400, "Invalid request: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row, found := s.cols[name].rows[id]
	if !found {
		fail(c, http.StatusOK, 404, notFound(s.cols[name]))
		return
	}
	for k, v := range patch {
		if k == "id" || k == "created_at" {
			continue
		}
		row[k] = v
	}
	success(c, nil)
}

func (s *Server) remove(c *gin.Context, name string) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.cols[name].rows[id]; !found {
		fail(c, http.StatusOK, 404, notFound(s.cols[name]))
		return
	}
	delete(s.cols[name].rows, id)
	success(c, nil)
}

func (s *Server) userStats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.cols["users"].rows[id]; !found {
		fail(c, http.StatusOK, 404, "User not found")
		return
	}
	st, found := s.stats[id]
	if !found {
		st = record{"user_id": id}
	}
	success(c, st)
}

func (s *Server) insertLocked(name string, body record) record {
	col := s.cols[name]
	col.nextID++
	row := record{}
	for k, v := range col.defaults {
		row[k] = v
	}
	for k, v := range body {
		row[k] = v
	}
	row["id"] = col.nextID
	if col.noField != "" && isBlank(row[col.noField]) {
		row[col.noField] = fmt.Sprintf("%s%06d", col.noPrefix, col.nextID)
	}
	row["created_at"] = time.Now().UTC().Format(time.RFC3339)
	col.rows[col.nextID] = row
	return row
}

func (s *Server) findByLocked(name, field, value string) record {
	for _, row := range s.cols[name].rows {
		if fmt.Sprint(row[field]) == value {
			return row
		}
	}
	return nil
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusOK, 400, "Invalid ID")
		return 0, false
	}
	return id, true
}

func notFound(col *collection) string { return col.singular + " not found" }

// bindingMessage mimics gin's validator output for a missing field.
func bindingMessage(singular, field string) string {
	goName := camel(field)
	return fmt.Sprintf("Key: '%s.%s' Error:Field validation for '%s' failed on the 'required' tag", singular, goName, goName)
}

func camel(field string) string {
	parts := strings.Split(field, "_")
	for i, p := range parts {
		if p == "id" {
			parts[i] = "ID"
			continue
		}
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return x == 0
	}
	return false
}

func toInt(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case float64:
		return int64(x)
	case int:
		return int64(x)
	}
	return 0
}

// ---------------------------------------------------------------------------
// Test controls
// ---------------------------------------------------------------------------

// Seed stores v (any JSON-encodable record) in the named collection and
// returns its id. A zero id in v is replaced by the next free id.
func (s *Server) Seed(name string, v any) int64 {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var row record
	if err := json.Unmarshal(b, &row); err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.cols[name]
	if id := toInt(row["id"]); id > 0 {
		row["id"] = id
		col.rows[id] = row
		if id > col.nextID {
			col.nextID = id
		}
		return id
	}
	delete(row, "id")
	return toInt(s.insertLocked(name, row)["id"])
}

// Account registers login credentials for an existing user's phone.
func (s *Server) Account(phone, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwords[phone] = password
}

// SetStats stores the statistics returned for userID.
func (s *Server) SetStats(userID int64, v any) {
	b, _ := json.Marshal(v)
	var row record
	_ = json.Unmarshal(b, &row)
	s.mu.Lock()
	s.stats[userID] = row
	s.mu.Unlock()
}

// Fail makes "METHOD /path" (path without Prefix) answer with f until
// Recover is called.
func (s *Server) Fail(route string, f Failure) {
	s.mu.Lock()
	s.failures[route] = f
	s.mu.Unlock()
}

// Recover removes an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	delete(s.failures, route)
	s.mu.Unlock()
}

// Count returns the number of records in a collection.
func (s *Server) Count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cols[name].rows)
}

// Row returns a copy of one stored record.
func (s *Server) Row(name string, id int64) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.cols[name].rows[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Requests returns everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ResetRequests clears the request log.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}
