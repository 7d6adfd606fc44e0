package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"marktplatz/internal/config"
	"marktplatz/internal/dashboard"
	"marktplatz/internal/domain"
	"marktplatz/internal/http/handlers"
	"marktplatz/internal/photos"
	"marktplatz/internal/records"
	"marktplatz/internal/repos"
	"marktplatz/internal/services"
	"marktplatz/internal/vision"
)

type logEntry struct {
	Level  string                 `json:"level"`
	Action string                 `json:"action"`
	Err    string                 `json:"err"`
	Fields map[string]interface{} `json:"fields"`
}

// capture logs by temporarily replacing the standard logger output
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0) // remove timestamps to make JSON parseable
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func hasAction(entries []logEntry, level, action string) bool {
	for _, e := range entries {
		if e.Action == action && e.Level == level {
			return true
		}
	}
	return false
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// fakeBackend serves /apps/<app>/records[/<id>] from memory, the way the record
// backend answers.
type fakeBackend struct {
	mu      sync.Mutex
	apps    map[string]map[string]map[string]any
	created map[string]string
	seq     int

	failList  bool
	failWrite string // raw body answered with 400 on POST/PATCH
	writes    []map[string]any
	srv       *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{
		apps: map[string]map[string]map[string]any{
			domain.AppCategories: {},
			domain.AppOffers:     {},
		},
		created: map[string]string{},
	}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) add(app string, fields map[string]any) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	id := fmt.Sprintf("%024x", b.seq)
	b.apps[app][id] = fields
	b.created[id] = fmt.Sprintf("2025-01-%02dT10:00:00", b.seq)
	return id
}

func (b *fakeBackend) record(id string, fields map[string]any) map[string]any {
	return map[string]any{"id": id, "createdat": b.created[id], "fields": fields}
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "apps" || parts[2] != "records" {
		http.NotFound(w, r)
		return
	}
	app := parts[1]
	id := ""
	if len(parts) == 4 {
		id = parts[3]
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	recs, ok := b.apps[app]
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		if b.failList {
			http.Error(w, "backend unavailable", http.StatusBadGateway)
			return
		}
		out := map[string]any{}
		for rid, f := range recs {
			rec := b.record(rid, f)
			delete(rec, "id")
			out[rid] = rec
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodGet:
		f, ok := recs[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(b.record(id, f))
	case r.Method == http.MethodPost || r.Method == http.MethodPatch:
		var body struct {
			Fields map[string]any `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.writes = append(b.writes, body.Fields)
		if b.failWrite != "" {
			http.Error(w, b.failWrite, http.StatusBadRequest)
			return
		}
		if r.Method == http.MethodPost {
			b.seq++
			id = fmt.Sprintf("%024x", b.seq)
			recs[id] = body.Fields
			b.created[id] = fmt.Sprintf("2025-02-%02dT10:00:00", b.seq%28+1)
		} else {
			if _, ok := recs[id]; !ok {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			for k, v := range body.Fields {
				recs[id][k] = v
			}
		}
		_ = json.NewEncoder(w).Encode(b.record(id, recs[id]))
	case r.Method == http.MethodDelete:
		delete(recs, id)
		_, _ = io.WriteString(w, "true")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *fakeBackend) lastWrite() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.writes) == 0 {
		return nil
	}
	return b.writes[len(b.writes)-1]
}

func (b *fakeBackend) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

type fakeAnalyzer struct {
	hints vision.Hints
	err   error
	calls int
	media string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, b64, mediaType string) (vision.Hints, error) {
	f.calls++
	f.media = mediaType
	return f.hints, f.err
}

type fakeStore struct {
	keys []string
}

func (s *fakeStore) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	s.keys = append(s.keys, filename)
	return "https://cdn.test/offers/" + filename, nil
}

type testEnv struct {
	app     *fiber.App
	backend *fakeBackend
	ctl     *dashboard.Controller
	csrf    string
}

// newTestEnv wires the dashboard routes against a fake backend. Sessions sid-admin and
// sid-user belong to an ADMIN and a plain USER.
func newTestEnv(t *testing.T, backend *fakeBackend, analyzer handlers.ImageAnalyzer, store photos.Store) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repos.SeedAdmin(db, "u-admin", "admin@marktplatz.test", "Admin", "Passw0rd!"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO users(id,email,name,password_hash,role) VALUES('u-alice','alice@marktplatz.test','Alice','x','USER')`); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	userRepo := repos.NewUserRepo(db)
	_ = userRepo.BindSession("sid-admin", "u-admin")
	_ = userRepo.BindSession("sid-user", "u-alice")
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	client := records.NewClient(backend.srv.URL, backend.srv.Client())
	ctl := dashboard.NewController(
		repos.NewOfferRepo(client, domain.AppOffers, domain.AppCategories),
		repos.NewCategoryRepo(client, domain.AppCategories),
	)

	app := fiber.New(fiber.Config{Views: handlers.NewViews("../../web/templates")})
	app.Use(requestid.New())
	app.Use(handlers.CSRF())
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	deps := handlers.NewDeps(config.Config{MaxUploadBytes: 1 << 20}, ctl, analyzer, store)
	admin := handlers.RequireAdmin(authSvc)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", authH.Login)
	app.Get("/", admin, deps.DashboardHandler.Home)
	app.Post("/retry", admin, deps.DashboardHandler.Retry)
	app.Get("/offers/new", admin, deps.OfferHandler.New)
	app.Post("/offers/analyze", admin, deps.OfferHandler.Analyze)
	app.Post("/offers", admin, deps.OfferHandler.Create)
	app.Get("/offers/:id", admin, deps.OfferHandler.Detail)
	app.Get("/offers/:id/edit", admin, deps.OfferHandler.Edit)
	app.Post("/offers/:id", admin, deps.OfferHandler.Update)
	app.Post("/offers/:id/delete", admin, deps.OfferHandler.Delete)
	app.Post("/categories", admin, deps.CategoryHandler.Create)
	app.Get("/categories/:id/edit", admin, deps.CategoryHandler.Edit)
	app.Post("/categories/:id/delete", admin, deps.CategoryHandler.Delete)
	api := app.Group("/api/v1", admin)
	api.Get("/dashboard", deps.APIHandler.Dashboard)
	api.Get("/offers/:id", deps.APIHandler.Offer)

	env := &testEnv{app: app, backend: backend, ctl: ctl}

	// fetch csrf token
	resp, err := app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	env.csrf = extractCookie(resp, "csrf_")
	if env.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return env
}

func (e *testEnv) load(t *testing.T) {
	t.Helper()
	if err := e.ctl.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func (e *testEnv) get(t *testing.T, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	form.Set("csrf", e.csrf)
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// postPhoto sends a multipart form with an image part named "photo".
func (e *testEnv) postPhoto(t *testing.T, path string, fields map[string]string, photo []byte, accept string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("csrf", e.csrf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if photo != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="photo"; filename="sneaker.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(photo)
	}
	_ = mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: e.csrf})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "sid-admin"})
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func httptestGet(path string) *http.Request {
	return httptest.NewRequest("GET", path, nil)
}
