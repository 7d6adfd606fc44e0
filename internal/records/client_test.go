package records_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"testing"

	"marktplatz/internal/records"
)

type testFields struct {
	Name  string   `json:"name,omitempty"`
	Price *float64 `json:"price,omitempty"`
}

func TestListReshapesMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/apps/app1/records" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = io.WriteString(w, `{
		  "a1a1a1a1a1a1a1a1a1a1a1a1": {"createdat":"2025-01-01T10:00:00","fields":{"name":"A"}},
		  "b2b2b2b2b2b2b2b2b2b2b2b2": {"createdat":"2025-01-02T10:00:00","fields":{"name":"B"}}
		}`)
	}))
	defer srv.Close()

	col := records.NewCollection[testFields](records.NewClient(srv.URL, srv.Client()), "app1")
	recs, err := col.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(recs))
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	if recs[0].ID != "a1a1a1a1a1a1a1a1a1a1a1a1" || recs[0].Fields.Name != "A" {
		t.Fatalf("bad first record %+v", recs[0])
	}
	if recs[1].ID != "b2b2b2b2b2b2b2b2b2b2b2b2" || recs[1].CreatedAt != "2025-01-02T10:00:00" {
		t.Fatalf("bad second record %+v", recs[1])
	}
}

func TestCreateAndUpdateSendFieldsEnvelope(t *testing.T) {
	var bodies []map[string]map[string]any
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		var b map[string]map[string]any
		_ = json.NewDecoder(r.Body).Decode(&b)
		bodies = append(bodies, b)
		_, _ = io.WriteString(w, `{"id":"c3c3c3c3c3c3c3c3c3c3c3c3","fields":{"name":"C"}}`)
	}))
	defer srv.Close()

	col := records.NewCollection[testFields](records.NewClient(srv.URL, nil), "app1")
	p := 12.5
	rec, err := col.Create(context.Background(), testFields{Name: "C", Price: &p})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "c3c3c3c3c3c3c3c3c3c3c3c3" {
		t.Fatalf("created id %q", rec.ID)
	}
	if _, err := col.Update(context.Background(), "c3c3c3c3c3c3c3c3c3c3c3c3", testFields{Name: "D"}); err != nil {
		t.Fatal(err)
	}

	if methods[0] != "POST /apps/app1/records" || methods[1] != "PATCH /apps/app1/records/c3c3c3c3c3c3c3c3c3c3c3c3" {
		t.Fatalf("unexpected calls %v", methods)
	}
	if bodies[0]["fields"]["price"] != 12.5 {
		t.Fatalf("price missing from create body: %v", bodies[0])
	}
	if _, ok := bodies[1]["fields"]["price"]; ok {
		t.Fatalf("omitted field leaked into patch body: %v", bodies[1])
	}
}

func TestNon2xxIsAPIErrorWithRawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, "session expired")
	}))
	defer srv.Close()

	col := records.NewCollection[testFields](records.NewClient(srv.URL, nil), "app1")
	_, err := col.List(context.Background())
	var apiErr *records.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || err.Error() != "session expired" {
		t.Fatalf("unexpected error %+v", apiErr)
	}
}

func TestDeleteAcceptsEmptyAndNonJSONBodies(t *testing.T) {
	for _, body := range []string{"", "OK", `{"deleted":true}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("want DELETE, got %s", r.Method)
			}
			_, _ = io.WriteString(w, body)
		}))
		col := records.NewCollection[testFields](records.NewClient(srv.URL, nil), "app1")
		if err := col.Delete(context.Background(), "a1a1a1a1a1a1a1a1a1a1a1a1"); err != nil {
			t.Fatalf("delete with body %q: %v", body, err)
		}
		srv.Close()
	}
}

func TestSessionCookieFromJarIsSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("sessionid")
		if err != nil || ck.Value != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	jar, _ := cookiejar.New(nil)
	u, _ := url.Parse(srv.URL)
	jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "s3cret"}})

	col := records.NewCollection[testFields](records.NewClient(srv.URL, &http.Client{Jar: jar}), "app1")
	recs, err := col.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("want empty list, got %d", len(recs))
	}
}
