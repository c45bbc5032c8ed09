package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/snaglist/api"
	dbfs "github.com/garnizeh/snaglist/db"
	"github.com/garnizeh/snaglist/internal/blob"
	"github.com/garnizeh/snaglist/internal/config"
	"github.com/garnizeh/snaglist/internal/db"
)

// testServer boots the full router over a migrated on-disk database. The
// seed data leaves one pending manager account (admin@snaglist.local).
func testServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	d, err := db.New(ctx, filepath.Join(dir, "snaglist.db"))
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blobs, err := blob.NewFSStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:     "routetestsecret",
		TokenDuration: time.Hour,
	}
	router, err := api.SetupRoutes(cfg, "test", "now", d, blobs)
	if err != nil {
		t.Fatalf("SetupRoutes: %v", err)
	}

	srv := httptest.NewServer(router)
	client := srv.Client()
	t.Cleanup(func() {
		client.CloseIdleConnections()
		srv.Close()
	})
	return srv, client
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	return res, b
}

// register completes the pending account and returns its token.
func register(t *testing.T, client *http.Client, base, email, name, password string) string {
	t.Helper()
	res, b := doJSON(t, client, http.MethodPost, base+"/v1/auth/register", "", map[string]string{
		"email": email, "full_name": name, "password": password,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, res.StatusCode, b)
	}
	var ar struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(b, &ar); err != nil || ar.Token == "" {
		t.Fatalf("register %s: bad response %s", email, b)
	}
	return ar.Token
}

// invite creates a pending account through the users endpoint and completes
// its registration, returning a usable token.
func invite(t *testing.T, client *http.Client, base, mgrToken, email, role string) string {
	t.Helper()
	res, b := doJSON(t, client, http.MethodPost, base+"/v1/users", mgrToken, map[string]string{
		"email": email, "role": role,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("invite %s: status %d body %s", email, res.StatusCode, b)
	}
	return register(t, client, base, email, "Test "+role, "pa55word")
}

func TestEndToEndLifecycle(t *testing.T) {
	srv, client := testServer(t)
	base := srv.URL

	// the seeded bootstrap manager completes registration first
	mgrToken := register(t, client, base, "admin@snaglist.local", "Site Admin", "adminpass")
	engToken := invite(t, client, base, mgrToken, "eng@site.io", "engineer")
	obsToken := invite(t, client, base, mgrToken, "watch@site.io", "observer")

	// unauthenticated requests are rejected
	res, _ := doJSON(t, client, http.MethodGet, base+"/v1/objects", "", nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", res.StatusCode)
	}

	// manager creates an object
	res, b := doJSON(t, client, http.MethodPost, base+"/v1/objects", mgrToken, map[string]any{
		"name": "warehouse b", "address": "dock road",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create object: status %d body %s", res.StatusCode, b)
	}
	var obj struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		t.Fatalf("decode object: %v", err)
	}

	// engineers may not create objects
	res, _ = doJSON(t, client, http.MethodPost, base+"/v1/objects", engToken, map[string]any{
		"name": "nope",
	})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("engineer create object: expected 403, got %d", res.StatusCode)
	}

	// manager reports a defect
	res, b = doJSON(t, client, http.MethodPost, base+"/v1/defects", mgrToken, map[string]any{
		"title": "leaking roof", "object_id": obj.ID,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create defect: status %d body %s", res.StatusCode, b)
	}
	var def struct {
		ID       int64 `json:"id"`
		StatusID int64 `json:"status_id"`
	}
	if err := json.Unmarshal(b, &def); err != nil {
		t.Fatalf("decode defect: %v", err)
	}
	if def.StatusID != 1 {
		t.Fatalf("new defect status: want 1 got %d", def.StatusID)
	}

	// engineer cannot start work before being assigned
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), engToken, map[string]any{
		"status_id": 2,
	})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("unassigned transition: expected 403, got %d", res.StatusCode)
	}

	// look up the engineer id via the users list
	res, b = doJSON(t, client, http.MethodGet, base+"/v1/users", mgrToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list users: status %d", res.StatusCode)
	}
	var users []struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(b, &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	var engID int64
	for _, u := range users {
		if u.Email == "eng@site.io" {
			engID = u.ID
		}
	}
	if engID == 0 {
		t.Fatalf("engineer not in users list: %s", b)
	}

	// observers may not list users
	res, _ = doJSON(t, client, http.MethodGet, base+"/v1/users", obsToken, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("observer list users: expected 403, got %d", res.StatusCode)
	}

	// manager assigns the engineer
	res, b = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/assign", base, def.ID), mgrToken, map[string]any{
		"assignee_id": engID,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assign: status %d body %s", res.StatusCode, b)
	}

	// assigning a non-engineer is rejected with 422
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/assign", base, def.ID), mgrToken, map[string]any{
		"assignee_id": 99999,
	})
	if res.StatusCode != http.StatusNotFound && res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("assign unknown user: expected 404/422, got %d", res.StatusCode)
	}

	// assigned engineer walks the defect through its lifecycle
	for _, statusID := range []int64{2, 3} {
		res, b = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), engToken, map[string]any{
			"status_id": statusID,
		})
		if res.StatusCode != http.StatusOK {
			t.Fatalf("transition to %d: status %d body %s", statusID, res.StatusCode, b)
		}
	}

	// skipping ahead is rejected
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), engToken, map[string]any{
		"status_id": 2,
	})
	if res.StatusCode != http.StatusOK {
		// in_review back to in_progress is a legal rework edge
		t.Fatalf("rework edge: status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), engToken, map[string]any{
		"status_id": 4,
	})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("engineer closing defect: expected 403, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), mgrToken, map[string]any{
		"status_id": 4,
	})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("in_progress to closed: expected 422, got %d", res.StatusCode)
	}

	// engineer finishes review, manager closes
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), engToken, map[string]any{
		"status_id": 3,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("back to review: status %d", res.StatusCode)
	}
	res, b = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), mgrToken, map[string]any{
		"status_id": 4,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("close: status %d body %s", res.StatusCode, b)
	}
	var closed struct {
		StatusID  int64  `json:"status_id"`
		Completed *int64 `json:"completed"`
	}
	if err := json.Unmarshal(b, &closed); err != nil {
		t.Fatalf("decode closed defect: %v", err)
	}
	if closed.StatusID != 4 || closed.Completed == nil {
		t.Fatalf("closed defect: status %d completed %v", closed.StatusID, closed.Completed)
	}

	// closed is final
	res, _ = doJSON(t, client, http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/status", base, def.ID), mgrToken, map[string]any{
		"status_id": 2,
	})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("reopen closed: expected 422, got %d", res.StatusCode)
	}

	// the audit trail is readable and newest first
	res, b = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/v1/history/defect/%d", base, def.ID), mgrToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("history: status %d body %s", res.StatusCode, b)
	}
	var hist struct {
		Total int64 `json:"total"`
		Items []struct {
			Action  string `json:"action"`
			Changed int64  `json:"changed"`
		} `json:"items"`
	}
	if err := json.Unmarshal(b, &hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.Total < 5 {
		t.Fatalf("expected at least 5 history entries, got %d", hist.Total)
	}
	for i := 1; i < len(hist.Items); i++ {
		if hist.Items[i-1].Changed < hist.Items[i].Changed {
			t.Fatalf("history not newest first at %d", i)
		}
	}
}

func TestEndToEndAttachments(t *testing.T) {
	srv, client := testServer(t)
	base := srv.URL

	mgrToken := register(t, client, base, "admin@snaglist.local", "Site Admin", "adminpass")
	obsToken := invite(t, client, base, mgrToken, "watch@site.io", "observer")

	_, b := doJSON(t, client, http.MethodPost, base+"/v1/objects", mgrToken, map[string]any{"name": "block c"})
	var obj struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		t.Fatalf("decode object: %v", err)
	}
	_, b = doJSON(t, client, http.MethodPost, base+"/v1/defects", mgrToken, map[string]any{
		"title": "broken tile", "object_id": obj.ID,
	})
	var def struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(b, &def); err != nil {
		t.Fatalf("decode defect: %v", err)
	}

	upload := func(token string) (*http.Response, []byte) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "photo.jpg")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := fw.Write([]byte("jpegbytes")); err != nil {
			t.Fatalf("write part: %v", err)
		}
		mw.Close()

		req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/v1/defects/%d/attachments", base, def.ID), &buf)
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		res, err := client.Do(req)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		return res, body
	}

	// observers cannot upload
	res, _ := upload(obsToken)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("observer upload: expected 403, got %d", res.StatusCode)
	}

	res, b = upload(mgrToken)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("upload: status %d body %s", res.StatusCode, b)
	}
	var att struct {
		ID       int64  `json:"id"`
		FileName string `json:"file_name"`
		Size     int64  `json:"size"`
	}
	if err := json.Unmarshal(b, &att); err != nil {
		t.Fatalf("decode attachment: %v", err)
	}
	if att.FileName != "photo.jpg" || att.Size != int64(len("jpegbytes")) {
		t.Fatalf("attachment metadata: %+v", att)
	}

	// observers can download
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/attachments/%d", base, att.ID), nil)
	req.Header.Set("Authorization", "Bearer "+obsToken)
	dres, err := client.Do(req)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dres.Body.Close()
	if dres.StatusCode != http.StatusOK {
		t.Fatalf("download: status %d", dres.StatusCode)
	}
	if cd := dres.Header.Get("Content-Disposition"); !strings.Contains(cd, "photo.jpg") {
		t.Fatalf("content disposition: %q", cd)
	}
	got, _ := io.ReadAll(dres.Body)
	if string(got) != "jpegbytes" {
		t.Fatalf("download body: %q", got)
	}

	// only the uploader may delete
	res, _ = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/v1/attachments/%d", base, att.ID), obsToken, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("observer delete attachment: expected 403, got %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodDelete, fmt.Sprintf("%s/v1/attachments/%d", base, att.ID), mgrToken, nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete attachment: expected 204, got %d", res.StatusCode)
	}
}
