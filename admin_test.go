package folio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gloanda/folio/content"
)

// adminClient replays the CSRF and session cookies of a logged-in admin.
type adminClient struct {
	t       *testing.T
	a       *App
	csrf    *http.Cookie
	session *http.Cookie
}

func loginAdmin(t *testing.T, a *App) *adminClient {
	t.Helper()
	csrf := csrfCookie(t, a)
	rec := postLogin(a, csrf, "correct horse")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			return &adminClient{t: t, a: a, csrf: csrf, session: c}
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func (ac *adminClient) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(ac.csrf)
	req.AddCookie(ac.session)
	rec := httptest.NewRecorder()
	ac.a.Echo.ServeHTTP(rec, req)
	return rec
}

func (ac *adminClient) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	form.Set("_csrf", ac.csrf.Value)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ac.do(req)
}

func (ac *adminClient) upload(name string, data []byte) *httptest.ResponseRecorder {
	ac.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("_csrf", ac.csrf.Value); err != nil {
		ac.t.Fatal(err)
	}
	fw, err := mw.CreateFormFile("image", name)
	if err != nil {
		ac.t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		ac.t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		ac.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/images/upload/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return ac.do(req)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAdminSaveDerivesSlugFromTitle(t *testing.T) {
	a := newTestApp(t)
	ac := loginAdmin(t, a)

	rec := ac.postForm("/admin/save/", url.Values{
		"title":     {"Hello, World!"},
		"date":      {"2024-03-05"},
		"tags":      {"go, web"},
		"content":   {"Body"},
		"published": {"1"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/?msg=Saved+hello-world." {
		t.Errorf("Location = %q", loc)
	}
	p, err := a.Store.GetPostAny(context.Background(), "hello-world")
	if err != nil {
		t.Fatalf("GetPostAny: %v", err)
	}
	if p.Title != "Hello, World!" || p.Date != "2024-03-05" || !p.Published || len(p.Tags) != 2 {
		t.Errorf("saved post = %+v", p)
	}
}

func TestAdminSaveSlugifiesExplicitSlug(t *testing.T) {
	a := newTestApp(t)
	ac := loginAdmin(t, a)
	ac.postForm("/admin/save/", url.Values{"title": {"T"}, "slug": {"My Post/../x"}, "date": {"2024-03-05"}})
	if _, err := a.Store.GetPostAny(context.Background(), "my-post-x"); err != nil {
		t.Errorf("GetPostAny(my-post-x): %v", err)
	}
}

func TestAdminSaveRejectsInvalidDate(t *testing.T) {
	a := newTestApp(t)
	ac := loginAdmin(t, a)
	rec := ac.postForm("/admin/save/", url.Values{"title": {"Dated"}, "date": {"05/03/2024"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "Invalid+date+format") {
		t.Errorf("Location = %q", loc)
	}
	if _, err := a.Store.GetPostAny(context.Background(), "dated"); !errors.Is(err, ErrNotFound) {
		t.Errorf("post with invalid date was stored: %v", err)
	}
}

func TestAdminSaveInvalidatesCache(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "first", Title: "First", Date: "2024-01-01", Published: true})
	if body := doRequest(a, http.MethodGet, "/blog/").Body.String(); !strings.Contains(body, "First") {
		t.Fatal("seed post missing from blog")
	}

	ac := loginAdmin(t, a)
	ac.postForm("/admin/save/", url.Values{"title": {"Second"}, "date": {"2024-02-01"}, "published": {"1"}})
	if body := doRequest(a, http.MethodGet, "/blog/").Body.String(); !strings.Contains(body, "Second") {
		t.Error("saved post not visible on the blog; cache was not invalidated")
	}
}

func TestAdminDeletePostWithCSRFHeader(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "doomed", Title: "Doomed", Date: "2024-01-01", Published: true})
	ac := loginAdmin(t, a)

	req := httptest.NewRequest(http.MethodDelete, "/admin/post/doomed/", nil)
	if rec := ac.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("DELETE without token = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/admin/post/doomed/", nil)
	req.Header.Set("X-CSRF-Token", ac.csrf.Value)
	req.Header.Set("HX-Request", "true")
	rec := ac.do(req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Deleted doomed.") {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	if _, err := a.Store.GetPostAny(context.Background(), "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("post still stored: %v", err)
	}
	if body := doRequest(a, http.MethodGet, "/blog/").Body.String(); strings.Contains(body, "Doomed") {
		t.Error("deleted post still listed")
	}
}

func TestAdminDeletePostWithForm(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "doomed", Title: "Doomed", Date: "2024-01-01", Published: true})
	ac := loginAdmin(t, a)

	rec := ac.postForm("/admin/post/doomed/delete/", url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/?msg=Deleted+doomed." {
		t.Fatalf("POST delete = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, err := a.Store.GetPostAny(context.Background(), "doomed"); !errors.Is(err, ErrNotFound) {
		t.Errorf("post still stored: %v", err)
	}
}

func TestAdminEditLinkWithoutHTMX(t *testing.T) {
	a := newTestApp(t)
	savePost(t, a, content.BlogPost{Slug: "draft", Title: "Draft", Date: "2024-01-01", Content: "Work in progress"})
	ac := loginAdmin(t, a)

	rec := ac.do(httptest.NewRequest(http.MethodGet, "/admin/post/draft/", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "<!doctype html>") {
		t.Fatalf("GET edit page = %d", rec.Code)
	}
	if !strings.Contains(body, "Work in progress") {
		t.Error("editor not loaded with the post")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/post/draft/", nil)
	req.Header.Set("HX-Request", "true")
	rec = ac.do(req)
	if strings.Contains(rec.Body.String(), "<!doctype html>") {
		t.Error("HTMX request should get the editor partial only")
	}
}

func TestImageUploadResizesAndNamesUniquely(t *testing.T) {
	a := newTestApp(t)
	ac := loginAdmin(t, a)
	data := encodePNG(t, 1600, 400)

	rec := ac.upload("my-photo.png", data)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload = %d: %s", rec.Code, rec.Body.String())
	}
	f, err := os.Open(filepath.Join(a.uploadsDir(), "my-photo.jpg"))
	if err != nil {
		t.Fatalf("uploaded file: %v", err)
	}
	cfg, format, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if format != "jpeg" || cfg.Width != 800 || cfg.Height != 200 {
		t.Errorf("stored image = %s %dx%d, want jpeg 800x200", format, cfg.Width, cfg.Height)
	}
	if !strings.Contains(rec.Body.String(), "/public/uploads/my-photo.jpg") {
		t.Error("image list missing the upload")
	}

	if rec := ac.upload("my-photo.png", data); rec.Code != http.StatusOK {
		t.Fatalf("second upload = %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(a.uploadsDir(), "my-photo-2.jpg")); err != nil {
		t.Errorf("second upload not renamed: %v", err)
	}
	images, err := a.Store.ListImages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 2 {
		t.Errorf("stored %d images, want 2", len(images))
	}
}

func TestImageUploadRejectsNonImage(t *testing.T) {
	a := newTestApp(t)
	ac := loginAdmin(t, a)
	if rec := ac.upload("notes.png", []byte("not an image")); rec.Code != http.StatusBadRequest {
		t.Errorf("upload = %d, want 400", rec.Code)
	}
}

func TestImageDelete(t *testing.T) {
	a := newTestApp(t)
	ac := loginAdmin(t, a)
	ac.upload("one.png", encodePNG(t, 10, 10))
	ac.upload("two.png", encodePNG(t, 10, 10))

	req := httptest.NewRequest(http.MethodDelete, "/admin/images/one.jpg/", nil)
	req.Header.Set("X-CSRF-Token", ac.csrf.Value)
	if rec := ac.do(req); rec.Code != http.StatusOK {
		t.Fatalf("DELETE = %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(a.uploadsDir(), "one.jpg")); !os.IsNotExist(err) {
		t.Errorf("one.jpg still on disk: %v", err)
	}

	rec := ac.postForm("/admin/images/two.jpg/delete/", url.Values{})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/images/" {
		t.Fatalf("POST delete = %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, err := os.Stat(filepath.Join(a.uploadsDir(), "two.jpg")); !os.IsNotExist(err) {
		t.Errorf("two.jpg still on disk: %v", err)
	}
	images, err := a.Store.ListImages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 0 {
		t.Errorf("store still lists %d images", len(images))
	}
}
