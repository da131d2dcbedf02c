package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions(CookieName, store))
	return router
}

// lastSessionCookie は複数回の Save で積まれた Set-Cookie のうち最新を返します。
func lastSessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			found = c
		}
	}
	if found == nil {
		t.Fatal("no session cookie in response")
	}
	return found
}

func doRequest(router *gin.Engine, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticatedStateRoundTrip(t *testing.T) {
	router := newTestRouter()
	router.GET("/login", func(c *gin.Context) {
		sess := FromContext(c)
		sess.SetAuthenticated(7, "Ana", "ana@x.com")
		if err := sess.Save(); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/check", func(c *gin.Context) {
		sess := FromContext(c)
		id, ok := sess.UserID()
		if !ok || id != 7 {
			t.Fatalf("unexpected user id: %d ok=%v", id, ok)
		}
		if !sess.IsAuthenticated() {
			t.Fatal("expected authenticated session")
		}
		if sess.DisplayName() != "Ana" {
			t.Fatalf("unexpected display name: %q", sess.DisplayName())
		}
		if sess.LoginTime().IsZero() {
			t.Fatal("login time should be set")
		}
		c.Status(http.StatusNoContent)
	})

	rec := doRequest(router, http.MethodGet, "/login", nil)
	doRequest(router, http.MethodGet, "/check", lastSessionCookie(t, rec))
}

func TestAnonymousSession(t *testing.T) {
	router := newTestRouter()
	router.GET("/check", func(c *gin.Context) {
		sess := FromContext(c)
		if sess.IsAuthenticated() {
			t.Fatal("fresh session must be anonymous")
		}
		if _, ok := sess.UserID(); ok {
			t.Fatal("fresh session must not carry a user id")
		}
		c.Status(http.StatusNoContent)
	})

	doRequest(router, http.MethodGet, "/check", nil)
}

func TestClearRemovesAllAttributes(t *testing.T) {
	router := newTestRouter()
	router.GET("/login", func(c *gin.Context) {
		sess := FromContext(c)
		sess.SetAuthenticated(7, "Ana", "ana@x.com")
		sess.SetFlash(FlashSuccess, "hola")
		_ = sess.Save()
		c.Status(http.StatusNoContent)
	})
	router.GET("/logout", func(c *gin.Context) {
		sess := FromContext(c)
		if err := sess.Clear(); err != nil {
			t.Fatalf("clear failed: %v", err)
		}
		// 冪等性: 2回呼んでもエラーにならない
		if err := sess.Clear(); err != nil {
			t.Fatalf("second clear failed: %v", err)
		}
		c.Status(http.StatusNoContent)
	})
	router.GET("/check", func(c *gin.Context) {
		sess := FromContext(c)
		if sess.IsAuthenticated() {
			t.Fatal("session must be anonymous after clear")
		}
		if flash := sess.ConsumeFlash(); flash.Success != "" || flash.Error != "" {
			t.Fatalf("flash must be gone after clear: %+v", flash)
		}
		c.Status(http.StatusNoContent)
	})

	rec := doRequest(router, http.MethodGet, "/login", nil)
	rec = doRequest(router, http.MethodGet, "/logout", lastSessionCookie(t, rec))
	doRequest(router, http.MethodGet, "/check", lastSessionCookie(t, rec))
}

func TestFlashIsConsumedOnce(t *testing.T) {
	router := newTestRouter()
	router.GET("/set", func(c *gin.Context) {
		sess := FromContext(c)
		sess.SetFlash(FlashError, "algo salió mal")
		_ = sess.Save()
		c.Status(http.StatusNoContent)
	})
	router.GET("/read", func(c *gin.Context) {
		sess := FromContext(c)
		flash := sess.ConsumeFlash()
		c.String(http.StatusOK, flash.Error)
	})

	rec := doRequest(router, http.MethodGet, "/set", nil)
	first := doRequest(router, http.MethodGet, "/read", lastSessionCookie(t, rec))
	if first.Body.String() != "algo salió mal" {
		t.Fatalf("expected flash on first read, got %q", first.Body.String())
	}

	second := doRequest(router, http.MethodGet, "/read", lastSessionCookie(t, first))
	if second.Body.String() != "" {
		t.Fatalf("flash must not survive a reload, got %q", second.Body.String())
	}
}

func TestChallengeAnswerIsTakenOnce(t *testing.T) {
	router := newTestRouter()
	router.GET("/generate", func(c *gin.Context) {
		sess := FromContext(c)
		sess.SetChallengeAnswer(8)
		c.Status(http.StatusNoContent)
	})
	router.GET("/take", func(c *gin.Context) {
		sess := FromContext(c)
		answer, ok := sess.TakeChallengeAnswer()
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, "%d", answer)
	})

	rec := doRequest(router, http.MethodGet, "/generate", nil)
	first := doRequest(router, http.MethodGet, "/take", lastSessionCookie(t, rec))
	if first.Code != http.StatusOK || first.Body.String() != "8" {
		t.Fatalf("expected stored answer 8, got code=%d body=%q", first.Code, first.Body.String())
	}

	second := doRequest(router, http.MethodGet, "/take", lastSessionCookie(t, first))
	if second.Code != http.StatusNotFound {
		t.Fatalf("answer must be deleted after first take, got code=%d", second.Code)
	}
}

func TestDraftIsTakenOnce(t *testing.T) {
	router := newTestRouter()
	router.GET("/set", func(c *gin.Context) {
		sess := FromContext(c)
		sess.SetDraft("correo", "ana@x.com")
		_ = sess.Save()
		c.Status(http.StatusNoContent)
	})
	router.GET("/take", func(c *gin.Context) {
		sess := FromContext(c)
		c.String(http.StatusOK, sess.TakeDraft("correo"))
	})

	rec := doRequest(router, http.MethodGet, "/set", nil)
	first := doRequest(router, http.MethodGet, "/take", lastSessionCookie(t, rec))
	if first.Body.String() != "ana@x.com" {
		t.Fatalf("expected draft value, got %q", first.Body.String())
	}

	second := doRequest(router, http.MethodGet, "/take", lastSessionCookie(t, first))
	if second.Body.String() != "" {
		t.Fatalf("draft must be deleted after first take, got %q", second.Body.String())
	}
}
