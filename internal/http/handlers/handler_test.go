package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ptc_mining/internal/domain"

	"github.com/gin-gonic/gin"
)

func testContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestGetUserID(t *testing.T) {
	cases := []struct {
		name   string
		set    func(c *gin.Context)
		wantID int64
		wantOK bool
	}{
		{"int64", func(c *gin.Context) { c.Set("user_id", int64(42)) }, 42, true},
		{"float64 from json claims", func(c *gin.Context) { c.Set("user_id", float64(7)) }, 7, true},
		{"missing", func(c *gin.Context) {}, 0, false},
		{"wrong type", func(c *gin.Context) { c.Set("user_id", "42") }, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := testContext(t)
			tc.set(c)

			id, ok := getUserID(c)
			if ok != tc.wantOK || id != tc.wantID {
				t.Fatalf("getUserID = (%d, %v), want (%d, %v)", id, ok, tc.wantID, tc.wantOK)
			}
		})
	}
}

// Every authed endpoint must reject a context without a user id before
// touching its service.
func TestHandlersRejectMissingUser(t *testing.T) {
	h := &Handler{}

	endpoints := map[string]gin.HandlerFunc{
		"me":            h.Me,
		"start":         h.StartMining,
		"complete":      h.CompleteMining,
		"cancel":        h.CancelMining,
		"history":       h.MiningHistory,
		"ad-buff":       h.AdBuff,
		"redeem":        h.RedeemReferral,
		"referrals":     h.ListReferrals,
		"sync":          h.Sync,
		"notifications": h.Notifications,
		"mark-read":     h.MarkNotificationRead,
	}

	for name, handler := range endpoints {
		t.Run(name, func(t *testing.T) {
			c, w := testContext(t)
			handler(c)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrSelfReferral, http.StatusConflict},
		{domain.ErrDuplicateReferral, http.StatusConflict},
		{domain.ErrValidation, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		c, w := testContext(t)
		respondError(c, tc.err)
		if w.Code != tc.want {
			t.Errorf("respondError(%v) = %d, want %d", tc.err, w.Code, tc.want)
		}
	}
}
