package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/notification"
	testutil "github.com/trezcool/darasa/tests"
)

func TestNotificationAPI(t *testing.T) {
	env := setup(t)
	testutil.CreateClass(t, env.rosterRepo, "c1", "Form 4 Math", "Mathematics", teacherActor.ID, "s1", "s2")

	teacherToken := getToken(t, teacherActor)
	studentToken := getToken(t, studentActor)

	t.Run("students cannot fan out", func(t *testing.T) {
		body := marchallObj(t, notification.Event{
			Type: notification.TypeMessage, Title: "hi", Message: "hello",
			Recipients: []notification.Recipient{{ID: "s2", Type: core.ActorStudent}},
		})
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", studentToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("fan out to a class roster", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"type":     notification.TypeAnnouncement,
			"title":    "School closed Friday",
			"message":  "Teacher training day, no classes.",
			"class_id": "c1",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want 201; body: %s", rec.Code, rec.Body.String())
		}
		var res struct {
			Notified int `json:"notified"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if res.Notified != 2 { // one copy per enrolled student
			t.Errorf("notified = %d; want 2", res.Notified)
		}
	})

	t.Run("fan out without recipients fails", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"type": notification.TypeMessage, "title": "hi", "message": "hello",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("fan out to an unknown class fails", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"type": notification.TypeMessage, "title": "hi", "message": "hello", "class_id": "nope",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/notifications", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})

	var own []notification.Notification
	t.Run("own list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Notifications []notification.Notification `json:"notifications"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		own = resp.Notifications
		if len(own) != 1 {
			t.Fatalf("got %d notifications; want 1", len(own))
		}
		if own[0].RecipientID != studentActor.ID {
			t.Errorf("RecipientID = %q; want %q", own[0].RecipientID, studentActor.ID)
		}
		if own[0].SenderID != teacherActor.ID {
			t.Errorf("SenderID = %q; want %q", own[0].SenderID, teacherActor.ID)
		}
	})

	t.Run("unread count and mark read", func(t *testing.T) {
		count := func() int {
			req, rec := newAuthRequest(http.MethodGet, "/v1/notifications/unread-count", studentToken)
			env.server.ServeHTTP(rec, req)
			var res struct {
				UnreadCount int `json:"unread_count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshalling response: %v", err)
			}
			return res.UnreadCount
		}

		if got := count(); got != 1 {
			t.Errorf("unread = %d; want 1", got)
		}

		req, rec := newAuthRequest(http.MethodPatch, "/v1/notifications/"+own[0].ID+"/read", studentToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}
		if got := count(); got != 0 {
			t.Errorf("unread = %d; want 0", got)
		}
	})

	t.Run("cannot touch another recipient's copy", func(t *testing.T) {
		// the teacher is not the recipient of this copy
		req, rec := newAuthRequest(http.MethodPatch, "/v1/notifications/"+own[0].ID+"/read", teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("mark all read", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/v1/notifications/read-all", studentToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("soft delete own copy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/notifications/"+own[0].ID, studentToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}

		// gone from the list, and gone for good
		req, rec = newAuthRequest(http.MethodGet, "/v1/notifications", studentToken)
		env.server.ServeHTTP(rec, req)
		var resp struct {
			Notifications []notification.Notification `json:"notifications"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(resp.Notifications) != 0 {
			t.Errorf("got %d notifications; want 0 after delete", len(resp.Notifications))
		}

		req, rec = newAuthRequest(http.MethodDelete, "/v1/notifications/"+own[0].ID, studentToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestRosterAPI(t *testing.T) {
	env := setup(t)
	testutil.CreateClass(t, env.rosterRepo, "c1", "Form 4 Math", "Mathematics", teacherActor.ID, "s2", "s1")

	teacherToken := getToken(t, teacherActor)
	studentToken := getToken(t, studentActor)

	t.Run("students cannot read rosters", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/c1/roster", studentToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("roster", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/c1/roster", teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Class struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"class"`
			StudentIDs []string `json:"student_ids"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if resp.Class.Name != "Form 4 Math" {
			t.Errorf("class name = %q; want Form 4 Math", resp.Class.Name)
		}
		if len(resp.StudentIDs) != 2 || resp.StudentIDs[0] != "s1" || resp.StudentIDs[1] != "s2" {
			t.Errorf("student ids = %v; want [s1 s2] (ordered)", resp.StudentIDs)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/nope/roster", teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})
}
