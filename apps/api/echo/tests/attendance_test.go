package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/attendance"
	testutil "github.com/trezcool/darasa/tests"
)

func TestAttendanceAPI(t *testing.T) {
	env := setup(t)
	testutil.CreateClass(t, env.rosterRepo, "c1", "Form 4 Math", "Mathematics", teacherActor.ID, "s1", "s2", "s3")

	teacherToken := getToken(t, teacherActor)
	studentToken := getToken(t, studentActor)

	markBody := marchallObj(t, attendance.NewRecord{
		StudentID:   "s1",
		ClassID:     "c1",
		SessionDate: "2026-03-02",
		Status:      attendance.StatusPresent,
	})

	t.Run("mark requires authentication", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/attendance", body: markBody,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		}
		req, rec := newRequest(tt.method, tt.path, tt.body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("students cannot mark", func(t *testing.T) {
		tt := httpTest{
			method: http.MethodPost, path: "/v1/attendance", body: markBody, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		}
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	var marked attendance.Record
	t.Run("mark", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", teacherToken, markBody)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want 201; body: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &marked); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if marked.MarkedBy != teacherActor.ID {
			t.Errorf("MarkedBy = %q; want the acting teacher %q", marked.MarkedBy, teacherActor.ID)
		}
	})

	t.Run("duplicate mark conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", teacherToken, markBody)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Errorf("code = %v; want 409; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		body := marchallObj(t, attendance.NewRecord{
			StudentID: "s1", ClassID: "c1", SessionDate: "2026-03-02", Status: "chilling",
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bulk mark and retry", func(t *testing.T) {
		body := marchallObj(t, attendance.BulkRecords{
			ClassID:     "c1",
			SessionDate: "2026-03-03",
			Rows: []attendance.BulkRow{
				{StudentID: "s1", Status: attendance.StatusPresent},
				{StudentID: "s2", Status: attendance.StatusAbsent},
				{StudentID: "s3", Status: attendance.StatusLate},
			},
		})

		tt := httpTest{
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, attendance.BulkResult{Created: 3}),
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		// same batch again replaces in place
		tt.wantData = marchallObj(t, attendance.BulkResult{Updated: 3})
		req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/bulk", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("bulk mark unknown class", func(t *testing.T) {
		body := marchallObj(t, attendance.BulkRecords{
			ClassID:     "nope",
			SessionDate: "2026-03-03",
			Rows:        []attendance.BulkRow{{StudentID: "s1", Status: attendance.StatusPresent}},
		})
		req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/bulk", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("students are scoped to their own records", func(t *testing.T) {
		// s1 tries to peek at s2
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance?student_id=s2", studentToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Records    []attendance.Record   `json:"records"`
			Statistics attendance.Statistics `json:"statistics"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		for _, r := range resp.Records {
			if r.StudentID != studentActor.ID {
				t.Errorf("leaked record for student %q", r.StudentID)
			}
		}
		// s1: present on 03-02 and 03-03
		if resp.Statistics.TotalDays != 2 || resp.Statistics.AttendancePercentage != 100 {
			t.Errorf("statistics = %+v; want 2 days at 100%%", resp.Statistics)
		}
		// enrichment is on
		if len(resp.Records) > 0 && resp.Records[0].ClassName != "Form 4 Math" {
			t.Errorf("ClassName = %q; want Form 4 Math", resp.Records[0].ClassName)
		}
	})

	t.Run("staff filter by class and date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/attendance?class_id=c1&date=2026-03-03", teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Records []attendance.Record `json:"records"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if len(resp.Records) != 3 {
			t.Errorf("got %d records; want 3", len(resp.Records))
		}

		// malformed date param
		req, rec = newAuthRequest(http.MethodGet, "/v1/attendance?date=03/02/2026", teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want 400; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("update", func(t *testing.T) {
		// admins may correct records too
		adminToken := getToken(t, adminActor)
		body := marchallObj(t, attendance.UpdateRecord{Status: attendance.StatusLate, Remarks: "bus broke down"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/attendance/"+marked.ID, adminToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}
		var updated attendance.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if updated.Status != attendance.StatusLate {
			t.Errorf("Status = %q; want %q", updated.Status, attendance.StatusLate)
		}

		req, rec = newAuthRequest(http.MethodPut, "/v1/attendance/nope", teacherToken, body)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("delete", func(t *testing.T) {
		path := fmt.Sprintf("/v1/attendance/%s", marked.ID)
		req, rec := newAuthRequest(http.MethodDelete, path, teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want 200; body: %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodDelete, path, teacherToken)
		env.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want 404; body: %s", rec.Code, rec.Body.String())
		}
	})
}
