package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/notification"
	"github.com/trezcool/darasa/core/roster"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	testutil "github.com/trezcool/darasa/tests"
)

var (
	conf = testutil.NewConfig()

	teacherActor = core.Actor{ID: "t1", Type: core.ActorTeacher, Name: "Mr. Kabongo"}
	adminActor   = core.Actor{ID: "a1", Type: core.ActorAdmin, Name: "Head"}
	studentActor = core.Actor{ID: "s1", Type: core.ActorStudent, Name: "Junior"}

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testEnv struct {
	server *Server

	rosterRepo      testutil.ClassSeeder
	attendanceSvc   *attendance.Service
	gradeSvc        *grade.Service
	notificationSvc *notification.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	rosterRepo := inmemdb.NewRosterRepository(db)

	// set up services
	logger := testutil.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	rosterSvc := roster.NewService(rosterRepo)
	attendanceSvc := attendance.NewService(inmemdb.NewAttendanceRepository(db), rosterSvc, logger)
	gradeSvc := grade.NewService(inmemdb.NewGradeRepository(db), rosterSvc, logger)
	notificationSvc := notification.NewService(inmemdb.NewNotificationRepository(db), mailSvc, logger)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	grade.InitValidators(validate, translator)

	// set up server
	server := NewServer(
		ServerDeps{
			Conf:            conf,
			Logger:          logger,
			RosterSvc:       rosterSvc,
			AttendanceSvc:   attendanceSvc,
			GradeSvc:        gradeSvc,
			NotificationSvc: notificationSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	return &testEnv{
		server:          server,
		rosterRepo:      rosterRepo,
		attendanceSvc:   attendanceSvc,
		gradeSvc:        gradeSvc,
		notificationSvc: notificationSvc,
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, actor core.Actor) string {
	t.Helper()

	claims := GetActorClaims(conf, actor)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func jsonDiff(b1, b2 []byte) string {
	var buf1, buf2 bytes.Buffer
	_ = json.Indent(&buf1, b1, "", "  ")
	_ = json.Indent(&buf2, b2, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(buf1.String()),
		B:        difflib.SplitLines(buf2.String()),
		FromFile: "got",
		ToFile:   "want",
		Context:  2,
	})
	return diff
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data mismatch:\n%s", jsonDiff(rec.Body.Bytes(), tt.wantData))
	}
}
