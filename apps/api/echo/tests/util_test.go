package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	. "github.com/trezcool/classbook/apps/api/echo"
	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/attendance"
	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/grade"
	"github.com/trezcool/classbook/core/report"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/storage/database/sqlxrepos"
	"github.com/trezcool/classbook/tests"
)

const goodPwd = "Zq8!vLmx2k"

type fixture struct {
	app  *Server
	db   *sqlx.DB
	conf *core.Config
}

func setup(t *testing.T) fixture {
	conf := &core.Config{
		AppName:   "Classbook",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}

	// set up DB & services
	db := testutil.PrepareDB(t)
	logger := testutil.NewLogger()
	crsSvc := course.NewService(sqlxrepos.NewCourseRepository())
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(), crsSvc)
	attSvc := attendance.NewService(sqlxrepos.NewAttendanceRepository(), crsSvc)
	gradSvc := grade.NewService(sqlxrepos.NewGradeRepository(), crsSvc, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up server
	app := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		DB:             db,
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		CourseSvc:      crsSvc,
		AttendanceSvc:  attSvc,
		GradeSvc:       gradSvc,
		ReportSvc:      report.NewService(crsSvc, gradSvc, attSvc),
		Validate:       validate,
		Translator:     translator,
	})
	return fixture{app: app, db: db, conf: conf}
}

func setToday(t *testing.T, today time.Time) {
	core.NowFunc = func() time.Time { return today }
	t.Cleanup(func() { core.NowFunc = time.Now })
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	form     url.Values
	body     []byte
	token    string
	wantCode int
	wantData []byte
	wantLoc  string
}

func (fx fixture) getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, fx.conf), fx.conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (fx fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fx.app.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) *http.Request {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	return req
}

func newFormRequest(method, path, token string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
	}
	return req
}

func (tt httpTest) request() *http.Request {
	if tt.form != nil {
		return newFormRequest(tt.method, tt.path, tt.token, tt.form)
	}
	return newAuthRequest(tt.method, tt.path, tt.token, tt.body)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkResponse checks the code then, when wanted, the redirect location or the JSON data.
func checkResponse(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantLoc != "" {
		if loc := rec.Header().Get(echo.HeaderLocation); loc != tt.wantLoc {
			t.Errorf("failed! location = %v; wantLoc %v", loc, tt.wantLoc)
		}
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, fx fixture, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		t.Run(tt.name, func(t *testing.T) {
			checkResponse(t, tt, fx.do(tt.request()))
		})
	}
}
