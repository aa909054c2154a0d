package tests

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/classbook/core/course"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/tests"
)

func Test_adminApi_dashboard(t *testing.T) {
	fx := setup(t)
	setToday(t, time.Date(2024, time.January, 3, 10, 0, 0, 0, time.UTC))

	admin := testutil.CreateUser(t, fx.db, "boss", goodPwd, user.RoleAdmin)
	teacher := testutil.CreateUser(t, fx.db, "teach", goodPwd, user.RoleTeacher)
	math := testutil.CreateCourse(t, fx.db, "Math101", 2024)
	art := testutil.CreateCourse(t, fx.db, "Art", 2024)
	std := testutil.CreateStudent(t, fx.db, math.ID, "Jane", "Doe")
	testutil.Assign(t, fx.db, teacher.ID, math.ID)

	runHTTPTests(t, fx, []httpTest{
		{
			name: "dashboard", path: "/admin", token: fx.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"courses": []course.Course{art, math},
				"teachers": []course.TeacherCourses{{
					TeacherID: teacher.ID,
					Username:  teacher.Username,
					FirstName: teacher.FirstName,
					LastName:  teacher.LastName,
					Courses:   []course.Course{math},
				}},
				"students": []course.CourseStudents{
					{Course: art, Students: []course.Student{}},
					{Course: math, Students: []course.Student{std}},
				},
				"week_start": "2024-01-01",
			}),
		},
	})
}

func Test_adminApi_courses(t *testing.T) {
	fx := setup(t)
	token := fx.getToken(t, testutil.CreateUser(t, fx.db, "boss", goodPwd, user.RoleAdmin))
	math := testutil.CreateCourse(t, fx.db, "Math101", 2024)
	testutil.CreateStudent(t, fx.db, math.ID, "Jane", "Doe")

	required := "this field is required"
	runHTTPTests(t, fx, []httpTest{
		{
			name: "create (json)", method: http.MethodPost, path: "/admin/courses", token: token,
			body: []byte(`{"name": " Bio ", "year": 2024}`), wantCode: http.StatusCreated,
			wantData: marchallObj(t, course.Course{ID: math.ID + 1, Name: "Bio", Year: 2024}),
		},
		{
			name: "create (form)", method: http.MethodPost, path: "/admin/courses", token: token,
			form: url.Values{"name": {"Chem"}, "year": {"2023"}}, wantCode: http.StatusCreated,
			wantData: marchallObj(t, course.Course{ID: math.ID + 2, Name: "Chem", Year: 2023}),
		},
		{
			name: "create (invalid)", method: http.MethodPost, path: "/admin/courses", token: token,
			body: []byte(`{"name": "   "}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": required, "year": required}),
		},
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/admin/courses/%d", math.ID), token: token, wantCode: http.StatusNoContent},
		{name: "delete (gone)", method: http.MethodDelete, path: fmt.Sprintf("/admin/courses/%d", math.ID), token: token, wantCode: http.StatusNotFound},
		{name: "delete (bad id)", method: http.MethodDelete, path: "/admin/courses/abc", token: token, wantCode: http.StatusNotFound},
	})
	assert.Equal(t, 0, testutil.CountRows(t, fx.db, "students"), "students go with their course")

	rec := fx.do(newAuthRequest(http.MethodDelete, fmt.Sprintf("/admin/courses/%d", math.ID), token))
	assert.Equal(t, "course not found", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func Test_adminApi_teachers(t *testing.T) {
	fx := setup(t)
	token := fx.getToken(t, testutil.CreateUser(t, fx.db, "boss", goodPwd, user.RoleAdmin))
	math := testutil.CreateCourse(t, fx.db, "Math101", 2024)
	bio := testutil.CreateCourse(t, fx.db, "Bio", 2024)

	form := func(uname, pwd string, courseID int) url.Values {
		return url.Values{
			"username":   {uname},
			"first_name": {"John"},
			"last_name":  {"Doe"},
			"password":   {pwd},
			"profile":    {"Algebra"},
			"course_id":  {strconv.Itoa(courseID)},
		}
	}
	jdoe := user.User{ID: 2, Username: "jdoe", FirstName: "John", LastName: "Doe", Role: user.RoleTeacher, Profile: "Algebra"}

	runHTTPTests(t, fx, []httpTest{
		{
			name: "create", method: http.MethodPost, path: "/admin/teachers", token: token,
			form: form("JDoe", goodPwd, math.ID), wantCode: http.StatusCreated, wantData: marchallObj(t, jdoe),
		},
		{
			name: "reuse existing username", method: http.MethodPost, path: "/admin/teachers", token: token,
			form: form("jdoe", goodPwd, bio.ID), wantCode: http.StatusCreated, wantData: marchallObj(t, jdoe),
		},
		{
			name: "weak password", method: http.MethodPost, path: "/admin/teachers", token: token,
			form: form("other", "short", math.ID), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"password": "password must contain at least 8 characters"}),
		},
		{
			name: "unknown course", method: http.MethodPost, path: "/admin/teachers", token: token,
			form: form("other", goodPwd, 404), wantCode: http.StatusNotFound,
		},
	})
	assert.Equal(t, 2, testutil.CountRows(t, fx.db, "teacher_courses"))
	assert.Equal(t, 2, testutil.CountRows(t, fx.db, "users"))

	runHTTPTests(t, fx, []httpTest{
		{name: "delete admin", method: http.MethodDelete, path: "/admin/teachers/1", token: token, wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: "/admin/teachers/2", token: token, wantCode: http.StatusNoContent},
		{name: "delete (gone)", method: http.MethodDelete, path: "/admin/teachers/2", token: token, wantCode: http.StatusNotFound},
	})
	assert.Equal(t, 0, testutil.CountRows(t, fx.db, "teacher_courses"))
}

func Test_adminApi_students(t *testing.T) {
	fx := setup(t)
	token := fx.getToken(t, testutil.CreateUser(t, fx.db, "boss", goodPwd, user.RoleAdmin))
	math := testutil.CreateCourse(t, fx.db, "Math101", 2024)

	runHTTPTests(t, fx, []httpTest{
		{
			name: "create", method: http.MethodPost, path: "/admin/students", token: token,
			form:     url.Values{"first_name": {"Jane"}, "last_name": {"Doe"}, "course_id": {strconv.Itoa(math.ID)}},
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, course.Student{ID: 1, FirstName: "Jane", LastName: "Doe"}),
		},
		{
			name: "create (no course)", method: http.MethodPost, path: "/admin/students", token: token,
			form:     url.Values{"first_name": {"Al"}, "last_name": {"Smith"}},
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"course_id": "this field is required"}),
		},
		{
			name: "create (unknown course)", method: http.MethodPost, path: "/admin/students", token: token,
			form:     url.Values{"first_name": {"Al"}, "last_name": {"Smith"}, "course_id": {"404"}},
			wantCode: http.StatusNotFound,
		},
		{name: "delete", method: http.MethodDelete, path: "/admin/students/1", token: token, wantCode: http.StatusNoContent},
		{name: "delete (gone)", method: http.MethodDelete, path: "/admin/students/1", token: token, wantCode: http.StatusNotFound},
	})
	assert.Equal(t, 0, testutil.CountRows(t, fx.db, "students"))
}
