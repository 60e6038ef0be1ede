package tests

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
	"github.com/iatic/ecole/core/note"
	sqlxrepos "github.com/iatic/ecole/storage/database/sqlx"
	testutil "github.com/iatic/ecole/tests"
)

func addNote(t *testing.T, token string, studentID int64, value float64, class string) note.Note {
	t.Helper()
	body := []byte(fmt.Sprintf(`{"studentId":%d,"value":%v,"class":%q}`, studentID, value, class))
	rec := do(http.MethodPost, "/api/notes", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Message string    `json:"message"`
		Note    note.Note `json:"note"`
	}
	unmarshal(t, rec, &resp)
	return resp.Note
}

func Test_noteApi_create(t *testing.T) {
	testutil.ResetDB(t, db)
	student := testutil.CreateUser(t, usrRepo, "eleve@test.cd", "Eleve", testPwd, access.RoleStudent, "IATIC3")
	teacher := testutil.CreateUser(t, usrRepo, "prof@test.cd", "Prof", testPwd, access.RoleTeacher, "")
	token := getToken(t, teacher)

	body := func(studentID int64, value, class string) []byte {
		return []byte(fmt.Sprintf(`{"studentId":%d,"value":%s,"class":%q}`, studentID, value, class))
	}
	outOfRange := marchallObj(t, httpErr{Message: "La note doit être comprise entre 0 et 20"})

	runHTTPTests(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/api/notes", body: body(student.ID, "12", "IATIC3"), wantCode: http.StatusUnauthorized},
		{
			name: "teacher required", method: http.MethodPost, path: "/api/notes", token: getToken(t, student),
			body: body(student.ID, "12", "IATIC3"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "value too high", method: http.MethodPost, path: "/api/notes", token: token, body: body(student.ID, "25", "IATIC3"), wantCode: http.StatusBadRequest, wantData: outOfRange},
		{name: "negative value", method: http.MethodPost, path: "/api/notes", token: token, body: body(student.ID, "-1", "IATIC3"), wantCode: http.StatusBadRequest, wantData: outOfRange},
		{name: "invalid class", method: http.MethodPost, path: "/api/notes", token: token, body: body(student.ID, "12", "IATIC9"), wantCode: http.StatusBadRequest},
		{
			name: "missing value", method: http.MethodPost, path: "/api/notes", token: token,
			body: []byte(fmt.Sprintf(`{"studentId":%d,"class":"IATIC3"}`, student.ID)), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown student", method: http.MethodPost, path: "/api/notes", token: token, body: body(student.ID+100, "12", "IATIC3"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Étudiant non trouvé"}),
		},
		{
			name: "student of another class", method: http.MethodPost, path: "/api/notes", token: token, body: body(student.ID, "12", "IATIC4"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Message: "Étudiant non trouvé"}),
		},
		{
			name: "teacher is not a student", method: http.MethodPost, path: "/api/notes", token: token, body: body(teacher.ID, "12", "IATIC3"),
			wantCode: http.StatusNotFound,
		},
	})
	assert.Zero(t, countRows(t, "SELECT COUNT(*) FROM notes"), "rejected notes must not be stored")

	t.Run("bounds are accepted", func(t *testing.T) {
		for _, v := range []float64{0, 20, 13.5} {
			n := addNote(t, token, student.ID, v, "IATIC3")
			assert.Equal(t, v, n.Value)
			assert.Equal(t, teacher.ID, n.TeacherID)
			assert.Equal(t, student.ID, n.StudentID)
		}
		assert.Equal(t, 3, countRows(t, "SELECT COUNT(*) FROM notes WHERE student_id = ?", student.ID))
	})
}

func Test_noteApi_destroy(t *testing.T) {
	testutil.ResetDB(t, db)
	student := testutil.CreateUser(t, usrRepo, "eleve@test.cd", "Eleve", testPwd, access.RoleStudent, "IATIC3")
	owner := testutil.CreateUser(t, usrRepo, "prof@test.cd", "Prof", testPwd, access.RoleTeacher, "")
	other := testutil.CreateUser(t, usrRepo, "prof2@test.cd", "Autre", testPwd, access.RoleTeacher, "")
	n := addNote(t, getToken(t, owner), student.ID, 14, "IATIC3")

	path := "/api/notes/" + strconv.FormatInt(n.ID, 10)
	notFound := marchallObj(t, httpErr{Message: "Note non trouvée"})
	noteRepo := sqlxrepos.NewNoteRepository(db)

	runHTTPTests(t, []httpTest{
		{name: "teacher required", method: http.MethodDelete, path: path, token: getToken(t, student), wantCode: http.StatusForbidden},
		{name: "not the owner", method: http.MethodDelete, path: path, token: getToken(t, other), wantCode: http.StatusNotFound, wantData: notFound},
	})
	_, err := noteRepo.GetNote(context.Background(), n.ID)
	require.NoError(t, err, "a foreign teacher must not delete the note")

	runHTTPTests(t, []httpTest{
		{name: "owner deletes", method: http.MethodDelete, path: path, token: getToken(t, owner), wantCode: http.StatusOK, wantData: marchallObj(t, httpMsg{Message: "Note supprimée avec succès"})},
		{name: "already deleted", method: http.MethodDelete, path: path, token: getToken(t, owner), wantCode: http.StatusNotFound, wantData: notFound},
	})
	_, err = noteRepo.GetNote(context.Background(), n.ID)
	assert.True(t, core.IsNotFoundError(err))
}

func Test_noteApi_student(t *testing.T) {
	testutil.ResetDB(t, db)
	student := testutil.CreateUser(t, usrRepo, "eleve@test.cd", "Eleve", testPwd, access.RoleStudent, "IATIC3")
	other := testutil.CreateUser(t, usrRepo, "autre@test.cd", "Autre", testPwd, access.RoleStudent, "IATIC3")
	maths := testutil.CreateUser(t, usrRepo, "maths@test.cd", "Pythagore", testPwd, access.RoleTeacher, "")
	testutil.CreateSubject(t, usrRepo, &maths, "Maths")
	physics := testutil.CreateUser(t, usrRepo, "physique@test.cd", "Newton", testPwd, access.RoleTeacher, "")
	testutil.CreateSubject(t, usrRepo, &physics, "Physique")

	for _, v := range []float64{12, 16, 20} {
		addNote(t, getToken(t, maths), student.ID, v, "IATIC3")
	}
	addNote(t, getToken(t, physics), student.ID, 9, "IATIC3")
	addNote(t, getToken(t, physics), other.ID, 2, "IATIC3")

	runHTTPTests(t, []httpTest{
		{name: "auth required", path: "/api/notes/student", wantCode: http.StatusUnauthorized},
		{name: "student required", path: "/api/notes/student", token: getToken(t, maths), wantCode: http.StatusForbidden},
	})

	token := getToken(t, student)
	var first note.StudentNotes
	t.Run("own notes with subject averages", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/notes/student", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &first)

		require.Len(t, first.Notes, 4)
		assert.Equal(t, 9.0, first.Notes[0].Value, "newest first")
		assert.Equal(t, "Physique", first.Notes[0].Subject.String)
		assert.Equal(t, "Newton", first.Notes[0].TeacherName)
		for _, n := range first.Notes {
			assert.Equal(t, student.ID, n.StudentID)
		}

		require.Len(t, first.Averages, 2)
		assert.Equal(t, "Maths", first.Averages[0].Subject.String)
		assert.Equal(t, 16.0, first.Averages[0].Average)
		assert.Equal(t, "Physique", first.Averages[1].Subject.String)
		assert.Equal(t, 9.0, first.Averages[1].Average)
	})

	t.Run("listing is idempotent", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/notes/student", token)
		require.Equal(t, http.StatusOK, rec.Code)
		ok, err := jsonBytesEqual(rec.Body.Bytes(), marchallObj(t, first))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no notes", func(t *testing.T) {
		lonely := testutil.CreateUser(t, usrRepo, "seul@test.cd", "Seul", testPwd, access.RoleStudent, "IATIC5")
		rec := do(http.MethodGet, "/api/notes/student", getToken(t, lonely))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"notes":[],"averages":[]}`, rec.Body.String())
	})
}

func Test_noteApi_teacher(t *testing.T) {
	testutil.ResetDB(t, db)
	bob := testutil.CreateUser(t, usrRepo, "bob@test.cd", "Bob", testPwd, access.RoleStudent, "IATIC3")
	alice := testutil.CreateUser(t, usrRepo, "alice@test.cd", "Alice", testPwd, access.RoleStudent, "IATIC3")
	carl := testutil.CreateUser(t, usrRepo, "carl@test.cd", "Carl", testPwd, access.RoleStudent, "IATIC4")
	teacher := testutil.CreateUser(t, usrRepo, "prof@test.cd", "Prof", testPwd, access.RoleTeacher, "")
	other := testutil.CreateUser(t, usrRepo, "prof2@test.cd", "Autre", testPwd, access.RoleTeacher, "")
	token := getToken(t, teacher)

	addNote(t, token, bob.ID, 10, "IATIC3")
	addNote(t, token, alice.ID, 15, "IATIC3")
	addNote(t, token, bob.ID, 14, "IATIC3")
	addNote(t, token, carl.ID, 8, "IATIC4")
	addNote(t, getToken(t, other), alice.ID, 1, "IATIC3")

	runHTTPTests(t, []httpTest{
		{name: "teacher required", path: "/api/notes/teacher/IATIC3", token: getToken(t, bob), wantCode: http.StatusForbidden},
		{name: "unknown class is empty", path: "/api/notes/teacher/IATIC9", token: token, wantCode: http.StatusOK, wantData: []byte(`{"notes":[],"averages":[]}`)},
	})

	rec := do(http.MethodGet, "/api/notes/teacher/IATIC3", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp note.ClassNotes
	unmarshal(t, rec, &resp)

	require.Len(t, resp.Notes, 3, "only this teacher's notes of this class")
	assert.Equal(t, "Alice", resp.Notes[0].StudentName)
	assert.Equal(t, "Bob", resp.Notes[1].StudentName)
	assert.Equal(t, 14.0, resp.Notes[1].Value, "newest first per student")
	assert.Equal(t, []note.StudentAverage{
		{StudentID: alice.ID, StudentName: "Alice", Average: 15},
		{StudentID: bob.ID, StudentName: "Bob", Average: 12},
	}, resp.Averages)
}

