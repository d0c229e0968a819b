package user

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func makeAppWithUserHandler(seed ...User) (*fiber.App, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := NewHandler(NewService(repo), logger)

	app := fiber.New()
	handler.RegisterPublicRoutes(app)
	handler.RegisterProtectedRoutes(app)
	return app, repo
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(res.Body)
	return res, string(b)
}

func TestUserRoutes_Registered(t *testing.T) {
	app, _ := makeAppWithUserHandler()

	routes := map[string]bool{}
	for _, grp := range app.Stack() {
		for _, r := range grp {
			routes[r.Method+" "+r.Path] = true
		}
	}
	for _, want := range []string{
		"GET /api/v1/users",
		"GET /api/v1/users/:userUid",
		"POST /api/v1/users",
		"PUT /api/v1/users",
		"DELETE /api/v1/users/:userUid",
	} {
		if !routes[want] {
			t.Fatalf("expected route %q to be registered", want)
		}
	}
}

func TestFetchUsers_FilterByGender(t *testing.T) {
	joe := WithUID(uuid.New(), joeJones())
	anna := annaMontana()
	app, _ := makeAppWithUserHandler(joe, anna)

	res, body := doJSON(t, app, "GET", "/api/v1/users?gender=female", "")
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, body)
	}
	var users []Response
	if err := json.Unmarshal([]byte(body), &users); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(users) != 1 || users[0].UID != anna.UID {
		t.Fatalf("expected only anna, got %+v", users)
	}
	if users[0].FullName != "Anna Montana" {
		t.Fatalf("expected fullName in response, got %q", users[0].FullName)
	}

	res, body = doJSON(t, app, "GET", "/api/v1/users", "")
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if !strings.Contains(body, joe.UID.String()) || !strings.Contains(body, anna.UID.String()) {
		t.Fatalf("unfiltered list should contain both users: %s", body)
	}
}

func TestFetchUsers_InvalidGender(t *testing.T) {
	app, _ := makeAppWithUserHandler(WithUID(uuid.New(), joeJones()))

	res, body := doJSON(t, app, "GET", "/api/v1/users?gender=robot", "")
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for invalid gender, got %d", res.StatusCode)
	}
	if !strings.Contains(body, "invalid gender") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestFetchUser_NotFoundAndBadID(t *testing.T) {
	app, _ := makeAppWithUserHandler()

	id := uuid.NewString()
	res, body := doJSON(t, app, "GET", "/api/v1/users/"+id, "")
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.StatusCode)
	}
	if !strings.Contains(body, `"message":"user `+id+` was not found."`) {
		t.Fatalf("unexpected body: %s", body)
	}

	res, _ = doJSON(t, app, "GET", "/api/v1/users/not-a-uuid", "")
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", res.StatusCode)
	}
}

func TestInsertFetchDeleteScenario(t *testing.T) {
	app, _ := makeAppWithUserHandler()

	res, body := doJSON(t, app, "POST", "/api/v1/users",
		`{"firstName":"Joe","lastName":"Jones","gender":"MALE","age":22,"email":"example@gmail.com"}`)
	if res.StatusCode != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.StatusCode, body)
	}
	var created Response
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if created.UID == uuid.Nil {
		t.Fatalf("expected a minted userUid, got %s", body)
	}
	if loc := res.Header.Get("Location"); loc != "/api/v1/users/"+created.UID.String() {
		t.Fatalf("unexpected Location header %q", loc)
	}

	res, body = doJSON(t, app, "GET", "/api/v1/users/"+created.UID.String(), "")
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	var fetched Response
	if err := json.Unmarshal([]byte(body), &fetched); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if fetched != created {
		t.Fatalf("fetched user %+v differs from created %+v", fetched, created)
	}

	res, _ = doJSON(t, app, "DELETE", "/api/v1/users/"+created.UID.String(), "")
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", res.StatusCode)
	}

	res, _ = doJSON(t, app, "GET", "/api/v1/users/"+created.UID.String(), "")
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.StatusCode)
	}

	res, _ = doJSON(t, app, "DELETE", "/api/v1/users/"+created.UID.String(), "")
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", res.StatusCode)
	}
}

func TestInsertUser_Validation(t *testing.T) {
	app, repo := makeAppWithUserHandler()

	cases := map[string]string{
		"age":       `{"firstName":"Joe","lastName":"Jones","gender":"MALE","email":"example@gmail.com"}`,
		"email":     `{"firstName":"Joe","lastName":"Jones","gender":"MALE","age":22,"email":"nope"}`,
		"gender":    `{"firstName":"Joe","lastName":"Jones","gender":"male","age":22,"email":"example@gmail.com"}`,
		"firstName": `{"lastName":"Jones","gender":"MALE","age":22,"email":"example@gmail.com"}`,
	}
	for field, payload := range cases {
		res, body := doJSON(t, app, "POST", "/api/v1/users", payload)
		if res.StatusCode != fiber.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", field, res.StatusCode)
		}
		if !strings.Contains(body, `"`+field+`"`) {
			t.Fatalf("%s: expected field error in body, got %s", field, body)
		}
	}

	res, _ := doJSON(t, app, "POST", "/api/v1/users", `{"firstName":`)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", res.StatusCode)
	}

	users, _ := repo.SelectAll(context.Background())
	if len(users) != 0 {
		t.Fatalf("invalid payloads must not be stored, got %d users", len(users))
	}
}

func TestInsertUser_DuplicateID(t *testing.T) {
	joe := WithUID(uuid.New(), joeJones())
	app, _ := makeAppWithUserHandler(joe)

	payload := `{"userUid":"` + joe.UID.String() + `","firstName":"Joe","lastName":"Jones","gender":"MALE","age":22,"email":"example@gmail.com"}`
	res, body := doJSON(t, app, "POST", "/api/v1/users", payload)
	if res.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate id, got %d: %s", res.StatusCode, body)
	}
}

func TestUpdateUser(t *testing.T) {
	joe := WithUID(uuid.New(), joeJones())
	app, repo := makeAppWithUserHandler(joe)

	payload := `{"userUid":"` + joe.UID.String() + `","firstName":"Alex","lastName":"Jones","gender":"MALE","age":55,"email":"alex@gmail.com"}`
	res, body := doJSON(t, app, "PUT", "/api/v1/users", payload)
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.StatusCode, body)
	}

	stored, ok, _ := repo.SelectByID(context.Background(), joe.UID)
	if !ok || stored.FirstName != "Alex" || stored.Age != 55 || stored.Email != "alex@gmail.com" {
		t.Fatalf("update not persisted: %+v", stored)
	}

	unknown := `{"userUid":"` + uuid.NewString() + `","firstName":"Alex","lastName":"Jones","gender":"MALE","age":55,"email":"alex@gmail.com"}`
	res, _ = doJSON(t, app, "PUT", "/api/v1/users", unknown)
	if res.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", res.StatusCode)
	}

	noID := `{"firstName":"Alex","lastName":"Jones","gender":"MALE","age":55,"email":"alex@gmail.com"}`
	res, body = doJSON(t, app, "PUT", "/api/v1/users", noID)
	if res.StatusCode != fiber.StatusBadRequest || !strings.Contains(body, "userUid") {
		t.Fatalf("expected 400 naming userUid, got %d: %s", res.StatusCode, body)
	}
}
