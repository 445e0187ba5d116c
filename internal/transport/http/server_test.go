package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"photovault/internal/domain/models"
	"photovault/internal/transport/http/dto/response"

	personsvc "photovault/internal/services/person_service"
	photosvc "photovault/internal/services/photo_service"
	usersvc "photovault/internal/services/user_service"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in usersvc.RegisterInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, identifier, password string) (models.User, error) {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) IssueRememberToken(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) ValidateRememberToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenService) RevokeUserTokens(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockPhotoService struct {
	mock.Mock
}

func (m *MockPhotoService) UploadBatch(ctx context.Context, userID int64, files []*multipart.FileHeader, stopOnError bool) ([]models.Photo, []photosvc.FileError, error) {
	args := m.Called(ctx, userID, files, stopOnError)
	var photos []models.Photo
	if args.Get(0) != nil {
		photos = args.Get(0).([]models.Photo)
	}
	var fileErrors []photosvc.FileError
	if args.Get(1) != nil {
		fileErrors = args.Get(1).([]photosvc.FileError)
	}
	return photos, fileErrors, args.Error(2)
}

func (m *MockPhotoService) ListPage(ctx context.Context, userID int64, page int) ([]models.Photo, int64, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]models.Photo), args.Get(1).(int64), args.Error(2)
}

func (m *MockPhotoService) GetOwned(ctx context.Context, userID, photoID int64) (models.Photo, error) {
	args := m.Called(ctx, userID, photoID)
	return args.Get(0).(models.Photo), args.Error(1)
}

func (m *MockPhotoService) Rename(ctx context.Context, userID, photoID int64, newName string) error {
	args := m.Called(ctx, userID, photoID, newName)
	return args.Error(0)
}

func (m *MockPhotoService) Dashboard(ctx context.Context, user models.User) (photosvc.DashboardData, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(photosvc.DashboardData), args.Error(1)
}

func (m *MockPhotoService) ProfileStats(ctx context.Context, user models.User) (models.StorageStats, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(models.StorageStats), args.Error(1)
}

func (m *MockPhotoService) PerPage() int { return 20 }

type MockPersonService struct {
	mock.Mock
}

func (m *MockPersonService) Add(ctx context.Context, userID int64, in personsvc.PersonInput) (int64, error) {
	args := m.Called(ctx, userID, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPersonService) Update(ctx context.Context, userID, personID int64, in personsvc.PersonInput) error {
	args := m.Called(ctx, userID, personID, in)
	return args.Error(0)
}

func (m *MockPersonService) GetOwned(ctx context.Context, userID, personID int64) (models.Person, error) {
	args := m.Called(ctx, userID, personID)
	return args.Get(0).(models.Person), args.Error(1)
}

func (m *MockPersonService) ListPage(ctx context.Context, userID int64, page int) ([]models.PersonWithCount, int64, error) {
	args := m.Called(ctx, userID, page)
	return args.Get(0).([]models.PersonWithCount), args.Get(1).(int64), args.Error(2)
}

func (m *MockPersonService) ListAll(ctx context.Context, userID int64) ([]models.Person, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Person), args.Error(1)
}

func (m *MockPersonService) Tag(ctx context.Context, userID, photoID, personID int64) error {
	args := m.Called(ctx, userID, photoID, personID)
	return args.Error(0)
}

func (m *MockPersonService) Untag(ctx context.Context, userID, photoID, personID int64) error {
	args := m.Called(ctx, userID, photoID, personID)
	return args.Error(0)
}

func (m *MockPersonService) TaggedPeople(ctx context.Context, userID, photoID int64) ([]models.TaggedPerson, error) {
	args := m.Called(ctx, userID, photoID)
	return args.Get(0).([]models.TaggedPerson), args.Error(1)
}

func (m *MockPersonService) PerPage() int { return 20 }

type stubRenderer struct{}

func (stubRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	_, err := io.WriteString(w, name)
	return err
}

type testEnv struct {
	e      *echo.Echo
	router *Routers
	users  *MockUserService
	tokens *MockTokenService
	photos *MockPhotoService
	people *MockPersonService
}

var testUser = models.User{ID: 1, Username: "alice", Email: "alice@example.com"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := new(MockUserService)
	tokens := new(MockTokenService)
	photos := new(MockPhotoService)
	people := new(MockPersonService)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(log, users, tokens, photos, people, t.TempDir(), 720*time.Hour)

	e := echo.New()
	e.Renderer = stubRenderer{}
	e.HTTPErrorHandler = router.ErrorHandler
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test"))))

	// Injects a signed-in user the way RequireAuth does after lookup.
	asUser := func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("user", testUser)
			return h(c)
		}
	}

	e.GET("/", router.Index)
	e.GET("/login", router.LoginForm)
	e.POST("/login", router.Login)
	e.POST("/register", router.Register)
	e.GET("/logout", router.Logout)
	e.GET("/dashboard", router.RequireAuth(router.Dashboard))
	e.GET("/photo/:id", asUser(router.ViewPhoto))
	e.POST("/rename/:id", asUser(router.RenamePhoto))
	e.POST("/upload", asUser(router.Upload))
	e.POST("/tag_person/:photo_id", asUser(router.TagPerson))

	return &testEnv{e: e, router: router, users: users, tokens: tokens, photos: photos, people: people}
}

func postForm(e *echo.Echo, path string, form url.Values, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(nethttp.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLogin_NextGuard(t *testing.T) {
	t.Run("absolute URL is not honored", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Login", mock.Anything, "alice", "Password1").
			Return(testUser, nil).Once()

		rec := postForm(env.e, "/login", url.Values{
			"username": {"alice"},
			"password": {"Password1"},
			"next":     {"http://evil.example/"},
		}, nil)

		require.Equal(t, nethttp.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("protocol-relative URL is not honored", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Login", mock.Anything, "alice", "Password1").
			Return(testUser, nil).Once()

		rec := postForm(env.e, "/login", url.Values{
			"username": {"alice"},
			"password": {"Password1"},
			"next":     {"//evil.example/"},
		}, nil)

		require.Equal(t, nethttp.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("relative path is honored", func(t *testing.T) {
		env := newTestEnv(t)
		env.users.On("Login", mock.Anything, "alice", "Password1").
			Return(testUser, nil).Once()

		rec := postForm(env.e, "/login", url.Values{
			"username": {"alice"},
			"password": {"Password1"},
			"next":     {"/originals?page=2"},
		}, nil)

		require.Equal(t, nethttp.StatusSeeOther, rec.Code)
		assert.Equal(t, "/originals?page=2", rec.Header().Get("Location"))
	})
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("Login", mock.Anything, "alice", "wrong").
		Return(models.User{}, usersvc.ErrInvalidCredentials).Once()

	rec := postForm(env.e, "/login", url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	}, nil)

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestRegister_ValidationErrorFlashesAndRedirects(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("Register", mock.Anything, mock.Anything).
		Return(int64(0), &usersvc.ValidationError{Message: "Passwords do not match."}).Once()

	rec := postForm(env.e, "/register", url.Values{
		"username":         {"alice"},
		"email":            {"alice@example.com"},
		"password":         {"Password1"},
		"confirm_password": {"Password2"},
	}, nil)

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/register", rec.Header().Get("Location"))
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(nethttp.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fdashboard", rec.Header().Get("Location"))
}

func TestLogout_RevokesTokensAndRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)
	env.users.On("Login", mock.Anything, "alice", "Password1").
		Return(testUser, nil).Once()
	env.users.On("GetUserByID", mock.Anything, int64(1)).
		Return(testUser, nil).Once()
	env.tokens.On("RevokeUserTokens", mock.Anything, int64(1)).
		Return(nil).Once()

	login := postForm(env.e, "/login", url.Values{
		"username": {"alice"},
		"password": {"Password1"},
	}, nil)
	require.Equal(t, nethttp.StatusSeeOther, login.Code)

	req := httptest.NewRequest(nethttp.MethodGet, "/logout", nil)
	for _, cookie := range login.Result().Cookies() {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	env.tokens.AssertExpectations(t)
	env.users.AssertExpectations(t)
}

func TestErrorHandler_AJAXGetsJSONEnvelope(t *testing.T) {
	env := newTestEnv(t)
	env.photos.On("GetOwned", mock.Anything, int64(1), int64(42)).
		Return(models.Photo{}, photosvc.ErrPhotoNotFound).Once()

	req := httptest.NewRequest(nethttp.MethodGet, "/photo/42", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	require.Equal(t, nethttp.StatusNotFound, rec.Code)

	var resp response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Error)
}

func TestViewPhoto_NotFoundForForeignPhoto(t *testing.T) {
	env := newTestEnv(t)
	env.photos.On("GetOwned", mock.Anything, int64(1), int64(42)).
		Return(models.Photo{}, photosvc.ErrPhotoNotFound).Once()

	req := httptest.NewRequest(nethttp.MethodGet, "/photo/42", nil)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestRenamePhoto_EmptyNameFlashes(t *testing.T) {
	env := newTestEnv(t)
	env.photos.On("Rename", mock.Anything, int64(1), int64(7), "").
		Return(photosvc.ErrEmptyName).Once()

	rec := postForm(env.e, "/rename/7", url.Values{"new_name": {""}}, nil)

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/photo/7", rec.Header().Get("Location"))
}

func uploadRequest(t *testing.T, ajax bool) *nethttp.Request {
	t.Helper()

	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photos", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not-really-a-png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/upload", strings.NewReader(buf.String()))
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	return req
}

func TestUpload_AJAXInvalidType(t *testing.T) {
	env := newTestEnv(t)
	env.photos.On("UploadBatch", mock.Anything, int64(1), mock.Anything, true).
		Return(nil, []photosvc.FileError{{Filename: "pic.exe", Err: photosvc.ErrInvalidFileType}}, nil).Once()

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, uploadRequest(t, true))

	require.Equal(t, nethttp.StatusBadRequest, rec.Code)

	var resp response.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid file type: pic.exe", resp.Error)
}

func TestUpload_AJAXSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.photos.On("UploadBatch", mock.Anything, int64(1), mock.Anything, true).
		Return([]models.Photo{{ID: 5, Filename: "abc123.png", OriginalFilename: "pic.png", FileSize: 16}}, nil, nil).Once()

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, uploadRequest(t, true))

	require.Equal(t, nethttp.StatusOK, rec.Code)

	var resp response.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.UploadedFiles, 1)
	assert.Equal(t, int64(5), resp.UploadedFiles[0].ID)
	assert.Equal(t, "pic.png", resp.UploadedFiles[0].OriginalFilename)
}

func TestUpload_FormModeContinuesPastErrors(t *testing.T) {
	env := newTestEnv(t)
	env.photos.On("UploadBatch", mock.Anything, int64(1), mock.Anything, false).
		Return(
			[]models.Photo{{ID: 5}},
			[]photosvc.FileError{{Filename: "bad.exe", Err: photosvc.ErrInvalidFileType}},
			nil,
		).Once()

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, uploadRequest(t, false))

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestTagPerson_MissingSelection(t *testing.T) {
	env := newTestEnv(t)

	rec := postForm(env.e, "/tag_person/3", url.Values{}, nil)

	require.Equal(t, nethttp.StatusSeeOther, rec.Code)
	assert.Equal(t, "/photo/3", rec.Header().Get("Location"))
	env.people.AssertNotCalled(t, "Tag", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/dashboard", safeNext("/dashboard"))
	assert.Equal(t, "", safeNext("http://evil.example/"))
	assert.Equal(t, "", safeNext("//evil.example/"))
	assert.Equal(t, "", safeNext(""))
}
