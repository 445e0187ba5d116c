package http

import (
	"context"
	"encoding/gob"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"photovault/internal/domain/models"
	"photovault/internal/lib/logger/sl"
	"photovault/internal/transport/http/dto/request"
	"photovault/internal/transport/http/dto/response"

	personsvc "photovault/internal/services/person_service"
	photosvc "photovault/internal/services/photo_service"
	usersvc "photovault/internal/services/user_service"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (int64, error)
	Login(ctx context.Context, identifier, password string) (models.User, error)
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type TokenService interface {
	IssueRememberToken(ctx context.Context, userID int64) (string, error)
	ValidateRememberToken(ctx context.Context, token string) (int64, error)
	RevokeUserTokens(ctx context.Context, userID int64) error
}

type PhotoService interface {
	UploadBatch(ctx context.Context, userID int64, files []*multipart.FileHeader, stopOnError bool) ([]models.Photo, []photosvc.FileError, error)
	ListPage(ctx context.Context, userID int64, page int) ([]models.Photo, int64, error)
	GetOwned(ctx context.Context, userID, photoID int64) (models.Photo, error)
	Rename(ctx context.Context, userID, photoID int64, newName string) error
	Dashboard(ctx context.Context, user models.User) (photosvc.DashboardData, error)
	ProfileStats(ctx context.Context, user models.User) (models.StorageStats, error)
	PerPage() int
}

type PersonService interface {
	Add(ctx context.Context, userID int64, in personsvc.PersonInput) (int64, error)
	Update(ctx context.Context, userID, personID int64, in personsvc.PersonInput) error
	GetOwned(ctx context.Context, userID, personID int64) (models.Person, error)
	ListPage(ctx context.Context, userID int64, page int) ([]models.PersonWithCount, int64, error)
	ListAll(ctx context.Context, userID int64) ([]models.Person, error)
	Tag(ctx context.Context, userID, photoID, personID int64) error
	Untag(ctx context.Context, userID, photoID, personID int64) error
	TaggedPeople(ctx context.Context, userID, photoID int64) ([]models.TaggedPerson, error)
	PerPage() int
}

type Routers struct {
	log           *slog.Logger
	UserService   UserService
	TokenService  TokenService
	PhotoService  PhotoService
	PersonService PersonService

	uploadsDir  string
	rememberTTL time.Duration
}

func NewRouter(
	log *slog.Logger,
	userService UserService,
	tokenService TokenService,
	photoService PhotoService,
	personService PersonService,
	uploadsDir string,
	rememberTTL time.Duration,
) *Routers {
	return &Routers{
		log:           log,
		UserService:   userService,
		TokenService:  tokenService,
		PhotoService:  photoService,
		PersonService: personService,
		uploadsDir:    uploadsDir,
		rememberTTL:   rememberTTL,
	}
}

const (
	sessionName        = "session"
	rememberCookieName = "remember_token"
)

type flashMessage struct {
	Category string
	Message  string
}

func init() {
	gob.Register(flashMessage{})
}

func (r *Routers) flash(c echo.Context, category, message string) {
	sess, _ := session.Get(sessionName, c)
	sess.AddFlash(flashMessage{Category: category, Message: message})
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		r.log.Warn("failed to save flash", sl.Err(err))
	}
}

func (r *Routers) popFlashes(c echo.Context) []flashMessage {
	sess, _ := session.Get(sessionName, c)
	raw := sess.Flashes()
	if len(raw) > 0 {
		_ = sess.Save(c.Request(), c.Response())
	}

	flashes := make([]flashMessage, 0, len(raw))
	for _, f := range raw {
		if fm, ok := f.(flashMessage); ok {
			flashes = append(flashes, fm)
		}
	}
	return flashes
}

func currentUser(c echo.Context) models.User {
	user, _ := c.Get("user").(models.User)
	return user
}

// render injects the signed-in user and pending flashes into every page.
func (r *Routers) render(c echo.Context, code int, name string, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["Flashes"] = r.popFlashes(c)
	if user, ok := c.Get("user").(models.User); ok {
		data["User"] = user
	}
	return c.Render(code, name, data)
}

func isAJAX(c echo.Context) bool {
	return c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest"
}

// ErrorHandler is the echo HTTPErrorHandler: asynchronous callers get a JSON
// error envelope, everyone else a plain status page.
func (r *Routers) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if isAJAX(c) {
		_ = c.JSON(code, response.ErrorResponse{Status: "error", Error: msg})
		return
	}

	_ = c.String(code, msg)
}

// safeNext allows only same-site relative paths as post-login targets.
func safeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") {
		return next
	}
	return ""
}

func (r *Routers) signIn(c echo.Context, userID int64) error {
	sess, _ := session.Get(sessionName, c)
	sess.Values["user_id"] = userID
	return sess.Save(c.Request(), c.Response())
}

// RequireAuth resolves the session user, falling back to the remember-me
// cookie, and stores the loaded account on the request context. Anonymous
// requests are redirected to the login page with the original path preserved.
func (r *Routers) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "http.routers.RequireAuth"

		sess, _ := session.Get(sessionName, c)
		userID, ok := sess.Values["user_id"].(int64)

		if !ok {
			cookie, err := c.Cookie(rememberCookieName)
			if err == nil && cookie.Value != "" {
				if uid, vErr := r.TokenService.ValidateRememberToken(c.Request().Context(), cookie.Value); vErr == nil {
					userID = uid
					ok = true
					if err := r.signIn(c, uid); err != nil {
						r.log.Warn("failed to restore session", sl.Err(err))
					}
				}
			}
		}

		if !ok {
			r.flash(c, "info", "Please log in to access this page.")
			return c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request().URL.Path))
		}

		user, err := r.UserService.GetUserByID(c.Request().Context(), userID)
		if err != nil {
			r.log.Warn("session user no longer exists",
				slog.String("op", op), slog.Int64("user_id", userID), sl.Err(err))

			sess.Options.MaxAge = -1
			_ = sess.Save(c.Request(), c.Response())
			return c.Redirect(http.StatusSeeOther, "/login")
		}

		c.Set("user", user)
		return next(c)
	}
}

// AdminOnly assumes RequireAuth already ran.
func (r *Routers) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		if !user.IsAdmin && !user.IsSuperuser {
			r.flash(c, "error", "You do not have permission to view that page.")
			return c.Redirect(http.StatusSeeOther, "/dashboard")
		}
		return next(c)
	}
}

func (r *Routers) Index(c echo.Context) error {
	sess, _ := session.Get(sessionName, c)
	if _, ok := sess.Values["user_id"].(int64); ok {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return r.render(c, http.StatusOK, "index.html", nil)
}

func (r *Routers) About(c echo.Context) error {
	return r.render(c, http.StatusOK, "about.html", nil)
}

func (r *Routers) LoginForm(c echo.Context) error {
	sess, _ := session.Get(sessionName, c)
	if _, ok := sess.Values["user_id"].(int64); ok {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return r.render(c, http.StatusOK, "login.html", echo.Map{
		"Next": safeNext(c.QueryParam("next")),
	})
}

func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(slog.String("op", op))

	var req request.LoginRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind login form", sl.Err(err))
		r.flash(c, "error", "Invalid username or password.")
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	user, err := r.UserService.Login(c.Request().Context(), req.Identifier, req.Password)
	if err != nil {
		if !errors.Is(err, usersvc.ErrInvalidCredentials) {
			log.Error("login failed", sl.Err(err))
		}
		r.flash(c, "error", "Invalid username or password.")

		target := "/login"
		if next := safeNext(req.Next); next != "" {
			target += "?next=" + url.QueryEscape(next)
		}
		return c.Redirect(http.StatusSeeOther, target)
	}

	if err := r.signIn(c, user.ID); err != nil {
		log.Error("failed to save session", sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	if req.Remember != "" {
		token, err := r.TokenService.IssueRememberToken(c.Request().Context(), user.ID)
		if err != nil {
			log.Warn("failed to issue remember token", sl.Err(err))
		} else {
			c.SetCookie(&http.Cookie{
				Name:     rememberCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(r.rememberTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}

	r.flash(c, "success", "Welcome back, "+user.Username+"!")

	if next := safeNext(req.Next); next != "" {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (r *Routers) RegisterForm(c echo.Context) error {
	sess, _ := session.Get(sessionName, c)
	if _, ok := sess.Values["user_id"].(int64); ok {
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return r.render(c, http.StatusOK, "register.html", nil)
}

func (r *Routers) Register(c echo.Context) error {
	const op = "http.routers.Register"

	log := r.log.With(slog.String("op", op))

	var req request.RegisterRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind register form", sl.Err(err))
		r.flash(c, "error", "All fields are required.")
		return c.Redirect(http.StatusSeeOther, "/register")
	}

	_, err := r.UserService.Register(c.Request().Context(), usersvc.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		var vErr *usersvc.ValidationError
		if errors.As(err, &vErr) {
			r.flash(c, "error", vErr.Message)
			return c.Redirect(http.StatusSeeOther, "/register")
		}

		log.Error("registration failed", sl.Err(err))
		r.flash(c, "error", "Registration failed. Please try again.")
		return c.Redirect(http.StatusSeeOther, "/register")
	}

	r.flash(c, "success", "Registration successful! Please log in.")
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	sess, _ := session.Get(sessionName, c)
	var username string
	if userID, ok := sess.Values["user_id"].(int64); ok {
		if user, err := r.UserService.GetUserByID(c.Request().Context(), userID); err == nil {
			username = user.Username
		}
		if err := r.TokenService.RevokeUserTokens(c.Request().Context(), userID); err != nil {
			r.log.Warn("failed to revoke remember tokens",
				slog.String("op", op), slog.Int64("user_id", userID), sl.Err(err))
		}
	}

	// Drop the identity but keep the session alive for the goodbye flash.
	delete(sess.Values, "user_id")
	_ = sess.Save(c.Request(), c.Response())

	c.SetCookie(&http.Cookie{
		Name:     rememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	if username != "" {
		r.flash(c, "info", "Goodbye, "+username+"! You have been logged out.")
	} else {
		r.flash(c, "info", "You have been logged out.")
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (r *Routers) Dashboard(c echo.Context) error {
	const op = "http.routers.Dashboard"

	user := currentUser(c)

	data, err := r.PhotoService.Dashboard(c.Request().Context(), user)
	if err != nil {
		r.log.Error("failed to load dashboard", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "dashboard.html", echo.Map{
		"Recent": data.Recent,
		"Stats":  data.Stats,
	})
}

func (r *Routers) Originals(c echo.Context) error {
	const op = "http.routers.Originals"

	user := currentUser(c)
	page := pageParam(c)

	photos, total, err := r.PhotoService.ListPage(c.Request().Context(), user.ID, page)
	if err != nil {
		r.log.Error("failed to list photos", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "originals.html", echo.Map{
		"Photos":     photos,
		"Total":      total,
		"Page":       page,
		"TotalPages": totalPages(total, r.PhotoService.PerPage()),
	})
}

func (r *Routers) ViewPhoto(c echo.Context) error {
	const op = "http.routers.ViewPhoto"

	user := currentUser(c)

	photoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	photo, err := r.PhotoService.GetOwned(c.Request().Context(), user.ID, photoID)
	if err != nil {
		if errors.Is(err, photosvc.ErrPhotoNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		r.log.Error("failed to load photo", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	tagged, err := r.PersonService.TaggedPeople(c.Request().Context(), user.ID, photoID)
	if err != nil {
		r.log.Error("failed to load tagged people", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	people, err := r.PersonService.ListAll(c.Request().Context(), user.ID)
	if err != nil {
		r.log.Error("failed to list people", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "view_photo.html", echo.Map{
		"Photo":  photo,
		"Tagged": tagged,
		"People": people,
	})
}

func (r *Routers) Editor(c echo.Context) error {
	user := currentUser(c)

	photoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	photo, err := r.PhotoService.GetOwned(c.Request().Context(), user.ID, photoID)
	if err != nil {
		if errors.Is(err, photosvc.ErrPhotoNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "editor.html", echo.Map{"Photo": photo})
}

func (r *Routers) RenamePhoto(c echo.Context) error {
	const op = "http.routers.RenamePhoto"

	user := currentUser(c)

	photoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	var req request.RenameForm
	if err := c.Bind(&req); err != nil {
		r.flash(c, "error", "Filename cannot be empty.")
		return c.Redirect(http.StatusSeeOther, "/photo/"+c.Param("id"))
	}

	err = r.PhotoService.Rename(c.Request().Context(), user.ID, photoID, req.NewName)
	switch {
	case err == nil:
		r.flash(c, "success", "Photo renamed successfully.")
	case errors.Is(err, photosvc.ErrEmptyName):
		r.flash(c, "error", "Filename cannot be empty.")
	case errors.Is(err, photosvc.ErrPhotoNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	default:
		r.log.Error("failed to rename photo", slog.String("op", op), sl.Err(err))
		r.flash(c, "error", "Could not rename the photo.")
	}

	return c.Redirect(http.StatusSeeOther, "/photo/"+c.Param("id"))
}

func (r *Routers) UploadForm(c echo.Context) error {
	return r.render(c, http.StatusOK, "upload.html", nil)
}

// Upload accepts one or more files from the upload form. Asynchronous
// requests get JSON and abort on the first bad file; the plain form keeps
// going and reports per-file outcomes as flashes.
func (r *Routers) Upload(c echo.Context) error {
	const op = "http.routers.Upload"

	log := r.log.With(slog.String("op", op))

	user := currentUser(c)
	ajax := isAJAX(c)

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("failed to parse multipart form", sl.Err(err))
		if ajax {
			return c.JSON(http.StatusBadRequest, response.UploadResponse{
				Success: false,
				Error:   "No files selected.",
			})
		}
		r.flash(c, "error", "No files selected.")
		return c.Redirect(http.StatusSeeOther, "/upload")
	}

	files := form.File["photos"]
	if len(files) == 0 {
		if ajax {
			return c.JSON(http.StatusBadRequest, response.UploadResponse{
				Success: false,
				Error:   "No files selected.",
			})
		}
		r.flash(c, "error", "No files selected.")
		return c.Redirect(http.StatusSeeOther, "/upload")
	}

	saved, fileErrors, err := r.PhotoService.UploadBatch(c.Request().Context(), user.ID, files, ajax)
	if err != nil {
		log.Error("upload failed", sl.Err(err))
		if ajax {
			return c.JSON(http.StatusInternalServerError, response.UploadResponse{
				Success: false,
				Error:   "Upload failed. Please try again.",
			})
		}
		r.flash(c, "error", "Upload failed. Please try again.")
		return c.Redirect(http.StatusSeeOther, "/upload")
	}

	if ajax {
		if len(fileErrors) > 0 {
			fe := fileErrors[0]
			status := http.StatusInternalServerError
			msg := "Error processing file: " + fe.Filename
			if errors.Is(fe.Err, photosvc.ErrInvalidFileType) {
				status = http.StatusBadRequest
				msg = "Invalid file type: " + fe.Filename
			}
			return c.JSON(status, response.UploadResponse{
				Success:    false,
				Error:      msg,
				ErrorCount: len(fileErrors),
			})
		}

		uploaded := make([]response.UploadedFile, 0, len(saved))
		for _, p := range saved {
			uploaded = append(uploaded, response.UploadedFile{
				ID:               p.ID,
				Filename:         p.Filename,
				OriginalFilename: p.OriginalFilename,
				FileSize:         p.FileSize,
			})
		}
		return c.JSON(http.StatusOK, response.UploadResponse{
			Success:       true,
			Message:       "Upload complete.",
			UploadedFiles: uploaded,
		})
	}

	for _, fe := range fileErrors {
		if errors.Is(fe.Err, photosvc.ErrInvalidFileType) {
			r.flash(c, "error", "Invalid file type: "+fe.Filename)
		} else {
			r.flash(c, "error", "Error processing file: "+fe.Filename)
		}
	}
	if len(saved) > 0 {
		r.flash(c, "success", "Successfully uploaded "+strconv.Itoa(len(saved))+" photo(s)!")
		return c.Redirect(http.StatusSeeOther, "/dashboard")
	}
	return c.Redirect(http.StatusSeeOther, "/upload")
}

func (r *Routers) People(c echo.Context) error {
	const op = "http.routers.People"

	user := currentUser(c)
	page := pageParam(c)

	people, total, err := r.PersonService.ListPage(c.Request().Context(), user.ID, page)
	if err != nil {
		r.log.Error("failed to list people", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "people.html", echo.Map{
		"People":     people,
		"Total":      total,
		"Page":       page,
		"TotalPages": totalPages(total, r.PersonService.PerPage()),
	})
}

func (r *Routers) AddPerson(c echo.Context) error {
	const op = "http.routers.AddPerson"

	user := currentUser(c)

	in, err := r.bindPersonInput(c)
	if err != nil {
		r.flash(c, "error", err.Error())
		return c.Redirect(http.StatusSeeOther, "/people")
	}

	_, err = r.PersonService.Add(c.Request().Context(), user.ID, in)
	switch {
	case err == nil:
		r.flash(c, "success", "Person added successfully.")
	case errors.Is(err, personsvc.ErrNameRequired):
		r.flash(c, "error", "Name is required.")
	case errors.Is(err, personsvc.ErrPersonExists):
		r.flash(c, "error", "A person with this name already exists.")
	default:
		r.log.Error("failed to add person", slog.String("op", op), sl.Err(err))
		r.flash(c, "error", "Could not add the person.")
	}

	return c.Redirect(http.StatusSeeOther, "/people")
}

func (r *Routers) EditPersonForm(c echo.Context) error {
	user := currentUser(c)

	personID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	person, err := r.PersonService.GetOwned(c.Request().Context(), user.ID, personID)
	if err != nil {
		if errors.Is(err, personsvc.ErrPersonNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "edit_person.html", echo.Map{"Person": person})
}

func (r *Routers) EditPerson(c echo.Context) error {
	const op = "http.routers.EditPerson"

	user := currentUser(c)

	personID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	in, err := r.bindPersonInput(c)
	if err != nil {
		r.flash(c, "error", err.Error())
		return c.Redirect(http.StatusSeeOther, "/edit_person/"+c.Param("id"))
	}

	err = r.PersonService.Update(c.Request().Context(), user.ID, personID, in)
	switch {
	case err == nil:
		r.flash(c, "success", "Person updated successfully.")
		return c.Redirect(http.StatusSeeOther, "/people")
	case errors.Is(err, personsvc.ErrNameRequired):
		r.flash(c, "error", "Name is required.")
	case errors.Is(err, personsvc.ErrPersonExists):
		r.flash(c, "error", "A person with this name already exists.")
	case errors.Is(err, personsvc.ErrPersonNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	default:
		r.log.Error("failed to update person", slog.String("op", op), sl.Err(err))
		r.flash(c, "error", "Could not update the person.")
	}

	return c.Redirect(http.StatusSeeOther, "/edit_person/"+c.Param("id"))
}

func (r *Routers) bindPersonInput(c echo.Context) (personsvc.PersonInput, error) {
	var req request.PersonForm
	if err := c.Bind(&req); err != nil {
		return personsvc.PersonInput{}, errors.New("Name is required.")
	}

	in := personsvc.PersonInput{
		Name:         req.Name,
		Nickname:     req.Nickname,
		Relationship: req.Relationship,
		Notes:        req.Notes,
	}

	if req.BirthYear != "" {
		year, err := strconv.Atoi(req.BirthYear)
		if err != nil {
			return personsvc.PersonInput{}, errors.New("Birth year must be a number.")
		}
		in.BirthYear = &year
	}

	return in, nil
}

func (r *Routers) TagPerson(c echo.Context) error {
	const op = "http.routers.TagPerson"

	user := currentUser(c)

	photoID, err := strconv.ParseInt(c.Param("photo_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	var req request.TagForm
	if err := c.Bind(&req); err != nil || req.PersonID == 0 {
		r.flash(c, "error", "Select a person to tag.")
		return c.Redirect(http.StatusSeeOther, "/photo/"+c.Param("photo_id"))
	}

	err = r.PersonService.Tag(c.Request().Context(), user.ID, photoID, req.PersonID)
	switch {
	case err == nil:
		r.flash(c, "success", "Person tagged.")
	case errors.Is(err, personsvc.ErrPhotoNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	case errors.Is(err, personsvc.ErrPersonNotFound):
		r.flash(c, "error", "Person not found.")
	default:
		r.log.Error("failed to tag person", slog.String("op", op), sl.Err(err))
		r.flash(c, "error", "Could not tag the person.")
	}

	return c.Redirect(http.StatusSeeOther, "/photo/"+c.Param("photo_id"))
}

func (r *Routers) UntagPerson(c echo.Context) error {
	const op = "http.routers.UntagPerson"

	user := currentUser(c)

	photoID, err := strconv.ParseInt(c.Param("photo_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	personID, err := strconv.ParseInt(c.Param("person_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	err = r.PersonService.Untag(c.Request().Context(), user.ID, photoID, personID)
	switch {
	case err == nil:
		r.flash(c, "success", "Tag removed.")
	case errors.Is(err, personsvc.ErrPhotoNotFound):
		return echo.NewHTTPError(http.StatusNotFound)
	default:
		r.log.Error("failed to untag person", slog.String("op", op), sl.Err(err))
		r.flash(c, "error", "Could not remove the tag.")
	}

	return c.Redirect(http.StatusSeeOther, "/photo/"+c.Param("photo_id"))
}

func (r *Routers) Profile(c echo.Context) error {
	const op = "http.routers.Profile"

	user := currentUser(c)

	stats, err := r.PhotoService.ProfileStats(c.Request().Context(), user)
	if err != nil {
		r.log.Error("failed to load profile stats", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "profile.html", echo.Map{"Stats": stats})
}

// ServeUpload streams a stored file to its signed-in viewer. The filename is
// reduced to its base so the route cannot walk out of the uploads directory.
func (r *Routers) ServeUpload(c echo.Context) error {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.File(filepath.Join(r.uploadsDir, name))
}

func (r *Routers) ServeThumbnail(c echo.Context) error {
	name := filepath.Base(c.Param("filename"))
	if name == "." || name == "/" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	return c.File(filepath.Join(r.uploadsDir, "thumbnails", name))
}

func (r *Routers) AdminUsers(c echo.Context) error {
	const op = "http.routers.AdminUsers"

	users, err := r.UserService.ListUsers(c.Request().Context())
	if err != nil {
		r.log.Error("failed to list users", slog.String("op", op), sl.Err(err))
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return r.render(c, http.StatusOK, "admin_users.html", echo.Map{"Users": users})
}

func pageParam(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func totalPages(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}
	return pages
}
