package tests

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"strings"
	"testing"

	"photovault/tests/suite"

	personsvc "photovault/internal/services/person_service"
	usersvc "photovault/internal/services/user_service"

	"github.com/brianvoe/gofakeit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passDefaultLen = 10

func TestRegisterLogin_HappyPath(t *testing.T) {
	ctx, st := suite.New(t)

	username := gofakeit.Username()
	email := gofakeit.Email()
	pass := randomFakePassword()

	uid, err := st.Users.Register(ctx, usersvc.RegisterInput{
		Username:        username,
		Email:           email,
		Password:        pass,
		ConfirmPassword: pass,
	})
	require.NoError(t, err)
	assert.NotZero(t, uid)

	user, err := st.Users.Login(ctx, username, pass)
	require.NoError(t, err)
	assert.Equal(t, uid, user.ID)
	assert.Equal(t, strings.ToLower(email), user.Email)

	// Login accepts the email address too.
	user, err = st.Users.Login(ctx, strings.ToLower(email), pass)
	require.NoError(t, err)
	assert.Equal(t, uid, user.ID)

	_, err = st.Users.Login(ctx, username, "WrongPassword1")
	assert.ErrorIs(t, err, usersvc.ErrInvalidCredentials)
}

func TestRememberToken_RoundTrip(t *testing.T) {
	ctx, st := suite.New(t)

	pass := randomFakePassword()
	uid := registerUser(ctx, t, st, pass)

	token, err := st.Tokens.IssueRememberToken(ctx, uid)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	gotUID, err := st.Tokens.ValidateRememberToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uid, gotUID)

	require.NoError(t, st.Tokens.RevokeUserTokens(ctx, uid))

	_, err = st.Tokens.ValidateRememberToken(ctx, token)
	assert.Error(t, err)
}

func TestUploadTagAndStats_HappyPath(t *testing.T) {
	ctx, st := suite.New(t)

	pass := randomFakePassword()
	uid := registerUser(ctx, t, st, pass)

	saved, fileErrors, err := st.Photos.UploadBatch(ctx, uid, []*multipart.FileHeader{
		makeFileHeader(t, "summer.png", pngBytes(t, 4, 3)),
		makeFileHeader(t, "winter.png", pngBytes(t, 2, 2)),
	}, false)
	require.NoError(t, err)
	assert.Empty(t, fileErrors)
	require.Len(t, saved, 2)
	assert.Equal(t, "summer.png", saved[0].OriginalFilename)

	personID, err := st.People.Add(ctx, uid, personsvc.PersonInput{
		Name:     "Grandma",
		Nickname: "Nana",
	})
	require.NoError(t, err)

	require.NoError(t, st.People.Tag(ctx, uid, saved[0].ID, personID))

	tagged, err := st.People.TaggedPeople(ctx, uid, saved[0].ID)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "Grandma", tagged[0].Name)

	user, err := st.Users.GetUserByID(ctx, uid)
	require.NoError(t, err)

	data, err := st.Photos.Dashboard(ctx, user)
	require.NoError(t, err)
	assert.Len(t, data.Recent, 2)
	assert.EqualValues(t, 2, data.Stats.TotalPhotos)
	assert.Positive(t, data.Stats.TotalSize)
}

func registerUser(ctx context.Context, t *testing.T, st *suite.Suite, pass string) int64 {
	t.Helper()

	uid, err := st.Users.Register(ctx, usersvc.RegisterInput{
		Username:        gofakeit.Username(),
		Email:           gofakeit.Email(),
		Password:        pass,
		ConfirmPassword: pass,
	})
	require.NoError(t, err)

	return uid
}

func randomFakePassword() string {
	return gofakeit.Password(true, true, true, false, false, passDefaultLen) + "Aa1"
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photos", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	reader := multipart.NewReader(&buf, mw.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	require.Len(t, form.File["photos"], 1)
	return form.File["photos"][0]
}
