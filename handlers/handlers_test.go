package handler_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/auth"
	"github.com/krishkalaria12/snap-social/database/dbtest"
	handler "github.com/krishkalaria12/snap-social/handlers"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/models"
	"github.com/krishkalaria12/snap-social/repository"
	"github.com/krishkalaria12/snap-social/router"
	"github.com/krishkalaria12/snap-social/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app  *fiber.App
	db   *gorm.DB
	root string
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.OpenInMemory(t)
	root := t.TempDir()
	store, err := media.NewLocalStore(root)
	require.NoError(t, err)
	log := logging.Nop()

	users := repository.NewUserRepository(db)
	posts := repository.NewPostRepository(db)
	tokens := auth.NewService(auth.Options{Secret: "test-secret", Issuer: "snap-social"}, auth.NewSessions(db))
	remover := media.NewRemover(store, log)

	accounts := services.NewAccountService(services.AccountDeps{
		Users:       users,
		Posts:       posts,
		Likes:       repository.NewLikeRepository(db),
		Credentials: auth.NewCredentials(users),
		Remover:     remover,
		Sessions:    tokens,
		Policy:      services.CascadeBestEffort,
		Logger:      log,
	})
	uploader := media.NewUploader(store)

	app := fiber.New()
	router.SetupRoutes(app, router.Handlers{
		Auth:    handler.NewAuthHandler(accounts, tokens, log),
		Profile: handler.NewProfileHandler(accounts, uploader, log),
		Posts:   handler.NewPostHandler(services.NewPostService(posts, remover, log), uploader, log),
		Media:   handler.NewMediaHandler(store, log),
	}, tokens)
	router.ServeDefault(app, root)

	return &testServer{app: app, db: db, root: root}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(t *testing.T, req *http.Request) response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: body}
}

func jsonRequest(method, target, token string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, method, target, token string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		fw, err := w.CreateFormFile("image", "upload.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	return req
}

// account signs up and logs in, returning the user id and a token.
func (s *testServer) account(t *testing.T, email string) (uint, string) {
	t.Helper()
	res := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": email, "password": "password1", "nickname": "nick",
	}))
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "password1",
	}))
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	body := res.json(t)
	id, err := strconv.ParseUint(body["userId"].(string), 10, 64)
	require.NoError(t, err)
	return uint(id), body["token"].(string)
}

func (s *testServer) user(t *testing.T, id uint) *models.User {
	t.Helper()
	var u models.User
	require.NoError(t, s.db.First(&u, id).Error)
	return &u
}

func (s *testServer) imageExists(name string) bool {
	_, err := os.Stat(filepath.Join(s.root, "images", name))
	return err == nil
}

func userPath(id uint, suffix string) string {
	return "/api/profile/user/" + strconv.FormatUint(uint64(id), 10) + suffix
}

func TestSignup(t *testing.T) {
	s := newServer(t)

	res := s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "password1",
	}))
	assert.Equal(t, http.StatusCreated, res.status)

	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "ana@example.com", "password": "password1",
	}))
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Adresse email déjà utilisée", res.json(t)["error"])

	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "not-an-email", "password": "password1",
	}))
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestLogin(t *testing.T) {
	s := newServer(t)
	s.account(t, "ben@example.com")

	res := s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ben@example.com", "password": "wrong-password",
	}))
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ben@example.com", "password": "password1",
	}))
	require.Equal(t, http.StatusOK, res.status)
	assert.NotEmpty(t, res.json(t)["token"])
	assert.Contains(t, res.header.Get(fiber.HeaderSetCookie), auth.CookieName+"=")
}

func TestLogout_EndsSession(t *testing.T) {
	s := newServer(t)
	_, token := s.account(t, "cleo@example.com")

	res := s.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", token, nil))
	assert.Equal(t, http.StatusOK, res.status)

	res = s.do(t, jsonRequest(http.MethodGet, "/api/profile/user", token, nil))
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "cleo@example.com", "password": "password1",
	}))
	require.Equal(t, http.StatusOK, res.status)
	fresh := res.json(t)["token"].(string)

	res = s.do(t, jsonRequest(http.MethodGet, "/api/profile/user", fresh, nil))
	assert.Equal(t, http.StatusOK, res.status)
}

func TestProfileRequiresAuth(t *testing.T) {
	s := newServer(t)

	res := s.do(t, jsonRequest(http.MethodGet, "/api/profile/user", "", nil))
	assert.Equal(t, http.StatusUnauthorized, res.status)
}

func TestGetUser(t *testing.T) {
	s := newServer(t)
	_, token := s.account(t, "dan@example.com")
	otherID, _ := s.account(t, "eve@example.com")

	res := s.do(t, jsonRequest(http.MethodGet, "/api/profile/user", token, nil))
	require.Equal(t, http.StatusOK, res.status)
	body := res.json(t)
	assert.Equal(t, "dan@example.com", body["email"])
	assert.NotContains(t, body, "password")
	assert.Equal(t, "http://example.com/image/profile/Default.png", body["pictureUrl"])

	res = s.do(t, jsonRequest(http.MethodGet, userPath(otherID, ""), token, nil))
	require.Equal(t, http.StatusOK, res.status)
	body = res.json(t)
	assert.Equal(t, true, body["otherUser"])
	assert.Equal(t, "eve@example.com", body["user"].(map[string]any)["email"])

	res = s.do(t, jsonRequest(http.MethodGet, userPath(9999, ""), token, nil))
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestGetUserLikes(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "fay@example.com")

	post := models.Post{UserID: id, Content: "hello"}
	require.NoError(t, s.db.Create(&post).Error)
	require.NoError(t, s.db.Create(&models.Like{UserID: id, PostID: post.ID, LikeValue: 1}).Error)

	res := s.do(t, jsonRequest(http.MethodGet, "/api/profile/likes", token, nil))
	require.Equal(t, http.StatusCreated, res.status)

	var likes []repository.LikeSummary
	require.NoError(t, json.Unmarshal(res.body, &likes))
	assert.Equal(t, []repository.LikeSummary{{LikeValue: 1, PostID: post.ID}}, likes)
}

func TestModifyPassword(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "gus@example.com")
	otherID, otherToken := s.account(t, "hal@example.com")

	res := s.do(t, jsonRequest(http.MethodPut, userPath(id, "/password"), token, map[string]string{"password": "new-password"}))
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Mots de passe modifié !", res.json(t)["message"])

	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "gus@example.com", "password": "new-password",
	}))
	assert.Equal(t, http.StatusOK, res.status)

	res = s.do(t, jsonRequest(http.MethodPut, userPath(id, "/password"), otherToken, map[string]string{"password": "hijacked"}))
	assert.Equal(t, http.StatusForbidden, res.status)

	res = s.do(t, jsonRequest(http.MethodPut, userPath(otherID, "/password"), otherToken, map[string]string{"password": "x"}))
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestModifyUserInformation_ReplacesPicture(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "ida@example.com")

	res := s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, map[string]string{"nickname": "ida"}, pngBytes(t)))
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Equal(t, "Profil modifié !", res.json(t)["message"])

	first := s.user(t, id)
	assert.Equal(t, "ida", first.Nickname)
	firstName := media.FilenameOf(first.PictureURL)
	require.NotEmpty(t, firstName)
	assert.True(t, strings.HasPrefix(first.PictureURL, "http://example.com/image/profile/images/"))
	assert.True(t, s.imageExists(firstName))

	res = s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, nil, pngBytes(t)))
	require.Equal(t, http.StatusOK, res.status)

	second := media.FilenameOf(s.user(t, id).PictureURL)
	assert.NotEqual(t, firstName, second)
	assert.True(t, s.imageExists(second))
	assert.False(t, s.imageExists(firstName))

	res = s.do(t, jsonRequest(http.MethodGet, media.PublicPrefix+"/images/"+second, "", nil))
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "image/png", res.header.Get(fiber.HeaderContentType))
}

func TestModifyUserInformation_JSON(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "jon@example.com")
	s.account(t, "kim@example.com")

	res := s.do(t, jsonRequest(http.MethodPut, userPath(id, ""), token, map[string]string{"firstname": "Jon"}))
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Jon", s.user(t, id).Firstname)

	res = s.do(t, jsonRequest(http.MethodPut, userPath(id, ""), token, map[string]string{"email": "kim@example.com"}))
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Adresse email déjà utilisée", res.json(t)["error"])

	res = s.do(t, jsonRequest(http.MethodPut, userPath(9999, ""), token, map[string]string{"firstname": "Nobody"}))
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "Utilisateur introuvable", res.json(t)["error"])
}

func TestModifyUserInformation_FailedUpdateKeepsPicture(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "sam@example.com")
	s.account(t, "tia@example.com")

	res := s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, nil, pngBytes(t)))
	require.Equal(t, http.StatusOK, res.status)
	before := s.user(t, id).PictureURL

	res = s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, map[string]string{"email": "tia@example.com"}, pngBytes(t)))
	assert.Equal(t, http.StatusBadRequest, res.status)

	assert.Equal(t, before, s.user(t, id).PictureURL)
	assert.True(t, s.imageExists(media.FilenameOf(before)))

	entries, err := os.ReadDir(filepath.Join(s.root, "images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestModifyUserInformation_RejectsNonImage(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "lea@example.com")

	res := s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, nil, []byte("not an image")))
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "http://example.com/image/profile/Default.png", s.user(t, id).PictureURL)
}

func TestDeleteImageUser(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "max@example.com")

	res := s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, nil, pngBytes(t)))
	require.Equal(t, http.StatusOK, res.status)
	name := media.FilenameOf(s.user(t, id).PictureURL)

	res = s.do(t, jsonRequest(http.MethodDelete, userPath(id, "/image"), token, nil))
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "Image supprimé", res.json(t)["message"])
	assert.False(t, s.imageExists(name))
	assert.Equal(t, "http://example.com/image/profile/Default.png", s.user(t, id).PictureURL)

	// already on the default picture
	res = s.do(t, jsonRequest(http.MethodDelete, userPath(id, "/image"), token, nil))
	assert.Equal(t, http.StatusOK, res.status)
}

func TestPosts(t *testing.T) {
	s := newServer(t)
	_, token := s.account(t, "ned@example.com")
	_, otherToken := s.account(t, "ola@example.com")

	res := s.do(t, multipartRequest(t, http.MethodPost, "/api/posts", token, map[string]string{"content": "look"}, pngBytes(t)))
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	post := res.json(t)
	postPath := "/api/posts/" + strconv.Itoa(int(post["id"].(float64)))
	name := media.FilenameOf(post["imageUrl"].(string))
	assert.True(t, s.imageExists(name))

	res = s.do(t, multipartRequest(t, http.MethodPost, "/api/posts", token, map[string]string{"content": "  "}, nil))
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = s.do(t, jsonRequest(http.MethodDelete, postPath, otherToken, nil))
	assert.Equal(t, http.StatusForbidden, res.status)

	res = s.do(t, jsonRequest(http.MethodDelete, postPath, token, nil))
	assert.Equal(t, http.StatusOK, res.status)
	assert.False(t, s.imageExists(name))

	res = s.do(t, jsonRequest(http.MethodDelete, postPath, token, nil))
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestDeleteUser(t *testing.T) {
	s := newServer(t)
	id, token := s.account(t, "pia@example.com")

	res := s.do(t, multipartRequest(t, http.MethodPut, userPath(id, ""), token, nil, pngBytes(t)))
	require.Equal(t, http.StatusOK, res.status)
	avatar := media.FilenameOf(s.user(t, id).PictureURL)

	res = s.do(t, multipartRequest(t, http.MethodPost, "/api/posts", token, map[string]string{"content": "bye"}, pngBytes(t)))
	require.Equal(t, http.StatusCreated, res.status)
	postImage := media.FilenameOf(res.json(t)["imageUrl"].(string))

	res = s.do(t, jsonRequest(http.MethodDelete, userPath(id, ""), token, nil))
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	assert.Equal(t, "Utilisateur Supprimé", res.json(t)["message"])
	assert.Contains(t, res.header.Get(fiber.HeaderSetCookie), auth.CookieName+"=")

	assert.False(t, s.imageExists(avatar))
	assert.False(t, s.imageExists(postImage))

	var count int64
	require.NoError(t, s.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, s.db.Model(&models.Post{}).Where("user_id = ?", id).Count(&count).Error)
	assert.Zero(t, count)

	res = s.do(t, jsonRequest(http.MethodGet, "/api/profile/user", token, nil))
	assert.Equal(t, http.StatusUnauthorized, res.status)

	// the email is free again
	res = s.do(t, jsonRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "pia@example.com", "password": "password1",
	}))
	assert.Equal(t, http.StatusCreated, res.status)
}

func TestDeleteUser_Forbidden(t *testing.T) {
	s := newServer(t)
	id, _ := s.account(t, "quinn@example.com")
	_, otherToken := s.account(t, "rex@example.com")

	res := s.do(t, jsonRequest(http.MethodDelete, userPath(id, ""), otherToken, nil))
	assert.Equal(t, http.StatusForbidden, res.status)
	assert.Equal(t, "quinn@example.com", s.user(t, id).Email)
}

func TestServeImage_NotFound(t *testing.T) {
	s := newServer(t)

	res := s.do(t, jsonRequest(http.MethodGet, media.PublicPrefix+"/images/missing.png", "", nil))
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestServeImage_HidesTempFiles(t *testing.T) {
	s := newServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.root, "images", ".upload-7"), []byte("partial"), 0o644))

	res := s.do(t, jsonRequest(http.MethodGet, media.PublicPrefix+"/images/.upload-7", "", nil))
	assert.Equal(t, http.StatusNotFound, res.status)
}
