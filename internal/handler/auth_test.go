package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/middleware"
	"github.com/Kauanrodrigues01/academy/internal/store"
)

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/login", url.Values{"cpf": {"529.982.247-25"}, "password": {staffPassword}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	c := cookie(rec, middleware.SessionCookieName)
	require.NotNil(t, c, "session cookie")
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure, "https base URL marks the cookie secure")
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	sess, err := store.NewSessionStore(f.db).GetByToken(c.Value)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, f.staff.ID, sess.StaffID)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/login", url.Values{"cpf": {staffCPF}, "password": {"errada"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "CPF ou senha inválidos.")
	assert.Nil(t, cookie(rec, middleware.SessionCookieName))
}

func TestLoginUnknownCPFLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/login", url.Values{"cpf": {"11144477735"}, "password": {staffPassword}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "CPF ou senha inválidos.")
}

func TestLoginUnknownCPFTakesAsLongAsWrongPassword(t *testing.T) {
	f := newFixture(t)
	auth.DecoyCheck("warm-up")

	timed := func(cpf string) time.Duration {
		start := time.Now()
		rec := f.post(t, "/login", url.Values{"cpf": {cpf}, "password": {"Errada123"}})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		return time.Since(start)
	}
	wrong := timed(staffCPF)
	unknown := timed("11144477735")

	// both paths pay for one bcrypt comparison
	assert.Greater(t, unknown, wrong/4, "unknown %s, wrong password %s", unknown, wrong)
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/login", url.Values{"cpf": {"123.456"}, "password": {""}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "O CPF fornecido é inválido.")
	assert.Contains(t, body, "A senha é obrigatória.")
	assert.Contains(t, body, `value="123456"`, "normalized CPF is kept in the form")
}

func TestLoginPageRedirectsWhenSignedIn(t *testing.T) {
	f := newFixture(t)
	sess, err := store.NewSessionStore(f.db).Create(f.staff.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.get(t, "/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	c := cookie(rec, middleware.SessionCookieName)
	require.NotNil(t, c)
	assert.Less(t, c.MaxAge, 0)
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/password-reset", url.Values{"email": {"ninguem@example.com"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Se o e-mail")
	assert.Empty(t, f.mailer.sent)
}

func TestPasswordResetInvalidEmail(t *testing.T) {
	f := newFixture(t)

	rec := f.post(t, "/password-reset", url.Values{"email": {"nao-e-email"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, f.mailer.sent)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	sessions := store.NewSessionStore(f.db)
	old, err := sessions.Create(f.staff.ID)
	require.NoError(t, err)

	rec := f.post(t, "/password-reset", url.Values{"email": {"ADMIN@example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, f.mailer.sent, 1)
	sent := f.mailer.sent[0]
	assert.Equal(t, "admin@example.com", sent.to)

	link, err := url.Parse(sent.link)
	require.NoError(t, err)
	assert.Equal(t, "academia.example.com", link.Host)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	page := f.get(t, "/password-reset/confirm?token="+url.QueryEscape(token))
	require.Equal(t, http.StatusOK, page.Code)
	assert.NotContains(t, page.Body.String(), "inválido ou expirou")

	mismatch := f.post(t, "/password-reset/confirm", url.Values{"token": {token}, "password": {"NovaSenha1"}, "password_confirm": {"Outra1"}})
	assert.Equal(t, http.StatusUnprocessableEntity, mismatch.Code)
	assert.Contains(t, mismatch.Body.String(), "As senhas não coincidem.")

	done := f.post(t, "/password-reset/confirm", url.Values{"token": {token}, "password": {"NovaSenha1"}, "password_confirm": {"NovaSenha1"}})
	require.Equal(t, http.StatusSeeOther, done.Code)
	assert.Equal(t, "/login", done.Header().Get("Location"))

	st, err := store.NewStaffStore(f.db).GetByID(f.staff.ID)
	require.NoError(t, err)
	ok, err := auth.CheckPassword(st.PasswordHash, "NovaSenha1")
	require.NoError(t, err)
	assert.True(t, ok)

	gone, err := sessions.GetByToken(old.Token)
	require.NoError(t, err)
	assert.Nil(t, gone, "existing sessions are revoked")

	reused := f.post(t, "/password-reset/confirm", url.Values{"token": {token}, "password": {"Terceira1"}, "password_confirm": {"Terceira1"}})
	assert.Equal(t, http.StatusBadRequest, reused.Code)
	assert.Contains(t, reused.Body.String(), "inválido ou expirou")
}

func TestPasswordResetWeakPassword(t *testing.T) {
	f := newFixture(t)
	token, err := auth.NewResetTokens("test-secret").Issue(f.staff.ID, f.staff.PasswordHash)
	require.NoError(t, err)

	rec := f.post(t, "/password-reset/confirm", url.Values{"token": {token}, "password": {"fraca"}, "password_confirm": {"fraca"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "A senha deve ter pelo menos 6 caracteres.")
}

func TestPasswordResetBadToken(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/password-reset/confirm?token=lixo")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inválido ou expirou")
}
