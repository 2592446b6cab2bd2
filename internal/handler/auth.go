package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Kauanrodrigues01/academy/internal/auth"
	"github.com/Kauanrodrigues01/academy/internal/flash"
	"github.com/Kauanrodrigues01/academy/internal/middleware"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/validate"
)

const loginFailed = "CPF ou senha inválidos."

// ResetMailer delivers password reset links.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

type AuthHandler struct {
	views    *Views
	staff    *store.StaffStore
	sessions *store.SessionStore
	tokens   *auth.ResetTokens
	mailer   ResetMailer
	baseURL  string
	secure   bool
	logger   *slog.Logger
}

func NewAuthHandler(views *Views, staff *store.StaffStore, sessions *store.SessionStore, tokens *auth.ResetTokens, mailer ResetMailer, baseURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		views:    views,
		staff:    staff,
		sessions: sessions,
		tokens:   tokens,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		secure:   strings.HasPrefix(baseURL, "https://"),
		logger:   logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.signedIn(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := h.views.page(w, r, "Entrar", "")
	data["Form"] = validate.LoginForm{}
	h.views.render(w, r, http.StatusOK, "login.html", data)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form validate.LoginForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	form.CPF = validate.NormalizeCPF(form.CPF)

	if errs := validate.Struct(r.Context(), form); errs != nil {
		h.loginFailed(w, r, http.StatusUnprocessableEntity, form, errs, "")
		return
	}

	st, err := h.staff.GetByCPF(form.CPF)
	if err != nil {
		h.views.serverError(w, r, "login lookup", err)
		return
	}
	if st == nil {
		auth.DecoyCheck(form.Password)
		h.logger.Info("login failed", "reason", "unknown cpf", "remote", middleware.RealIP(r))
		h.loginFailed(w, r, http.StatusUnauthorized, form, nil, loginFailed)
		return
	}
	ok, err := auth.CheckPassword(st.PasswordHash, form.Password)
	if err != nil {
		h.views.serverError(w, r, "check password", err)
		return
	}
	if !ok {
		h.logger.Info("login failed", "reason", "wrong password", "staff_id", st.ID, "remote", middleware.RealIP(r))
		h.loginFailed(w, r, http.StatusUnauthorized, form, nil, loginFailed)
		return
	}

	sess, err := h.sessions.Create(st.ID)
	if err != nil {
		h.views.serverError(w, r, "create session", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.logger.Info("login", "staff_id", st.ID)
	redirect(w, r, flash.Success, "Bem-vindo, "+st.Name+"!", "/")
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, status int, form validate.LoginForm, errs validate.Errors, msg string) {
	form.Password = ""
	data := h.views.page(w, r, "Entrar", "")
	data["Form"] = form
	data["Errors"] = errs
	data["LoginError"] = msg
	h.views.render(w, r, status, "login.html", data)
}

func (h *AuthHandler) signedIn(r *http.Request) bool {
	c, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || c.Value == "" {
		return false
	}
	sess, err := h.sessions.GetByToken(c.Value)
	return err == nil && sess != nil
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sc, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(sc.SessionID); err != nil {
			h.logger.Error("delete session", "session_id", sc.SessionID, "error", err)
		}
		h.logger.Info("logout", "staff_id", sc.StaffID)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	redirect(w, r, flash.Info, "Você saiu da sua conta.", "/login")
}

func (h *AuthHandler) ResetRequestPage(w http.ResponseWriter, r *http.Request) {
	data := h.views.page(w, r, "Redefinir senha", "")
	data["Form"] = validate.ResetRequestForm{}
	h.views.render(w, r, http.StatusOK, "password_reset.html", data)
}

// ResetRequest always answers the same way so the page cannot be used to
// find out which emails belong to staff.
func (h *AuthHandler) ResetRequest(w http.ResponseWriter, r *http.Request) {
	var form validate.ResetRequestForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))

	data := h.views.page(w, r, "Redefinir senha", "")
	data["Form"] = form
	if errs := validate.Struct(r.Context(), form); errs != nil {
		data["Errors"] = errs
		h.views.render(w, r, http.StatusUnprocessableEntity, "password_reset.html", data)
		return
	}

	if err := h.sendReset(r.Context(), form.Email); err != nil {
		h.logger.Error("password reset", "error", err)
	}
	data["Sent"] = true
	h.views.render(w, r, http.StatusOK, "password_reset.html", data)
}

func (h *AuthHandler) sendReset(ctx context.Context, email string) error {
	st, err := h.staff.GetByEmail(email)
	if err != nil {
		return err
	}
	if st == nil {
		h.logger.Info("password reset for unknown email")
		return nil
	}
	token, err := h.tokens.Issue(st.ID, st.PasswordHash)
	if err != nil {
		return err
	}
	link := h.baseURL + "/password-reset/confirm?token=" + url.QueryEscape(token)
	if err := h.mailer.SendPasswordReset(ctx, st.Email, st.Name, link); err != nil {
		return err
	}
	h.logger.Info("password reset sent", "staff_id", st.ID)
	return nil
}

func (h *AuthHandler) ResetConfirmPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := h.views.page(w, r, "Nova senha", "")
	data["Form"] = validate.ResetConfirmForm{}
	data["Token"] = token
	if _, err := h.verify(token); err != nil {
		data["InvalidToken"] = true
	}
	h.views.render(w, r, http.StatusOK, "password_reset_confirm.html", data)
}

func (h *AuthHandler) ResetConfirm(w http.ResponseWriter, r *http.Request) {
	var form validate.ResetConfirmForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	token := r.PostForm.Get("token")

	data := h.views.page(w, r, "Nova senha", "")
	data["Form"] = validate.ResetConfirmForm{}
	data["Token"] = token

	st, err := h.verify(token)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidResetToken) {
			h.views.serverError(w, r, "verify reset token", err)
			return
		}
		data["InvalidToken"] = true
		h.views.render(w, r, http.StatusBadRequest, "password_reset_confirm.html", data)
		return
	}

	if errs := validate.Struct(r.Context(), form); errs != nil {
		data["Errors"] = errs
		h.views.render(w, r, http.StatusUnprocessableEntity, "password_reset_confirm.html", data)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		h.views.serverError(w, r, "hash password", err)
		return
	}
	if err := h.staff.SetPassword(st.ID, hash); err != nil {
		h.views.serverError(w, r, "set password", err)
		return
	}
	if err := h.sessions.DeleteByStaffID(st.ID); err != nil {
		h.logger.Error("revoke sessions", "staff_id", st.ID, "error", err)
	}
	h.logger.Info("password changed", "staff_id", st.ID)
	redirect(w, r, flash.Success, "Senha alterada. Entre com a nova senha.", "/login")
}

// verify resolves token to the staff member it was issued for, checking it
// against the current password hash.
func (h *AuthHandler) verify(token string) (*model.Staff, error) {
	if token == "" {
		return nil, auth.ErrInvalidResetToken
	}
	id, err := h.tokens.StaffID(token)
	if err != nil {
		return nil, err
	}
	st, err := h.staff.GetByID(id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, auth.ErrInvalidResetToken
	}
	if _, err := h.tokens.Verify(token, st.PasswordHash); err != nil {
		return nil, err
	}
	return st, nil
}
