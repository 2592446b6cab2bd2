package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Kauanrodrigues01/academy/internal/flash"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/pagination"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/store"
	"github.com/Kauanrodrigues01/academy/internal/validate"
)

const (
	pageLinks = 5

	msgEmailTaken    = "Este e-mail já está cadastrado."
	msgMemberMissing = "Aluno não encontrado."
)

// pager feeds the pagination partial: the page window plus the query the
// links must keep.
type pager struct {
	pagination.Window
	Query url.Values
}

type MemberHandler struct {
	views    *Views
	members  *service.Members
	payments *service.Payments
	logger   *slog.Logger
}

func NewMemberHandler(views *Views, svc *service.Services, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{views: views, members: svc.Members, payments: svc.Payments, logger: logger}
}

// filterFromQuery reads the list filters. An unparseable last_payment date
// is ignored rather than rejected.
func filterFromQuery(q url.Values) (store.MemberFilter, string) {
	f := store.MemberFilter{
		Query:   strings.TrimSpace(q.Get("q")),
		PerPage: store.DefaultPageSize,
		Page:    1,
	}
	switch q.Get("status") {
	case "active", "inactive":
		f.Status = q.Get("status")
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		f.Page = n
	}
	var lastPayment string
	if d, err := validate.ParseDate(q.Get("last_payment")); err == nil {
		f.LastPayment = &d
		lastPayment = d.Format("2006-01-02")
	}
	return f, lastPayment
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, validate.NewMemberForm{}, nil)
}

func (h *MemberHandler) renderList(w http.ResponseWriter, r *http.Request, status int, form validate.NewMemberForm, errs validate.Errors) {
	q := r.URL.Query()
	filter, lastPayment := filterFromQuery(q)
	page, err := h.members.List(r.Context(), filter)
	if err != nil {
		h.views.serverError(w, r, "list members", err)
		return
	}

	data := h.views.page(w, r, "Alunos", "members")
	data["Filter"] = filter
	data["LastPayment"] = lastPayment
	data["Page"] = page
	data["Pager"] = pager{Window: pagination.Range(page.Page, page.TotalPages, pageLinks), Query: q}
	data["Form"] = form
	data["Errors"] = errs
	h.views.render(w, r, status, "members.html", data)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form validate.NewMemberForm
	if err := decodeForm(r, &form.MemberForm); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	if err := decoder.Decode(&form.Payment, r.PostForm); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	form.Normalize()

	ctx := validate.WithToday(r.Context(), h.views.today())
	if errs := validate.NewMember(ctx, form); errs != nil {
		h.renderList(w, r, http.StatusUnprocessableEntity, form, errs)
		return
	}

	var initial *service.PaymentInput
	if form.HasPayment() {
		amount, date, err := form.Payment.Values()
		if err != nil {
			h.renderList(w, r, http.StatusUnprocessableEntity, form, validate.Errors{"amount": err.Error()})
			return
		}
		initial = &service.PaymentInput{Amount: amount, Date: date}
	}

	m, err := h.members.Create(r.Context(), memberInput(form.MemberForm), initial)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.renderList(w, r, http.StatusUnprocessableEntity, form, errs)
			return
		}
		h.views.serverError(w, r, "create member", err)
		return
	}
	redirect(w, r, flash.Success, m.FullName+" foi cadastrado com sucesso!", "/members")
}

func (h *MemberHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.views.renderError(w, r, http.StatusNotFound, msgMemberMissing)
		return
	}
	m, err := h.members.Get(r.Context(), id)
	if err != nil {
		h.memberError(w, r, "get member", err)
		return
	}
	form := validate.MemberForm{FullName: m.FullName, Email: m.Email, Phone: m.Phone}
	h.renderEdit(w, r, http.StatusOK, m, form, nil)
}

func (h *MemberHandler) renderEdit(w http.ResponseWriter, r *http.Request, status int, m *model.Member, form validate.MemberForm, errs validate.Errors) {
	payments, err := h.payments.ListForMember(r.Context(), m.ID)
	if err != nil {
		h.views.serverError(w, r, "list payments", err)
		return
	}
	activity, err := h.members.Activity(r.Context(), m.ID)
	if err != nil {
		h.views.serverError(w, r, "member activity", err)
		return
	}

	data := h.views.page(w, r, "Editar "+m.FullName, "members")
	data["Member"] = m
	data["Form"] = form
	data["Errors"] = errs
	data["Payments"] = payments
	data["Activity"] = activity
	h.views.render(w, r, status, "member_edit.html", data)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.views.renderError(w, r, http.StatusNotFound, msgMemberMissing)
		return
	}
	var form validate.MemberForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	form.Normalize()

	m, err := h.members.Get(r.Context(), id)
	if err != nil {
		h.memberError(w, r, "get member", err)
		return
	}
	if errs := validate.Struct(r.Context(), form); errs != nil {
		h.renderEdit(w, r, http.StatusUnprocessableEntity, m, form, errs)
		return
	}

	updated, err := h.members.Update(r.Context(), id, memberInput(form))
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.renderEdit(w, r, http.StatusUnprocessableEntity, m, form, errs)
			return
		}
		h.memberError(w, r, "update member", err)
		return
	}
	redirect(w, r, flash.Success, updated.FullName+" foi atualizado com sucesso!", "/members")
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		redirect(w, r, flash.Error, msgMemberMissing, "/members")
		return
	}
	m, err := h.members.Get(r.Context(), id)
	if errors.Is(err, service.ErrMemberNotFound) {
		redirect(w, r, flash.Error, msgMemberMissing, "/members")
		return
	}
	if err != nil {
		h.views.serverError(w, r, "get member", err)
		return
	}
	if err := h.members.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrMemberNotFound) {
			redirect(w, r, flash.Error, msgMemberMissing, "/members")
			return
		}
		h.views.serverError(w, r, "delete member", err)
		return
	}
	redirect(w, r, flash.Success, m.FullName+" foi excluído com sucesso!", "/members")
}

func (h *MemberHandler) memberError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(err, service.ErrMemberNotFound) {
		h.views.renderError(w, r, http.StatusNotFound, msgMemberMissing)
		return
	}
	h.views.serverError(w, r, msg, err)
}

func memberInput(f validate.MemberForm) service.MemberInput {
	return service.MemberInput{FullName: f.FullName, Email: f.Email, Phone: f.Phone}
}

// fieldErrors maps service rule violations to the form field they belong to.
// It returns nil for any other error.
func fieldErrors(err error) validate.Errors {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return validate.Errors{"email": msgEmailTaken}
	case errors.Is(err, service.ErrFuturePayment):
		return validate.Errors{"payment_date": "A data de pagamento não pode ser no futuro."}
	case errors.Is(err, service.ErrNegativePayment):
		return validate.Errors{"amount": "Informe um valor válido, sem valores negativos."}
	}
	return nil
}
