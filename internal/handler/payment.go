package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Kauanrodrigues01/academy/internal/flash"
	"github.com/Kauanrodrigues01/academy/internal/model"
	"github.com/Kauanrodrigues01/academy/internal/service"
	"github.com/Kauanrodrigues01/academy/internal/validate"
)

type PaymentHandler struct {
	views    *Views
	members  *service.Members
	payments *service.Payments
	logger   *slog.Logger
}

func NewPaymentHandler(views *Views, svc *service.Services, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{views: views, members: svc.Members, payments: svc.Payments, logger: logger}
}

func (h *PaymentHandler) New(w http.ResponseWriter, r *http.Request) {
	m, ok := h.member(w, r)
	if !ok {
		return
	}
	form := validate.PaymentForm{PaymentDate: h.views.today().Format("2006-01-02")}
	h.render(w, r, http.StatusOK, m, form, nil)
}

func (h *PaymentHandler) render(w http.ResponseWriter, r *http.Request, status int, m *model.Member, form validate.PaymentForm, errs validate.Errors) {
	data := h.views.page(w, r, "Registrar pagamento", "members")
	data["Member"] = m
	data["Form"] = form
	data["Errors"] = errs
	h.views.render(w, r, status, "payment_new.html", data)
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	m, ok := h.member(w, r)
	if !ok {
		return
	}
	var form validate.PaymentForm
	if err := decodeForm(r, &form); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}

	ctx := validate.WithToday(r.Context(), h.views.today())
	if errs := validate.Struct(ctx, form); errs != nil {
		h.render(w, r, http.StatusUnprocessableEntity, m, form, errs)
		return
	}
	amount, date, err := form.Values()
	if err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, m, form, validate.Errors{"amount": err.Error()})
		return
	}

	p, err := h.payments.Record(r.Context(), m.ID, service.PaymentInput{Amount: amount, Date: date})
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.render(w, r, http.StatusUnprocessableEntity, m, form, errs)
			return
		}
		if errors.Is(err, service.ErrMemberNotFound) {
			redirect(w, r, flash.Error, msgMemberMissing, "/members")
			return
		}
		h.views.serverError(w, r, "record payment", err)
		return
	}
	redirect(w, r, flash.Success, "Pagamento de "+p.Amount.String()+" registrado para "+m.FullName+".", "/members")
}

// Delete removes a payment and returns to the member it belonged to, or to
// the finance page for payments whose member is gone.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		redirect(w, r, flash.Error, "Pagamento não encontrado.", "/finance")
		return
	}
	p, err := h.payments.Delete(r.Context(), id)
	if errors.Is(err, service.ErrPaymentNotFound) {
		redirect(w, r, flash.Error, "Pagamento não encontrado.", "/finance")
		return
	}
	if err != nil {
		h.views.serverError(w, r, "delete payment", err)
		return
	}

	target := "/finance"
	if p.MemberID != nil {
		target = "/members/" + strconv.FormatInt(*p.MemberID, 10) + "/edit"
	}
	redirect(w, r, flash.Success, "Pagamento excluído com sucesso!", target)
}

func (h *PaymentHandler) member(w http.ResponseWriter, r *http.Request) (*model.Member, bool) {
	id, ok := pathID(r)
	if !ok {
		h.views.renderError(w, r, http.StatusNotFound, msgMemberMissing)
		return nil, false
	}
	m, err := h.members.Get(r.Context(), id)
	if errors.Is(err, service.ErrMemberNotFound) {
		h.views.renderError(w, r, http.StatusNotFound, msgMemberMissing)
		return nil, false
	}
	if err != nil {
		h.views.serverError(w, r, "get member", err)
		return nil, false
	}
	return m, true
}
