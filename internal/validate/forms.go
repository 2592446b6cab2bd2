package validate

import (
	"context"
	"strings"
	"time"

	"github.com/Kauanrodrigues01/academy/internal/money"
)

var messages = map[string]string{
	"full_name.required": "O nome completo é obrigatório.",
	"full_name.min":      "O nome completo deve ter pelo menos 3 caracteres.",
	"full_name.max":      "O nome completo deve ter menos de 50 caracteres.",

	"email.required": "O e-mail é obrigatório.",
	"email.email":    "Informe um endereço de email válido.",
	"email.max":      "Informe um endereço de email válido.",

	"phone.required": "O telefone deve conter apenas números e ter entre 10 e 15 dígitos.",
	"phone.phone":    "O telefone deve conter apenas números e ter entre 10 e 15 dígitos.",

	"cpf.required": "O CPF fornecido é inválido.",
	"cpf.cpf":      "O CPF fornecido é inválido.",

	"password.required": "A senha é obrigatória.",
	"password.min":      "A senha deve ter pelo menos 6 caracteres.",
	"password.hasupper": "A senha deve conter pelo menos uma letra maiúscula.",
	"password.hasdigit": "A senha deve conter pelo menos um número.",

	"password_confirm.required": "Confirme a nova senha.",
	"password_confirm.eqfield":  "As senhas não coincidem.",

	"amount.required": "O valor é obrigatório.",
	"amount.money":    "Informe um valor válido, sem valores negativos.",

	"payment_date.required":  "A data de pagamento é obrigatória.",
	"payment_date.datetime":  "Informe uma data válida.",
	"payment_date.notfuture": "A data de pagamento não pode ser no futuro.",
}

type LoginForm struct {
	CPF      string `form:"cpf" validate:"required,cpf"`
	Password string `form:"password" validate:"required"`
}

type MemberForm struct {
	FullName string `form:"full_name" validate:"required,min=3,max=50"`
	Email    string `form:"email" validate:"required,email,max=254"`
	Phone    string `form:"phone" validate:"required,phone"`
}

// Normalize trims whitespace and lowercases the email.
func (f *MemberForm) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
}

type PaymentForm struct {
	Amount      string `form:"amount" validate:"required,money"`
	PaymentDate string `form:"payment_date" validate:"required,datetime=2006-01-02,notfuture"`
}

// Values converts a validated form. Call only after Struct returned nil.
func (f PaymentForm) Values() (money.Cents, time.Time, error) {
	amount, err := money.Parse(f.Amount)
	if err != nil {
		return 0, time.Time{}, err
	}
	date, err := ParseDate(f.PaymentDate)
	if err != nil {
		return 0, time.Time{}, err
	}
	return amount, date, nil
}

// NewMemberForm is the add-member form, where the first payment is optional.
type NewMemberForm struct {
	MemberForm
	Payment PaymentForm `validate:"-"`
}

func (f NewMemberForm) HasPayment() bool {
	return strings.TrimSpace(f.Payment.Amount) != "" || strings.TrimSpace(f.Payment.PaymentDate) != ""
}

// NewMember validates the member fields and, when either payment field was
// filled in, the payment fields too.
func NewMember(ctx context.Context, f NewMemberForm) Errors {
	errs := Struct(ctx, f.MemberForm)
	if f.HasPayment() {
		errs = errs.merge(Struct(ctx, f.Payment))
	}
	return errs
}

type ResetRequestForm struct {
	Email string `form:"email" validate:"required,email"`
}

type ResetConfirmForm struct {
	Password        string `form:"password" validate:"required,min=6,hasupper,hasdigit"`
	PasswordConfirm string `form:"password_confirm" validate:"required,eqfield=Password"`
}
