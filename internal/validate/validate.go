// Package validate checks submitted forms and renders field errors in
// Portuguese.
package validate

import (
	"context"
	"reflect"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	pt_br_translations "github.com/go-playground/validator/v10/translations/pt_BR"

	"github.com/Kauanrodrigues01/academy/internal/money"
	"github.com/Kauanrodrigues01/academy/internal/status"
)

var (
	v          *validator.Validate
	translator ut.Translator

	phoneRegex = regexp.MustCompile(`^\d{10,15}$`)
)

const (
	cpfTag       = "cpf"
	phoneTag     = "phone"
	hasUpperTag  = "hasupper"
	hasDigitTag  = "hasdigit"
	moneyTag     = "money"
	notFutureTag = "notfuture"
)

func init() {
	v = validator.New()

	loc := pt_BR.New()
	uni := ut.New(loc, loc)
	translator, _ = uni.GetTranslator("pt_BR")
	_ = pt_br_translations.RegisterDefaultTranslations(v, translator)

	// Report errors under the HTML form field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(cpfTag, func(fl validator.FieldLevel) bool {
		return IsValidCPF(fl.Field().String())
	})
	_ = v.RegisterValidation(phoneTag, func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation(hasUpperTag, func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsUpper) >= 0
	})
	_ = v.RegisterValidation(hasDigitTag, func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsDigit) >= 0
	})
	_ = v.RegisterValidation(moneyTag, func(fl validator.FieldLevel) bool {
		_, err := money.Parse(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidationCtx(notFutureTag, notFuture)

	registerTranslation(cpfTag, "{0} inválido")
	registerTranslation(phoneTag, "{0} deve conter apenas números")
	registerTranslation(hasUpperTag, "{0} deve conter uma letra maiúscula")
	registerTranslation(hasDigitTag, "{0} deve conter um número")
	registerTranslation(moneyTag, "{0} não é um valor válido")
	registerTranslation(notFutureTag, "{0} não pode estar no futuro")
}

func registerTranslation(tag, text string) {
	_ = v.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

type todayKey struct{}

// WithToday pins the date notfuture compares against. Without it the
// current wall clock is used.
func WithToday(ctx context.Context, today time.Time) context.Context {
	return context.WithValue(ctx, todayKey{}, today)
}

func today(ctx context.Context) time.Time {
	if t, ok := ctx.Value(todayKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

func notFuture(ctx context.Context, fl validator.FieldLevel) bool {
	d, err := ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.After(status.Date(today(ctx)))
}

// ParseDate parses an HTML date input value (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

// Errors maps a form field name to the first message for that field.
type Errors map[string]string

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) Get(field string) string {
	return e[field]
}

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) merge(other Errors) Errors {
	if len(other) == 0 {
		return e
	}
	if e == nil {
		e = Errors{}
	}
	for k, msg := range other {
		e.Add(k, msg)
	}
	return e
}

// Struct validates s and returns nil when it is valid.
func Struct(ctx context.Context, s any) Errors {
	err := v.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"_": err.Error()}
	}
	out := Errors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	return fe.Translate(translator)
}

// IsValidCPF checks an 11-digit CPF against both check digits.
func IsValidCPF(cpf string) bool {
	if len(cpf) != 11 {
		return false
	}
	digits := make([]int, 11)
	allSame := true
	for i, r := range cpf {
		if r < '0' || r > '9' {
			return false
		}
		digits[i] = int(r - '0')
		if digits[i] != digits[0] {
			allSame = false
		}
	}
	if allSame {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += digits[i] * (n + 1 - i)
		}
		if (sum*10%11)%10 != digits[n] {
			return false
		}
	}
	return true
}

// NormalizeCPF drops the usual punctuation so "529.982.247-25" is accepted.
func NormalizeCPF(cpf string) string {
	return strings.NewReplacer(".", "", "-", "", " ", "").Replace(cpf)
}
