package provision

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("admin_email", func(fl validator.FieldLevel) bool {
		email := fl.Field().String()
		return emailPattern.MatchString(email) && validDomain(email)
	})
	return v
}

type adminForm struct {
	FirstName string `validate:"required,notblank"`
	LastName  string `validate:"required,notblank"`
	Email     string `validate:"required,admin_email"`
	Password  string `validate:"min=8"`
}

// fieldMessages maps validation failures to the messages admin clients show
// inline on the form.
var fieldMessages = map[string]struct {
	field   string
	message string
}{
	"FirstName": {"first_name", "first name is required"},
	"LastName":  {"last_name", "last name is required"},
	"Email":     {"email", "enter a valid email address"},
	"Password":  {"password", "password must be at least 8 characters"},
}

// ValidateInput checks the admin-creation form before any database work.
// Admin-creation rules are stricter than login: the password minimum is 8 and
// the email domain must carry a dot with at least three characters after it.
func ValidateInput(input CreateAdminInput) *shared.DomainError {
	form := adminForm{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  input.Password,
	}
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(fieldErrs) == 0 {
		return shared.E(shared.CodeValidation, "invalid input")
	}
	first := fieldErrs[0]
	if m, ok := fieldMessages[first.StructField()]; ok {
		if first.StructField() == "Email" && first.Tag() == "required" {
			return shared.EF(shared.CodeValidation, "email", "email is required")
		}
		return shared.EF(shared.CodeValidation, m.field, m.message)
	}
	return shared.E(shared.CodeValidation, "invalid input")
}

// validDomain requires a dotted domain with a real TLD, at least three
// characters after the final dot.
func validDomain(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot < 0 {
		return false
	}
	return len(domain)-dot-1 >= 3
}
