package accounts

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"awardbook/internal/validation"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	pwdLengthTag   = "pwdlen"
	pwdLengthText  = fmt.Sprintf("password must be between %d and %d characters long", MinPasswordLength, MaxPasswordLength)
	pwdLowerTag    = "pwdlower"
	pwdLowerText   = "password must contain at least one lowercase letter"
	pwdUpperTag    = "pwdupper"
	pwdUpperText   = "password must contain at least one uppercase letter"
	pwdDigitTag    = "pwddigit"
	pwdDigitText   = "password must contain at least one number"
	pwdSimilarTag  = "pwdtoosim"
	pwdSimilarText = "password is too similar to the account name"
	mismatchText   = "passwords do not match"
)

func init() {
	validate = validator.New()
	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use form tag names in messages.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterStructValidation(accountStructValidation, StudentAccountForm{}, StaffAccountForm{})
	registerTranslation(pwdLengthTag, pwdLengthText)
	registerTranslation(pwdLowerTag, pwdLowerText)
	registerTranslation(pwdUpperTag, pwdUpperText)
	registerTranslation(pwdDigitTag, pwdDigitText)
	registerTranslation(pwdSimilarTag, pwdSimilarText)
	registerTranslation("eqfield", mismatchText, true)
}

func registerTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// StudentAccountForm is what staff fill in to create a student login.
type StudentAccountForm struct {
	Username        string `form:"username" validate:"required,min=2,max=30"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm password" validate:"eqfield=Password"`
	CentreID        string `form:"centre ID" validate:"required,numeric,max=10"`
	AwardLevel      string `form:"award level" validate:"required,oneof=bronze silver gold"`
	YearGroup       string `form:"year group" validate:"required,numeric"`
}

// Validate checks the form, returning a *validation.Error for the first
// problem found.
func (f StudentAccountForm) Validate() error { return check(f) }

// StaffAccountForm creates a staff login.
type StaffAccountForm struct {
	Username        string `form:"username" validate:"required,min=2,max=30"`
	Fullname        string `form:"full name" validate:"required,min=2,max=30"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm password" validate:"eqfield=Password"`
}

// Validate checks the form, returning a *validation.Error for the first
// problem found.
func (f StaffAccountForm) Validate() error { return check(f) }

// accountStructValidation applies the password policy.
func accountStructValidation(sl validator.StructLevel) {
	switch f := sl.Current().Interface().(type) {
	case StudentAccountForm:
		reportPassword(sl, f.Password, f.Username)
	case StaffAccountForm:
		reportPassword(sl, f.Password, f.Username, f.Fullname)
	}
}

func reportPassword(sl validator.StructLevel, pwd string, attrs ...string) {
	if pwd == "" {
		return
	}
	s := MeasureStrength(pwd, attrs...)
	var tag string
	switch {
	case !s.Length:
		tag = pwdLengthTag
	case !s.Lower:
		tag = pwdLowerTag
	case !s.Upper:
		tag = pwdUpperTag
	case !s.Digit:
		tag = pwdDigitTag
	case !s.Distinct:
		tag = pwdSimilarTag
	default:
		return
	}
	sl.ReportError(pwd, "password", "Password", tag, "")
}

func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	value := ""
	if !strings.Contains(strings.ToLower(fe.StructField()), "password") {
		value = fmt.Sprint(fe.Value())
	}
	return validation.Errorf(kindFor(fe.Tag()), fe.Field(), value, "%s", fe.Translate(translator))
}

func kindFor(tag string) validation.Kind {
	switch tag {
	case "required":
		return validation.Required
	case "min", "max", "len":
		return validation.LengthOutOfRange
	case "oneof":
		return validation.NotInEnum
	case "numeric", "number":
		return validation.NotAnInteger
	case "eqfield":
		return validation.Mismatch
	case pwdLengthTag, pwdLowerTag, pwdUpperTag, pwdDigitTag, pwdSimilarTag:
		return validation.WeakPassword
	}
	return validation.PatternMismatch
}
