package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

// requestValidator decodes JSON bodies and validates them against their
// struct tags, producing translated, human-readable messages.
type requestValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newRequestValidator() *requestValidator {
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	return &requestValidator{validate: validate, trans: trans}
}

// DecodeAndValidate parses the request body into dst and validates it. The
// returned message is empty when the payload is well-formed.
func (v *requestValidator) DecodeAndValidate(r *http.Request, dst any) string {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return "invalid request body"
	}

	if err := v.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			messages := make([]string, 0, len(verrs))
			for _, fieldErr := range verrs {
				messages = append(messages, fieldErr.Translate(v.trans))
			}
			return strings.Join(messages, "; ")
		}

		return "invalid request body"
	}

	return ""
}
