package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// =============================================================================
// Validation
// =============================================================================

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var (
	errEmptyBody    = errors.New("empty body")
	errTrailingData = errors.New("unexpected trailing data")
)

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

// validation returns the shared validator with english messages and json
// field names.
func validation() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerMessage(v, trans, "min", "{0} must be at least {1}", true)
		registerMessage(v, trans, "max", "{0} must be at most {1}", true)

		_ = v.RegisterValidation("provincia", func(fl validator.FieldLevel) bool {
			_, ok := domain.LookupProvincia(fl.Field().String())
			return ok
		})
		registerMessage(v, trans, "provincia", "{0} must be a Costa Rica provincia", false)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// registerMessage overrides the message of tag. withParam passes the tag
// parameter as {1}.
func registerMessage(v *validator.Validate, trans ut.Translator, tag, text string, withParam bool) {
	_ = v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, text, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			params := []string{fe.Field()}
			if withParam {
				params = append(params, fe.Param())
			}
			msg, err := t.T(tag, params...)
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// validateStruct validates v and returns the first translated message.
func validateStruct(v any) error {
	svc := validation()
	err := svc.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(verrs[0].Translate(svc.translator))
	}
	return err
}

// decodeJSON decodes a single JSON object from the request body into T and
// validates it. Unknown fields are rejected.
func decodeJSON[T any](r *http.Request) (T, error) {
	var dst T
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dst, errEmptyBody
		}
		return dst, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return dst, errTrailingData
	}
	if err := validateStruct(dst); err != nil {
		return dst, err
	}
	return dst, nil
}
