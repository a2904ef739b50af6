package Controllers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/exp/slices"

	"AuditDesk/AbstractFunctions"
)

// Validator checks request bodies and renders failures in English.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator registers the branch, tasktype and journaldate tags against
// the configured lists.
func NewValidator(branches, taskTypes []string) (*Validator, error) {
	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	custom := []struct {
		tag     string
		message string
		fn      validator.Func
	}{
		{"branch", "{0} must be one of the configured branches", oneOfList(branches)},
		{"tasktype", "{0} must be one of the configured task types", oneOfList(taskTypes)},
		{"journaldate", "{0} must be a date such as 27/Dec/2025", func(fl validator.FieldLevel) bool {
			_, ok := AbstractFunctions.ParseDate(fl.Field().String())
			return ok
		}},
	}
	for _, c := range custom {
		if err := v.RegisterValidation(c.tag, c.fn); err != nil {
			return nil, err
		}
		tag, message := c.tag, c.message
		err := v.RegisterTranslation(tag, trans,
			func(t ut.Translator) error { return t.Add(tag, message, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field())
				return msg
			})
		if err != nil {
			return nil, err
		}
	}

	return &Validator{validate: v, trans: trans}, nil
}

func oneOfList(allowed []string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// Struct validates s and returns field name to message for each failure.
func (v *Validator) Struct(s interface{}) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.trans)
	}
	return out
}

// parseBody decodes and validates the request body. It writes the 400
// response itself and reports whether the handler should continue.
func (v *Validator) parseBody(ctx *fiber.Ctx, out interface{}) (bool, error) {
	if err := ctx.BodyParser(out); err != nil {
		return false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if fields := v.Struct(out); fields != nil {
		messages := make([]string, 0, len(fields))
		for _, m := range fields {
			messages = append(messages, m)
		}
		slices.Sort(messages)
		return false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  strings.Join(messages, "; "),
			"fields": fields,
		})
	}
	return true, nil
}
