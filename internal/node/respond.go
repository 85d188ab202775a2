package node

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var tagNamesOnce sync.Once

// Respond writes err as {"message", "errors"} with the status derived from its kind.
// The full error is attached to the gin context for the access log only.
func Respond(c *gin.Context, err error) {
	_ = c.Error(err)
	body := gin.H{"message": apperr.PublicMessage(err)}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}
	c.AbortWithStatusJSON(apperr.Status(err), body)
}

// Bind decodes the JSON body into req and validates its binding tags. Failures come
// back as a validation error listing each violated field by its JSON name.
func Bind(c *gin.Context, req any) error {
	tagNamesOnce.Do(useJSONFieldNames)
	if err := c.ShouldBindJSON(req); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.FieldError{
				Field:   fe.Field(),
				Message: describeTag(fe),
			})
		}
		return apperr.Validation(fields...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperr.Validation(apperr.FieldError{
			Field:   typeErr.Field,
			Message: "must be " + typeErr.Type.String(),
		})
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation(apperr.FieldError{Field: "body", Message: "required"})
	}
	return apperr.Validation(apperr.FieldError{Field: "body", Message: "malformed JSON"})
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "uuid":
		return "must be a UUID"
	default:
		return "failed " + fe.Tag()
	}
}

func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
}
