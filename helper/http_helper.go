package helper

import (
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	en_locale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"gopkg.in/go-playground/validator.v9"
	en_translations "gopkg.in/go-playground/validator.v9/translations/en"

	"watermap-api/models"
)

const (
	textError = `error`
	textOk    = `ok`

	codeSuccess         = 200
	codeBadRequestError = 400
	codeUnauthorized    = 401
	codeForbidden       = 403
	codeNotFound        = 404
	codeConflict        = 409
	codeValidationError = 422
	codeServerError     = 500
)

// ResponseHelper ...
type ResponseHelper struct {
	C        *gin.Context
	Status   string
	Message  string
	Data     interface{}
	Code     int
	CodeType string
}

// HTTPHelper ...
type HTTPHelper struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

func NewHTTPHelper() *HTTPHelper {
	validate := validator.New()
	enLocale := en_locale.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	return &HTTPHelper{
		Validate:   validate,
		Translator: translator,
	}
}

// ValidateStruct runs struct-tag validation and, on failure, writes the
// translated field-error map to the response. Returns false when invalid.
func (u *HTTPHelper) ValidateStruct(c *gin.Context, s interface{}) bool {
	if err := u.Validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			u.SendFieldValidationError(c, validationErrors)
		} else {
			u.SendBadRequest(c, err.Error(), u.EmptyJsonMap())
		}
		return false
	}
	return true
}

// SetResponse ...
// Set response data.
func (u *HTTPHelper) SetResponse(c *gin.Context, status string, message string, data interface{}, code int, codeType string) ResponseHelper {
	return ResponseHelper{c, status, message, data, code, codeType}
}

// SendError ...
// Send error response to consumers.
func (u *HTTPHelper) SendError(c *gin.Context, message string, data interface{}, code int, codeType string) error {
	res := u.SetResponse(c, textError, message, data, code, codeType)

	return u.SendResponse(res)
}

// SendBadRequest ...
// Send bad request response to consumers.
func (u *HTTPHelper) SendBadRequest(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeBadRequestError, `badRequest`)
}

// SendFieldValidationError ...
// Send translated struct-validation errors to consumers.
func (u *HTTPHelper) SendFieldValidationError(c *gin.Context, validationErrors validator.ValidationErrors) error {
	errorResponse := map[string][]string{}
	errorTranslation := validationErrors.Translate(u.Translator)
	for _, err := range validationErrors {
		errKey := Underscore(err.StructField())
		errorResponse[errKey] = append(errorResponse[errKey], errorTranslation[err.Namespace()])
	}

	c.JSON(http.StatusBadRequest, map[string]interface{}{
		"code":         codeValidationError,
		"code_type":    "validationError",
		"code_message": errorResponse,
		"data":         u.EmptyJsonMap(),
	})
	return nil
}

// SendValidationError ...
// Send the full collected error list for an invalid submission.
func (u *HTTPHelper) SendValidationError(c *gin.Context, message string, errs []string) error {
	return u.SendError(c, message, map[string]interface{}{"errors": errs}, codeValidationError, `validationError`)
}

// SendUnauthorizedError ...
// Send unauthorized response to consumers.
func (u *HTTPHelper) SendUnauthorizedError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeUnauthorized, `unAuthorized`)
}

// SendForbiddenError ...
// Send forbidden response to consumers.
func (u *HTTPHelper) SendForbiddenError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeForbidden, `forbidden`)
}

// SendNotFoundError ...
// Send not found response to consumers.
func (u *HTTPHelper) SendNotFoundError(c *gin.Context, message string, data interface{}) error {
	return u.SendError(c, message, data, codeNotFound, `notFound`)
}

// SendSuccess ...
// Send success response to consumers.
func (u *HTTPHelper) SendSuccess(c *gin.Context, message string, data interface{}) error {
	res := u.SetResponse(c, textOk, message, data, codeSuccess, `success`)

	return u.SendResponse(res)
}

// SendServiceError maps domain errors onto the response envelope. Unknown
// errors are reported opaquely; the store failure details stay in the logs.
func (u *HTTPHelper) SendServiceError(c *gin.Context, err error) error {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return u.SendValidationError(c, "Validation failed", validationErr.Errors)
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUserNotFound):
		return u.SendNotFoundError(c, err.Error(), u.EmptyJsonMap())
	case errors.Is(err, models.ErrForbidden):
		return u.SendForbiddenError(c, err.Error(), u.EmptyJsonMap())
	case errors.Is(err, models.ErrInvalidCredentials):
		return u.SendUnauthorizedError(c, err.Error(), u.EmptyJsonMap())
	case errors.Is(err, models.ErrPublishConflict):
		return u.SendError(c, err.Error(), u.EmptyJsonMap(), codeConflict, `conflict`)
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrCannotDeletePublished),
		errors.Is(err, models.ErrMissingReason),
		errors.Is(err, models.ErrSelfDemotion),
		errors.Is(err, models.ErrEmailTaken):
		return u.SendBadRequest(c, err.Error(), u.EmptyJsonMap())
	default:
		return u.SendError(c, "Server error", u.EmptyJsonMap(), codeServerError, `serverError`)
	}
}

// SendResponse ...
// Send response
func (u *HTTPHelper) SendResponse(res ResponseHelper) error {
	if len(res.Message) == 0 {
		res.Message = `success`
	}

	var resCode int
	switch res.Code {
	case codeSuccess:
		resCode = http.StatusOK
	case codeUnauthorized:
		resCode = http.StatusUnauthorized
	case codeForbidden:
		resCode = http.StatusForbidden
	case codeNotFound:
		resCode = http.StatusNotFound
	case codeConflict:
		resCode = http.StatusConflict
	case codeValidationError:
		resCode = http.StatusUnprocessableEntity
	case codeServerError:
		resCode = http.StatusInternalServerError
	default:
		resCode = http.StatusBadRequest
	}

	res.C.JSON(resCode, map[string]interface{}{
		"code":         res.Code,
		"code_type":    res.CodeType,
		"code_message": res.Message,
		"data":         res.Data,
	})
	return nil
}

func (u *HTTPHelper) EmptyJsonMap() map[string]interface{} {
	return make(map[string]interface{})
}

// Underscore converts a StructField name to its snake_case JSON key.
func Underscore(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && !unicode.IsUpper(runes[i-1]) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
