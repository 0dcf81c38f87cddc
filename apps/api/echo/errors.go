package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kmutombo/veridoc/core"
	"github.com/kmutombo/veridoc/core/catalog"
	"github.com/kmutombo/veridoc/core/user"
	"github.com/kmutombo/veridoc/core/verification"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *verification.InvalidRequirementError:
			code = http.StatusBadRequest
			message = echo.Map{"error": origErr.Error(), "requirement_id": origErr.RequirementID}
		case *verification.FileTooLargeError:
			code = http.StatusBadRequest
			message = echo.Map{
				"error":          origErr.Error(),
				"requirement_id": origErr.RequirementID,
				"file_size":      origErr.Size,
				"max_file_size":  origErr.MaxSize,
			}
		case *verification.UnsupportedFileTypeError:
			code = http.StatusBadRequest
			message = echo.Map{
				"error":          origErr.Error(),
				"requirement_id": origErr.RequirementID,
				"file_type":      origErr.Ext,
				"allowed_types":  origErr.Allowed,
			}
		case *verification.MissingRequiredDocumentError:
			code = http.StatusBadRequest
			message = echo.Map{"error": origErr.Error(), "requirement_ids": origErr.RequirementIDs}
		default:
			switch errors.Cause(err) {
			case core.ErrPermissionDenied:
				code = http.StatusForbidden
				message = errHttpForbidden.Message
			case user.ErrNotFound,
				catalog.ErrCountryNotFound,
				catalog.ErrRequirementNotFound,
				verification.ErrRequestNotFound,
				verification.ErrDocumentNotFound:
				code = http.StatusNotFound
				message = errHttpNotFound.Message
			case verification.ErrInvalidTransition, verification.ErrNotResubmittable:
				code = http.StatusConflict
				message = errors.Cause(err).Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr.ID = claims.Subject
					usr.Username = claims.Username
					usr.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
