package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"seatledger.io/ledger/internal/api/openapi"
	"seatledger.io/ledger/internal/pkg/logger"
)

const (
	codeOpenAPIRouteInvalid    = "OPENAPI_ROUTE_INVALID"
	codeOpenAPIRequestInvalid  = "OPENAPI_REQUEST_INVALID"
	codeOpenAPIResponseInvalid = "OPENAPI_RESPONSE_INVALID"

	openAPIResponseValidationMessage = "response does not conform to OpenAPI contract"
)

// skipAuthentication leaves bearer checks to JWTAuth.
func skipAuthentication(context.Context, *openapi3filter.AuthenticationInput) error {
	return nil
}

// MustOpenAPIValidator creates an OpenAPI runtime validator middleware and panics on setup failure.
func MustOpenAPIValidator(basePath string) gin.HandlerFunc {
	mw, err := NewOpenAPIValidator(basePath)
	if err != nil {
		panic(fmt.Sprintf("init openapi validator: %v", err))
	}
	return mw
}

// NewOpenAPIValidator validates requests and responses under basePath against
// the embedded ledger contract. Paths the contract does not describe pass through.
func NewOpenAPIValidator(basePath string) (gin.HandlerFunc, error) {
	doc, err := openapi.Load()
	if err != nil {
		return nil, err
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("create openapi router: %w", err)
	}

	basePath = normalizeBasePath(basePath)

	return func(c *gin.Context) {
		origPath := c.Request.URL.Path
		origRawPath := c.Request.URL.RawPath
		restore := func() {
			c.Request.URL.Path = origPath
			c.Request.URL.RawPath = origRawPath
		}

		route, pathParams, routeErr := findRouteWithFallback(router, c.Request, basePath)
		if routeErr != nil {
			restore()
			if isPathNotFoundError(routeErr) {
				c.Next()
				return
			}
			abortWithOpenAPIError(c, http.StatusBadRequest, codeOpenAPIRouteInvalid, routeErr.Error())
			return
		}

		reqInput := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: skipAuthentication,
			},
		}
		err := openapi3filter.ValidateRequest(c.Request.Context(), reqInput)
		restore()
		if err != nil {
			abortWithOpenAPIError(c, http.StatusBadRequest, codeOpenAPIRequestInvalid, requestErrorMessage(err))
			return
		}

		buffered := newBufferedResponseWriter(c.Writer)
		c.Writer = buffered
		c.Next()

		respInput := &openapi3filter.ResponseValidationInput{
			RequestValidationInput: reqInput,
			Status:                 buffered.Status(),
			Header:                 buffered.Header().Clone(),
			Options: &openapi3filter.Options{
				AuthenticationFunc: skipAuthentication,
			},
		}
		if buffered.Size() > 0 {
			respInput.SetBodyBytes(buffered.body.Bytes())
		}

		if err := openapi3filter.ValidateResponse(c.Request.Context(), respInput); err != nil {
			logger.Error("OpenAPI response validation failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", buffered.Status()),
				zap.Error(err),
			)
			buffered.ResetJSON(http.StatusInternalServerError, ErrorResponse{
				Code:    codeOpenAPIResponseInvalid,
				Message: openAPIResponseValidationMessage,
			})
		}

		if _, err := buffered.FlushToOriginal(); err != nil {
			logger.Warn("Buffered response not flushed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}
	}, nil
}

// requestErrorMessage keeps the schema reason and drops the echoed request body.
func requestErrorMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("parameter %q: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		if reqErr.Err != nil {
			return strings.SplitN(reqErr.Err.Error(), "\n", 2)[0]
		}
		return reqErr.Reason
	}
	return err.Error()
}

func normalizeBasePath(basePath string) string {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" || basePath == "/" {
		return ""
	}
	return "/" + strings.Trim(basePath, "/")
}

func normalizeValidationPath(basePath, path string) string {
	if basePath == "" {
		if path == "" {
			return "/"
		}
		return path
	}
	if path == basePath {
		return "/"
	}
	if strings.HasPrefix(path, basePath+"/") {
		return "/" + strings.TrimPrefix(path, basePath+"/")
	}
	return path
}

func findRouteWithFallback(
	router routers.Router,
	req *http.Request,
	basePath string,
) (*routers.Route, map[string]string, error) {
	origPath := req.URL.Path
	origRawPath := req.URL.RawPath

	candidates := [][2]string{{origPath, origRawPath}}
	normalizedPath := normalizeValidationPath(basePath, origPath)
	normalizedRawPath := origRawPath
	if origRawPath != "" {
		normalizedRawPath = normalizeValidationPath(basePath, origRawPath)
	}
	if normalizedPath != origPath || normalizedRawPath != origRawPath {
		candidates = append(candidates, [2]string{normalizedPath, normalizedRawPath})
	}

	var lastErr error
	for _, candidate := range candidates {
		req.URL.Path = candidate[0]
		req.URL.RawPath = candidate[1]

		route, pathParams, err := router.FindRoute(req)
		if err == nil {
			return route, pathParams, nil
		}
		if !isPathNotFoundError(err) {
			return nil, nil, err
		}
		lastErr = err
	}

	req.URL.Path = origPath
	req.URL.RawPath = origRawPath
	return nil, nil, lastErr
}

func isPathNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, routers.ErrPathNotFound) || strings.Contains(err.Error(), routers.ErrPathNotFound.Error()) {
		return true
	}
	var routeErr *routers.RouteError
	return errors.As(err, &routeErr) && strings.Contains(routeErr.Reason, routers.ErrPathNotFound.Error())
}

func abortWithOpenAPIError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

type bufferedResponseWriter struct {
	gin.ResponseWriter
	body        bytes.Buffer
	statusCode  int
	wroteHeader bool
	size        int
}

func newBufferedResponseWriter(w gin.ResponseWriter) *bufferedResponseWriter {
	return &bufferedResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (w *bufferedResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.statusCode = code
	w.wroteHeader = true
}

func (w *bufferedResponseWriter) WriteHeaderNow() {
	if !w.wroteHeader {
		w.wroteHeader = true
	}
}

func (w *bufferedResponseWriter) Write(data []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.body.Write(data)
	w.size += n
	return n, err
}

func (w *bufferedResponseWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *bufferedResponseWriter) Status() int {
	if !w.wroteHeader {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *bufferedResponseWriter) Size() int {
	return w.size
}

func (w *bufferedResponseWriter) Written() bool {
	return w.wroteHeader
}

func (w *bufferedResponseWriter) ResetJSON(statusCode int, payload ErrorResponse) {
	w.statusCode = statusCode
	w.wroteHeader = true
	w.body.Reset()
	w.size = 0
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{"code":"OPENAPI_RESPONSE_INVALID","message":"response does not conform to OpenAPI contract"}`)
	}
	_, _ = w.Write(data)
}

func (w *bufferedResponseWriter) FlushToOriginal() (int, error) {
	w.ResponseWriter.WriteHeader(w.Status())
	if w.body.Len() == 0 {
		return 0, nil
	}
	return w.ResponseWriter.Write(w.body.Bytes())
}
