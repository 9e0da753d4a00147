package middleware

import (
	"encoding/json"
	"net/http"

	"georegistry-backend/pkg/auth"
	apperrors "georegistry-backend/pkg/errors"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"
)

// Authenticate resolves the caller identity and stores it in the
// request context. Identity comes from the API Gateway Cognito
// authorizer claims when the request arrived through the proxy
// adapter; outside Lambda it falls back to the Bearer token, verified
// against jwtSecret when one is configured. Requests without a
// resolvable identity are rejected with 401.
func Authenticate(jwtSecret string, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := userIDFromGatewayContext(r)
			if userID == "" {
				var err error
				userID, err = userIDFromBearerToken(r, jwtSecret)
				if err != nil {
					appErr := apperrors.NewUnauthorizedError("Unauthorized").WithCause(err)
					logger.Warn("Unauthorized request",
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Error(appErr),
					)
					respondUnauthorized(w, appErr)
					return
				}
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{UserID: userID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userIDFromGatewayContext reads the Cognito subject from the API
// Gateway authorizer context carried by the proxy adapter. The claims
// land either nested under "claims" or flattened onto the authorizer
// map, depending on the authorizer type.
func userIDFromGatewayContext(r *http.Request) string {
	gwCtx, ok := core.GetAPIGatewayContextFromContext(r.Context())
	if !ok || gwCtx.Authorizer == nil {
		return ""
	}

	if claims, ok := gwCtx.Authorizer["claims"].(map[string]interface{}); ok {
		if sub, ok := claims["sub"].(string); ok && sub != "" {
			return sub
		}
	}
	if sub, ok := gwCtx.Authorizer["sub"].(string); ok && sub != "" {
		return sub
	}
	return ""
}

func userIDFromBearerToken(r *http.Request, jwtSecret string) (string, error) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}
	return auth.SubjectFromToken(token, jwtSecret)
}

func respondUnauthorized(w http.ResponseWriter, appErr *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]string{
		"error": appErr.Message,
	})
}
