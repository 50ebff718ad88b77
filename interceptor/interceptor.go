package interceptor

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"alightgram/model"
	"alightgram/pkg/jwt"
	"alightgram/repository"
)

// ContextKey type for context keys
type ContextKey string

const (
	UserIDKey    ContextKey = "user_id"
	PrincipalKey ContextKey = "principal"
)

// AuthInterceptor provides gRPC interceptor for JWT authentication
type AuthInterceptor struct {
	tokens        *jwt.Manager
	revocations   repository.TokenRevocations
	publicMethods map[string]bool
}

// NewAuthInterceptor creates a new auth interceptor with public methods
func NewAuthInterceptor(tokens *jwt.Manager, revocations repository.TokenRevocations, publicMethods []string) *AuthInterceptor {
	methodMap := make(map[string]bool)
	for _, method := range publicMethods {
		methodMap[method] = true
	}

	return &AuthInterceptor{
		tokens:        tokens,
		revocations:   revocations,
		publicMethods: methodMap,
	}
}

// AddPublicMethods adds multiple methods that don't require authentication
func (interceptor *AuthInterceptor) AddPublicMethods(methods []string) {
	for _, method := range methods {
		interceptor.publicMethods[method] = true
	}
}

// Unary returns a server interceptor function to authenticate and authorize unary RPC
func (interceptor *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if interceptor.publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		principal, err := interceptor.authorize(ctx)
		if err != nil {
			return nil, err
		}

		return handler(WithPrincipal(ctx, principal), req)
	}
}

// Stream returns a server interceptor function to authenticate and authorize stream RPC
func (interceptor *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if interceptor.publicMethods[info.FullMethod] {
			return handler(srv, stream)
		}

		principal, err := interceptor.authorize(stream.Context())
		if err != nil {
			return err
		}

		wrappedStream := &wrappedStream{
			ServerStream: stream,
			ctx:          WithPrincipal(stream.Context(), principal),
		}

		return handler(srv, wrappedStream)
	}
}

// authorize verifies the bearer token carried in the request metadata
func (interceptor *AuthInterceptor) authorize(ctx context.Context) (*models.Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is not provided")
	}

	values := md["authorization"]
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is not provided")
	}

	token, ok := BearerToken(values[0])
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "invalid authorization format")
	}

	principal, err := interceptor.Authenticate(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, fmt.Sprintf("invalid token: %v", err))
	}

	return principal, nil
}

// Authenticate verifies a raw access token and checks that it was not signed
// out. The HTTP gateway and websocket sessions share it with the gRPC path.
func (interceptor *AuthInterceptor) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := interceptor.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := interceptor.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("token has been signed out")
	}

	return &models.Principal{
		UID:         claims.UserID,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
		Token:       token,
	}, nil
}

// BearerToken strips the "Bearer " scheme from an authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// wrappedStream wraps grpc.ServerStream with a custom context
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context {
	return w.ctx
}

// WithPrincipal stores the signed-in principal and its uid in ctx.
func WithPrincipal(ctx context.Context, principal *models.Principal) context.Context {
	ctx = context.WithValue(ctx, PrincipalKey, principal)
	return context.WithValue(ctx, UserIDKey, principal.UID)
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// GetPrincipalFromContext extracts the signed-in principal from context
func GetPrincipalFromContext(ctx context.Context) (*models.Principal, error) {
	principal, ok := ctx.Value(PrincipalKey).(*models.Principal)
	if !ok {
		return nil, fmt.Errorf("principal not found in context")
	}
	return principal, nil
}
