package grpc

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/DRSN-tech/storefront/pkg/e"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// internalMethods доступны только внутренним сервисам с общим токеном.
var internalMethods = map[string]bool{
	GetCartCountFullMethod: true,
}

// internalTokenInterceptor требует "authorization: Bearer <token>" для internalMethods.
// Пока токен не настроен, эти методы закрыты.
func internalTokenInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !internalMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		if token == "" || !hasToken(ctx, token) {
			return nil, GRPCErrorResponse(e.Wrap(info.FullMethod, e.ErrUnauthorized))
		}

		return handler(ctx, req)
	}
}

func hasToken(ctx context.Context, token string) bool {
	const prefix = "bearer "

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return false
	}

	for _, v := range md.Get("authorization") {
		if len(v) > len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) &&
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(v[len(prefix):])), []byte(token)) == 1 {
			return true
		}
	}
	return false
}
