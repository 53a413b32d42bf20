// Package authpb описывает gRPC-контракт сервиса авторизации
// ugc.auth.v1.AuthService. Сообщения построены на well-known типах protobuf:
// запросы передают токен в StringValue, сессия возвращается как Struct.
package authpb

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/magabrotheeeer/ugc-tracker/internal/models"
)

// Имена сервиса и методов.
const (
	ServiceName         = "ugc.auth.v1.AuthService"
	ValidateTokenMethod = "/" + ServiceName + "/ValidateToken"
	RevokeTokenMethod   = "/" + ServiceName + "/RevokeToken"
)

// AuthServiceServer серверная часть сервиса авторизации.
type AuthServiceServer interface {
	ValidateToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
	RevokeToken(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
}

// AuthServiceDesc описание сервиса для grpc.Server.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ValidateToken", Handler: validateTokenHandler},
		{MethodName: "RevokeToken", Handler: revokeTokenHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ugc/auth/v1/auth.proto",
}

// RegisterAuthServiceServer регистрирует реализацию сервиса.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

func validateTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).ValidateToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateTokenMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).ValidateToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func revokeTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServiceServer).RevokeToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RevokeTokenMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AuthServiceServer).RevokeToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionToStruct кодирует сессию в Struct.
func SessionToStruct(s *models.Session) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"user_id": s.UserID,
		"email":   s.Email,
		"role":    string(s.Role),
	})
}

// SessionFromStruct декодирует сессию из Struct.
func SessionFromStruct(st *structpb.Struct) (*models.Session, error) {
	fields := st.GetFields()
	userID := fields["user_id"].GetStringValue()
	if userID == "" {
		return nil, fmt.Errorf("authpb: session without user_id")
	}
	return &models.Session{
		UserID: userID,
		Email:  fields["email"].GetStringValue(),
		Role:   models.Role(fields["role"].GetStringValue()),
	}, nil
}
