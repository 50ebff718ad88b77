package rpc

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"alightgram/model"
)

type fakeAuth struct {
	lastEmail string
}

func (f *fakeAuth) CreateAccount(ctx context.Context, req *CreateAccountRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.AlreadyExists, "taken")
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, req *SignInRequest) (*SessionResponse, error) {
	f.lastEmail = req.Email
	return &SessionResponse{AccessToken: "tok", Profile: &models.UserProfile{UID: "u1", DisplayName: "Ada"}}, nil
}

func (f *fakeAuth) SignInWithGoogle(ctx context.Context, req *GoogleSignInRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "no google")
}

func (f *fakeAuth) SignOut(ctx context.Context, req *Empty) (*Empty, error) {
	return &Empty{}, nil
}

func dial(t *testing.T, register func(*grpc.Server), opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(opts...)
	register(server)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestUnaryCallOverJSONCodec(t *testing.T) {
	auth := &fakeAuth{}
	conn := dial(t, func(s *grpc.Server) { RegisterAuthServiceServer(s, auth) })

	var resp SessionResponse
	err := conn.Invoke(context.Background(), FullMethod(AuthServiceName, "SignInWithPassword"),
		&SignInRequest{Email: "ada@x.io", Password: "secret1"}, &resp)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if auth.lastEmail != "ada@x.io" {
		t.Fatalf("request not decoded, got email %q", auth.lastEmail)
	}
	if resp.AccessToken != "tok" || resp.Profile == nil || resp.Profile.DisplayName != "Ada" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	err = conn.Invoke(context.Background(), FullMethod(AuthServiceName, "CreateAccount"),
		&CreateAccountRequest{Email: "ada@x.io", Password: "secret1"}, &resp)
	if status.Code(err) != codes.AlreadyExists {
		t.Fatalf("expected AlreadyExists, got %v", err)
	}
}

func TestInterceptorSeesFullMethod(t *testing.T) {
	var seen string
	record := func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}
	conn := dial(t, func(s *grpc.Server) { RegisterAuthServiceServer(s, &fakeAuth{}) }, grpc.UnaryInterceptor(record))

	var resp Empty
	if err := conn.Invoke(context.Background(), FullMethod(AuthServiceName, "SignOut"), &Empty{}, &resp); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if seen != "/alightgram.v1.AuthService/SignOut" {
		t.Fatalf("interceptor saw %q", seen)
	}
}

func TestPublicMethodsAreSignInOnly(t *testing.T) {
	for _, m := range PublicMethods {
		if m == FullMethod(AuthServiceName, "SignOut") {
			t.Fatalf("sign out must require a token")
		}
	}
	if len(PublicMethods) != 3 {
		t.Fatalf("unexpected public methods: %v", PublicMethods)
	}
}
