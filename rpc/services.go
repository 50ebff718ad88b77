package rpc

import (
	"context"

	"google.golang.org/grpc"

	"alightgram/model"
)

const (
	AuthServiceName    = "alightgram.v1.AuthService"
	ProfileServiceName = "alightgram.v1.ProfileService"
	SocialServiceName  = "alightgram.v1.SocialService"
	ProjectServiceName = "alightgram.v1.ProjectService"
	CommentServiceName = "alightgram.v1.CommentService"
	ChatServiceName    = "alightgram.v1.ChatService"
)

// FullMethod builds the "/service/method" name seen by interceptors.
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// PublicMethods can be called without an access token.
var PublicMethods = []string{
	FullMethod(AuthServiceName, "CreateAccount"),
	FullMethod(AuthServiceName, "SignInWithPassword"),
	FullMethod(AuthServiceName, "SignInWithGoogle"),
}

// unaryMethod adapts a typed server method to grpc.MethodDesc, decoding the
// request with the connection's codec and running the interceptor chain.
func unaryMethod[S any, Req any, Resp any](service, name string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(service, name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

type AuthServiceServer interface {
	CreateAccount(context.Context, *CreateAccountRequest) (*SessionResponse, error)
	SignInWithPassword(context.Context, *SignInRequest) (*SessionResponse, error)
	SignInWithGoogle(context.Context, *GoogleSignInRequest) (*SessionResponse, error)
	SignOut(context.Context, *Empty) (*Empty, error)
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(AuthServiceName, "CreateAccount", AuthServiceServer.CreateAccount),
		unaryMethod(AuthServiceName, "SignInWithPassword", AuthServiceServer.SignInWithPassword),
		unaryMethod(AuthServiceName, "SignInWithGoogle", AuthServiceServer.SignInWithGoogle),
		unaryMethod(AuthServiceName, "SignOut", AuthServiceServer.SignOut),
	},
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

type ProfileServiceServer interface {
	GetProfile(context.Context, *UserRequest) (*ProfileResponse, error)
	ListProfiles(context.Context, *Empty) (*ProfilesResponse, error)
	SearchProfiles(context.Context, *SearchRequest) (*ProfilesResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
}

var ProfileServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfileServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ProfileServiceName, "GetProfile", ProfileServiceServer.GetProfile),
		unaryMethod(ProfileServiceName, "ListProfiles", ProfileServiceServer.ListProfiles),
		unaryMethod(ProfileServiceName, "SearchProfiles", ProfileServiceServer.SearchProfiles),
		unaryMethod(ProfileServiceName, "UpdateProfile", ProfileServiceServer.UpdateProfile),
	},
}

func RegisterProfileServiceServer(s grpc.ServiceRegistrar, srv ProfileServiceServer) {
	s.RegisterService(&ProfileServiceDesc, srv)
}

type SocialServiceServer interface {
	Follow(context.Context, *FollowRequest) (*FollowResponse, error)
	Unfollow(context.Context, *FollowRequest) (*FollowResponse, error)
	IsFollowing(context.Context, *FollowRequest) (*IsFollowingResponse, error)
	ListFollowers(context.Context, *UserRequest) (*EdgesResponse, error)
	ListFollowing(context.Context, *UserRequest) (*EdgesResponse, error)
	GetCounts(context.Context, *UserRequest) (*models.FollowCounts, error)
	GetPresence(context.Context, *UserRequest) (*PresenceResponse, error)
	OnlineStatuses(context.Context, *Empty) (*OnlineStatusesResponse, error)
}

var SocialServiceDesc = grpc.ServiceDesc{
	ServiceName: SocialServiceName,
	HandlerType: (*SocialServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(SocialServiceName, "Follow", SocialServiceServer.Follow),
		unaryMethod(SocialServiceName, "Unfollow", SocialServiceServer.Unfollow),
		unaryMethod(SocialServiceName, "IsFollowing", SocialServiceServer.IsFollowing),
		unaryMethod(SocialServiceName, "ListFollowers", SocialServiceServer.ListFollowers),
		unaryMethod(SocialServiceName, "ListFollowing", SocialServiceServer.ListFollowing),
		unaryMethod(SocialServiceName, "GetCounts", SocialServiceServer.GetCounts),
		unaryMethod(SocialServiceName, "GetPresence", SocialServiceServer.GetPresence),
		unaryMethod(SocialServiceName, "OnlineStatuses", SocialServiceServer.OnlineStatuses),
	},
}

func RegisterSocialServiceServer(s grpc.ServiceRegistrar, srv SocialServiceServer) {
	s.RegisterService(&SocialServiceDesc, srv)
}

type ProjectServiceServer interface {
	CreateProject(context.Context, *CreateProjectRequest) (*ProjectResponse, error)
	GetProject(context.Context, *ProjectRequest) (*ProjectResponse, error)
	UpdateProject(context.Context, *UpdateProjectRequest) (*ProjectResponse, error)
	DeleteProject(context.Context, *ProjectRequest) (*Empty, error)
	ListFeed(context.Context, *Empty) (*ProjectsResponse, error)
	ListProjectsForOwner(context.Context, *UserRequest) (*ProjectsResponse, error)
	SearchProjects(context.Context, *SearchRequest) (*ProjectsResponse, error)
	LikeProject(context.Context, *LikeProjectRequest) (*Empty, error)
	SuggestTags(context.Context, *SuggestTagsRequest) (*TagsResponse, error)
}

var ProjectServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectServiceName,
	HandlerType: (*ProjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ProjectServiceName, "CreateProject", ProjectServiceServer.CreateProject),
		unaryMethod(ProjectServiceName, "GetProject", ProjectServiceServer.GetProject),
		unaryMethod(ProjectServiceName, "UpdateProject", ProjectServiceServer.UpdateProject),
		unaryMethod(ProjectServiceName, "DeleteProject", ProjectServiceServer.DeleteProject),
		unaryMethod(ProjectServiceName, "ListFeed", ProjectServiceServer.ListFeed),
		unaryMethod(ProjectServiceName, "ListProjectsForOwner", ProjectServiceServer.ListProjectsForOwner),
		unaryMethod(ProjectServiceName, "SearchProjects", ProjectServiceServer.SearchProjects),
		unaryMethod(ProjectServiceName, "LikeProject", ProjectServiceServer.LikeProject),
		unaryMethod(ProjectServiceName, "SuggestTags", ProjectServiceServer.SuggestTags),
	},
}

func RegisterProjectServiceServer(s grpc.ServiceRegistrar, srv ProjectServiceServer) {
	s.RegisterService(&ProjectServiceDesc, srv)
}

type CommentServiceServer interface {
	AddComment(context.Context, *AddCommentRequest) (*CommentResponse, error)
	ListComments(context.Context, *ListCommentsRequest) (*CommentsResponse, error)
}

var CommentServiceDesc = grpc.ServiceDesc{
	ServiceName: CommentServiceName,
	HandlerType: (*CommentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(CommentServiceName, "AddComment", CommentServiceServer.AddComment),
		unaryMethod(CommentServiceName, "ListComments", CommentServiceServer.ListComments),
	},
}

func RegisterCommentServiceServer(s grpc.ServiceRegistrar, srv CommentServiceServer) {
	s.RegisterService(&CommentServiceDesc, srv)
}

type ChatServiceServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*MessageResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*MessagesResponse, error)
	ListChats(context.Context, *Empty) (*ChatsResponse, error)
}

var ChatServiceDesc = grpc.ServiceDesc{
	ServiceName: ChatServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(ChatServiceName, "SendMessage", ChatServiceServer.SendMessage),
		unaryMethod(ChatServiceName, "ListMessages", ChatServiceServer.ListMessages),
		unaryMethod(ChatServiceName, "ListChats", ChatServiceServer.ListChats),
	},
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatServiceDesc, srv)
}
