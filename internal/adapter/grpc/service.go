package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the View Layer service
const ServiceName = "multibank.v1.DashboardService"

type rpc func(s *Server, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// DashboardServer is implemented by Server
type DashboardServer interface {
	GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func unary(name string, fn rpc) grpclib.MethodDesc {
	return grpclib.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Server)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the View Layer service. Every method takes and
// returns a google.protobuf.Struct.
var ServiceDesc = grpclib.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpclib.MethodDesc{
		// Queries
		unary("GetSummary", (*Server).GetSummary),
		unary("ListAccounts", (*Server).ListAccounts),
		unary("ListProducts", (*Server).ListProducts),
		unary("GetHistory", (*Server).GetHistory),
		unary("GetQuestState", (*Server).GetQuestState),
		unary("GetCatalog", (*Server).GetCatalog),

		// Commands
		unary("OpenAccount", (*Server).OpenAccount),
		unary("CloseAccount", (*Server).CloseAccount),
		unary("Deposit", (*Server).Deposit),
		unary("Transfer", (*Server).Transfer),
		unary("OpenProduct", (*Server).OpenProduct),
		unary("CloseProduct", (*Server).CloseProduct),
		unary("AssignQuest", (*Server).AssignQuest),
		unary("CompleteQuest", (*Server).CompleteQuest),
		unary("ClaimQuest", (*Server).ClaimQuest),
		unary("MarkQuestCompleted", (*Server).MarkQuestCompleted),
		unary("PurchasePremium", (*Server).PurchasePremium),
		unary("Refresh", (*Server).Refresh),
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "multibank/v1/dashboard.proto",
}

// Register registers the View Layer service on a gRPC server
func Register(registrar grpclib.ServiceRegistrar, s *Server) {
	registrar.RegisterService(&ServiceDesc, s)
}

// Client calls the View Layer service with plain maps
type Client struct {
	conn grpclib.ClientConnInterface
}

// NewClient creates a new Client on an established connection
func NewClient(conn grpclib.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes a method by name
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpclib.CallOption) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}
