package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/models"
)

// jsonCodecName is registered with grpc's encoding package so connections
// negotiate it via grpc.CallContentSubtype, letting RemoteProvider talk to
// a sidecar image search service without any protoc-generated message
// types: requests and replies are plain structs marshaled as JSON over the
// gRPC framing, rather than protobuf wire format.
const jsonCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return jsonCodecName }

var registerCodecOnce sync.Once

func registerJSONCodec() {
	registerCodecOnce.Do(func() {
		encoding.RegisterCodec(jsonCodec{})
	})
}

// searchMethod is the fully-qualified gRPC method name RemoteProvider
// invokes and ServiceDesc serves, in place of a protoc-generated
// fully-qualified service path.
const searchMethod = "/imagesearch.v1.ImageSearch/Search"

// wireSearchRequest is the JSON payload sent to the sidecar.
type wireSearchRequest struct {
	Topic   string `json:"topic"`
	PerPage int32  `json:"perPage"`
}

// wireSearchReply is the JSON payload returned by the sidecar.
type wireSearchReply struct {
	Images []models.Image `json:"images"`
}

// RemoteProvider queries an image search sidecar over gRPC using a plain
// JSON codec instead of generated protobuf bindings, so the service
// contract lives in this file rather than in build-time generated code.
type RemoteProvider struct {
	conn *grpc.ClientConn
}

// NewRemoteProvider dials a sidecar image search service at address.
func NewRemoteProvider(address string) (*RemoteProvider, error) {
	registerJSONCodec()

	conn, err := grpc.NewClient(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dial image search sidecar: %w", err)
	}
	return &RemoteProvider{conn: conn}, nil
}

// Close releases the underlying gRPC connection.
func (p *RemoteProvider) Close() error {
	return p.conn.Close()
}

// Search invokes the sidecar's Search method for topic.
func (p *RemoteProvider) Search(ctx context.Context, topic string, perPage int) ([]models.Image, error) {
	req := &wireSearchRequest{Topic: topic, PerPage: int32(perPage)}
	reply := &wireSearchReply{}
	if err := p.conn.Invoke(ctx, searchMethod, req, reply); err != nil {
		return nil, errs.New(errs.KindAIOverloaded, fmt.Errorf("image search sidecar call: %w", err))
	}
	for i := range reply.Images {
		reply.Images[i].Topic = topic
	}
	return reply.Images, nil
}

// SearchHandler is implemented by a sidecar image search server.
type SearchHandler interface {
	Search(ctx context.Context, topic string, perPage int) ([]models.Image, error)
}

func searchHandlerFunc(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wireSearchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	handler := srv.(SearchHandler)
	if interceptor == nil {
		images, err := handler.Search(ctx, req.Topic, int(req.PerPage))
		if err != nil {
			return nil, err
		}
		return &wireSearchReply{Images: images}, nil
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: searchMethod}
	wrapped := func(ctx context.Context, req any) (any, error) {
		r := req.(*wireSearchRequest)
		images, err := handler.Search(ctx, r.Topic, int(r.PerPage))
		if err != nil {
			return nil, err
		}
		return &wireSearchReply{Images: images}, nil
	}
	return interceptor(ctx, req, info, wrapped)
}

// ServiceDesc registers SearchHandler against a *grpc.Server without any
// protoc-generated service descriptor, mirroring RemoteProvider's
// hand-rolled client-side contract. Used by an image search sidecar
// process, and by tests that stand in for one.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "imagesearch.v1.ImageSearch",
	HandlerType: (*SearchHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Search", Handler: searchHandlerFunc},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "imagesearch.proto",
}
