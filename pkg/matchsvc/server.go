package matchsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tamatch/tamatch/internal/matcherbuild"
	"github.com/tamatch/tamatch/pkg/matcher"
)

// Server exposes one matcher.Matcher as the tamatch.v1.MatchService gRPC
// service. Matching an observation sequence mutates the Matcher's installed
// observation data and (unless useExistingMatcher is set) its built matcher
// model, mirroring the single stateful matching session the underlying
// orchestrator models; Server serializes calls with a mutex rather than
// running requests against the shared Matcher concurrently.
type Server struct {
	mu sync.Mutex
	m  *matcher.Matcher
}

// New returns a Server wrapping m. The caller must have already installed
// a model on m via matcher.Matcher.SetModel.
func New(m *matcher.Matcher) *Server {
	return &Server{m: m}
}

// RegisterMatchService registers s on grpcServer under the descriptor
// compiled in descriptor.go, so the service both answers RPCs and is
// discoverable via EnableReflection.
func RegisterMatchService(grpcServer *grpc.Server, s *Server) {
	method := serviceDescriptor().GetMethods()[0]

	sd := &grpc.ServiceDesc{
		ServiceName: serviceDescriptor().GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: method.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				impl := srv.(*Server)
				req := &structpb.Struct{}
				if err := dec(req); err != nil {
					return nil, err
				}
				return impl.handleMatch(ctx, req)
			},
		}},
		Metadata: protoFilename,
	}
	grpcServer.RegisterService(sd, s)
}

// handleMatch decodes a MatchRequest-shaped Struct, runs the match, and
// re-encodes the result as a MatchResponse-shaped Struct:
//
//	{observation: [...], return_trace, use_existing_matcher, use_prepared}
//	-> {is_matching, is_timeout, matching_trace}
func (s *Server) handleMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	obsVal, ok := req.GetFields()["observation"]
	if !ok {
		return nil, fmt.Errorf("matchsvc: request missing \"observation\" field")
	}
	obsJSON, err := obsVal.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("matchsvc: encoding observation: %w", err)
	}
	var obs []matcherbuild.DataPoint
	if err := json.Unmarshal(obsJSON, &obs); err != nil {
		return nil, fmt.Errorf("matchsvc: decoding observation: %w", err)
	}

	returnTrace := boolField(req, "return_trace")
	useExisting := boolField(req, "use_existing_matcher")
	usePrepared := boolField(req, "use_prepared")

	s.mu.Lock()
	res, err := s.m.Match(ctx, obs, returnTrace, useExisting, usePrepared)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"is_matching": res.IsMatching,
		"is_timeout":  res.IsTimeout,
	}
	if res.MatchingTrace != nil {
		traceMap, err := traceToMap(res.MatchingTrace)
		if err != nil {
			return nil, err
		}
		out["matching_trace"] = traceMap
	}

	resp, err := structpb.NewStruct(out)
	if err != nil {
		return nil, fmt.Errorf("matchsvc: building response: %w", err)
	}
	return resp, nil
}

func traceToMap(trace interface{}) (map[string]interface{}, error) {
	traceJSON, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("matchsvc: encoding matching trace: %w", err)
	}
	var traceMap map[string]interface{}
	if err := json.Unmarshal(traceJSON, &traceMap); err != nil {
		return nil, fmt.Errorf("matchsvc: decoding matching trace: %w", err)
	}
	return traceMap, nil
}

func boolField(s *structpb.Struct, name string) bool {
	v, ok := s.GetFields()[name]
	if !ok {
		return false
	}
	return v.GetBoolValue()
}
