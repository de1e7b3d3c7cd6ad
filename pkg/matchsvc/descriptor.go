// Package matchsvc exposes a matcher.Matcher as a gRPC service. It carries
// requests and responses as google.protobuf.Struct values (structpb) rather
// than generated message types, so a caller needs no compiled .proto client
// to drive it; a small descriptor compiled at package init time still
// describes the service and method names for gRPC server reflection.
package matchsvc

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

// protoFilename is the synthetic path the service descriptor is registered
// under, both in the parser's virtual filesystem and as the
// grpc.ServiceDesc.Metadata the reflection service looks files up by.
const protoFilename = "tamatch/v1/match_service.proto"

// protoSource declares the MatchService method signature purely for
// discovery purposes: both MatchRequest and MatchResponse are carried on
// the wire as plain google.protobuf.Struct values, assembled and read by
// pkg/matchsvc's Server directly via structpb rather than through this
// descriptor.
const protoSource = `
syntax = "proto3";

package tamatch.v1;

import "google/protobuf/struct.proto";

service MatchService {
  rpc Match(google.protobuf.Struct) returns (google.protobuf.Struct);
}
`

var fileDescriptor *desc.FileDescriptor

func init() {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{protoFilename: protoSource}),
	}
	fds, err := parser.ParseFiles(protoFilename)
	if err != nil {
		panic(fmt.Sprintf("matchsvc: compiling service descriptor: %v", err))
	}
	fileDescriptor = fds[0]
}

// serviceDescriptor returns the compiled MatchService descriptor.
func serviceDescriptor() *desc.ServiceDescriptor {
	return fileDescriptor.GetServices()[0]
}
