package matchsvc

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// EnableReflection registers MatchService's compiled descriptor into the
// process-wide protobuf file registry and turns on gRPC server reflection
// on grpcServer, so a generic client (grpcurl, a reflection-aware UI) can
// discover and call Match without a local .proto copy.
//
// The descriptor is parsed by jhump/protoreflect (descriptor.go), which has
// its own file-descriptor representation; reflection.Register instead reads
// from google.golang.org/protobuf's global registry, so this bridges the
// two by converting the parsed descriptor to a descriptorpb.FileDescriptorProto
// and loading that into protoregistry.GlobalFiles.
func EnableReflection(grpcServer *grpc.Server) error {
	fdProto := fileDescriptor.AsFileDescriptorProto()
	if _, err := protoregistry.GlobalFiles.FindFileByPath(fdProto.GetName()); err == nil {
		reflection.Register(grpcServer)
		return nil
	}

	file, err := protodesc.NewFile(fdProto, protoregistry.GlobalFiles)
	if err != nil {
		return fmt.Errorf("matchsvc: converting service descriptor for reflection: %w", err)
	}
	if err := protoregistry.GlobalFiles.RegisterFile(file); err != nil {
		return fmt.Errorf("matchsvc: registering service descriptor: %w", err)
	}

	reflection.Register(grpcServer)
	return nil
}
