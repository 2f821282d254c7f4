// Package rpcproxy is the default, concrete binding of model.ClientProtocol
// and model.MasterProtocol onto a real gRPC connection (spec.md §1
// Non-goals: "RPC transport implementation (treated as an external
// collaborator...)" — this package is that collaborator's reference
// implementation, not a protocol spec for any particular CRM's wire format.
//
// It is grounded on the teacher's connection.Manager.connect, which dials a
// grpc.ClientConn and attaches an auth token via gRPC metadata on every
// call (metadata.NewOutgoingContext). The difference here is that there is
// no generated .pb.go client to call through — this repo has no .proto
// source and the task's toolchain restriction forbids running protoc — so
// each RPC is issued with ClientConn.Invoke against a small JSON codec
// registered under the name "uamjson", the same extension point
// google.golang.org/grpc documents for non-protobuf payloads.
package rpcproxy

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

const codecName = "uamjson"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec implements encoding.Codec by marshaling RPC request/response
// structs as JSON. Registered once via init() so any call made with the
// grpc.CallContentSubtype(codecName) call option uses it.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcproxy: marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcproxy: unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return codecName
}
