package routingcore

import "encoding/json"

// jsonCodec is a grpc encoding.Codec that marshals messages as JSON
// instead of protobuf. The five request/response types in this
// package are plain JSON-tagged structs rather than protoc-generated
// message types, so the usual proto codec has nothing to encode
// against; registering this codec under the "json" content-subtype
// lets the same grpc.Server/grpc.ClientConn machinery carry them.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}
