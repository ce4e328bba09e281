package rpc

import (
	"encoding/json"
	"fmt"
)

// jsonCodec replaces connect's protojson codec. The swap service messages
// are plain Go structs from the models package.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
