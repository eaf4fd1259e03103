package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// inboundPayloads maps each client message kind to its payload type
var inboundPayloads = map[string]interface{}{
	MsgJoin:    new(JoinMsg),
	MsgMove:    new(MoveMsg),
	MsgFire:    new(FireMsg),
	MsgDestroy: new(DestroyMsg),
	MsgChat:    new(ChatMsg),
	MsgPong:    new(PongMsg),
}

// InboundSchemas reflects a JSON Schema for the "d" payload of every inbound kind
func InboundSchemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{}
	out := make(map[string]*jsonschema.Schema, len(inboundPayloads))
	for kind, payload := range inboundPayloads {
		schema := reflector.Reflect(payload)
		schema.Title = fmt.Sprintf("%q payload", kind)
		out[kind] = schema
	}
	return out
}

// MarshalSchemas renders InboundSchemas as indented JSON
func MarshalSchemas() ([]byte, error) {
	data, err := json.MarshalIndent(InboundSchemas(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}
