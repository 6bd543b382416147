package wire

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder mode for ADPP messages.
var encMode cbor.EncMode

// decMode is the CBOR decoder mode for ADPP messages.
var decMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create ADPP CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create ADPP CBOR decoder mode: %v", err))
	}
}

// Marshal encodes a value to CBOR bytes using the ADPP canonical mode.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR bytes into v using the ADPP decoder mode.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder creates a CBOR encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder creates a CBOR decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// EncodeRequest encodes a request envelope with body set to payload.
func EncodeRequest(requestID uint32, kind Kind, payload any) ([]byte, error) {
	body, err := Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	req := Request{RequestID: requestID, Kind: kind, Body: body}
	return Marshal(&req)
}

// DecodeRequest decodes a CBOR-encoded request envelope.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

// EncodeResponse encodes a response envelope carrying payload in its body.
// A nil payload produces an empty body (used for error responses).
func EncodeResponse(requestID uint32, status Status, payload any) ([]byte, error) {
	resp := Response{RequestID: requestID, Status: status}
	if payload != nil {
		body, err := Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode response body: %w", err)
		}
		resp.Body = body
	}
	return Marshal(&resp)
}

// DecodeResponse decodes a CBOR-encoded response envelope.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// DecodeBody decodes a request or response body into out.
func DecodeBody(body cbor.RawMessage, out any) error {
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	return Unmarshal(body, out)
}
