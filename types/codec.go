package types

import (
	"encoding/json"
	"fmt"

	collcodec "cosmossdk.io/collections/codec"
	sdkmath "cosmossdk.io/math"
)

// JSONValue returns a collections value codec storing T as JSON.
func JSONValue[T any]() collcodec.ValueCodec[T] {
	return jsonValueCodec[T]{}
}

type jsonValueCodec[T any] struct{}

func (jsonValueCodec[T]) Encode(value T) ([]byte, error) { return json.Marshal(value) }

func (jsonValueCodec[T]) Decode(b []byte) (T, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return v, nil
}

func (c jsonValueCodec[T]) EncodeJSON(value T) ([]byte, error) { return c.Encode(value) }
func (c jsonValueCodec[T]) DecodeJSON(b []byte) (T, error)     { return c.Decode(b) }

func (jsonValueCodec[T]) Stringify(value T) string {
	bz, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(bz)
}

func (jsonValueCodec[T]) ValueType() string {
	var v T
	return fmt.Sprintf("json/%T", v)
}

// IntValue is a collections value codec for sdkmath.Int.
var IntValue collcodec.ValueCodec[sdkmath.Int] = intValueCodec{}

type intValueCodec struct{}

func (intValueCodec) Encode(value sdkmath.Int) ([]byte, error) { return value.Marshal() }

func (intValueCodec) Decode(b []byte) (sdkmath.Int, error) {
	var v sdkmath.Int
	if err := v.Unmarshal(b); err != nil {
		return sdkmath.Int{}, err
	}
	return v, nil
}

func (intValueCodec) EncodeJSON(value sdkmath.Int) ([]byte, error) { return value.MarshalJSON() }

func (intValueCodec) DecodeJSON(b []byte) (sdkmath.Int, error) {
	var v sdkmath.Int
	if err := v.UnmarshalJSON(b); err != nil {
		return sdkmath.Int{}, err
	}
	return v, nil
}

func (intValueCodec) Stringify(value sdkmath.Int) string { return value.String() }
func (intValueCodec) ValueType() string                  { return "math.Int" }
