//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package store

import (
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"
)

// Canonical CBOR keeps the stored bytes identical on every node.
var handle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

func Encode(v interface{}) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, handle).Encode(v); err != nil {
		return nil, errors.Wrap(err, "failed to encode record")
	}
	return buf, nil
}

func Decode(data []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(data, handle).Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode record")
	}
	return nil
}
