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

package api

import (
	"net/http"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

type ErrorMessage struct {
	Error []string `json:"error"`
	Kind  string   `json:"kind,omitempty"`
}

func NewSingleMessageError(err string) ErrorMessage {
	return ErrorMessage{Error: []string{err}}
}

func newKindError(err error) ErrorMessage {
	msg := NewSingleMessageError(err.Error())
	if kind := crowdfund.KindOf(err); kind != crowdfund.KindUnknown {
		msg.Kind = kind.String()
	}
	return msg
}

// httpStatus maps an error kind to the response code.
func httpStatus(err error) int {
	switch crowdfund.KindOf(err) {
	case crowdfund.KindValidation:
		return http.StatusBadRequest
	case crowdfund.KindConflict:
		return http.StatusConflict
	case crowdfund.KindNotFound:
		return http.StatusNotFound
	case crowdfund.KindResource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
