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

package panic

import (
	"runtime/debug"

	"github.com/sirupsen/logrus"
)

// Log recovers a panic of a background goroutine and reports it with the component name.
func Log(component string) {
	if r := recover(); r != nil {
		logrus.WithField("component", component).
			WithField("stack", string(debug.Stack())).
			Errorf("panic recovered: %v", r)
	}
}
