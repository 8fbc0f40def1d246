// Copyright 2025 Blink Labs Software
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

package common

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrInvalidStatusCode = errors.New("invalid status code")

// StatusCode is the reported state of a flight
type StatusCode uint8

const (
	StatusCodeUnknown       StatusCode = 0
	StatusCodeOnTime        StatusCode = 10
	StatusCodeLateAirline   StatusCode = 20
	StatusCodeLateWeather   StatusCode = 30
	StatusCodeLateTechnical StatusCode = 40
	StatusCodeLateOther     StatusCode = 50
)

var statusCodeNames = map[StatusCode]string{
	StatusCodeUnknown:       "Unknown",
	StatusCodeOnTime:        "OnTime",
	StatusCodeLateAirline:   "LateAirline",
	StatusCodeLateWeather:   "LateWeather",
	StatusCodeLateTechnical: "LateTechnical",
	StatusCodeLateOther:     "LateOther",
}

func (s StatusCode) Valid() bool {
	_, ok := statusCodeNames[s]
	return ok
}

// Final reports whether the status code settles a flight. Unknown never does
func (s StatusCode) Final() bool {
	return s != StatusCodeUnknown && s.Valid()
}

func (s StatusCode) String() string {
	if name, ok := statusCodeNames[s]; ok {
		return name
	}
	return "StatusCode(" + strconv.Itoa(int(s)) + ")"
}

// ParseStatusCode accepts either the numeric code or its name
func ParseStatusCode(s string) (StatusCode, error) {
	if v, err := strconv.ParseUint(s, 10, 8); err == nil {
		code := StatusCode(v)
		if !code.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidStatusCode, v)
		}
		return code, nil
	}
	for code, name := range statusCodeNames {
		if name == s {
			return code, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatusCode, s)
}
