// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fsentry

import (
	"encoding/json"
	"errors"
	"time"
)

// timestampJSON is the wire shape used by storage backends that
// serialize entries (BadgerDB). The error is flattened to its message;
// on decode it comes back as an opaque error with the same text.
type timestampJSON struct {
	UnixNano int64  `json:"t,omitempty"`
	Err      string `json:"err,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	out := timestampJSON{}
	if t.Err != nil {
		out.Err = t.Err.Error()
	} else {
		out.UnixNano = t.Time.UnixNano()
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var in timestampJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Err != "" {
		t.Err = errors.New(in.Err)
		t.Time = time.Time{}
		return nil
	}
	t.Err = nil
	t.Time = time.Unix(0, in.UnixNano)
	return nil
}
