// Copyright (C) The Vanga Authors.
// All rights reserved. This file is part of vanga.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func validate(name, schema string, instance json.RawMessage) error {
	sch, err := jsonschema.CompileString(name+".json", schema)
	if err != nil {
		return fmt.Errorf("config: compile %s schema: %w", name, err)
	}
	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		return fmt.Errorf("config: parse %s: %w", name, err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("config: %s: %w", name, err)
	}
	return nil
}
