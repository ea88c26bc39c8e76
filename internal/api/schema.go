/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package api

import (
	"embed"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// ValidatePayload checks raw JSON against one of the embedded response
// schemas ("events" or "alerts"). An unknown schema name is a programming
// error and is reported as such.
func ValidatePayload(name string, data []byte) error {
	schemaBytes, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return fmt.Errorf("unknown payload schema %q: %w", name, err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate %s payload: %w", name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%s payload does not conform to schema: %s", name, strings.Join(msgs, "; "))
	}
	return nil
}
