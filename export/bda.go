// Package export formats blueprints and run results for the surrounding
// tooling: the automation service's blueprint API body and human-readable
// run reports. Nothing here performs network calls.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/timefmt-go"

	blueprint "github.com/extractkit/blueprint"
	"github.com/extractkit/blueprint/optimize"
)

// BlueprintPayload is the create/update blueprint request body. The service
// expects the schema document embedded as a JSON string, not as a nested
// object.
type BlueprintPayload struct {
	BlueprintName  string `json:"blueprintName"`
	Type           string `json:"type"`
	BlueprintStage string `json:"blueprintStage,omitempty"`
	Schema         string `json:"schema"`
}

// CreateBlueprintPayload builds the service request body for a document
// blueprint. stage may be empty for the service default.
func CreateBlueprintPayload(doc *blueprint.Document, name, stage string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("export blueprint: name is required")
	}
	schemaJSON, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export blueprint: %w", err)
	}
	payload := BlueprintPayload{
		BlueprintName:  name,
		Type:           "DOCUMENT",
		BlueprintStage: stage,
		Schema:         string(schemaJSON),
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export blueprint: %w", err)
	}
	return body, nil
}

const reportTimeFormat = "%Y-%m-%d %H:%M:%S"

// RunReport renders an optimization result as a short human-readable
// summary.
func RunReport(res *optimize.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", res.RunID)
	fmt.Fprintf(&b, "  started:   %s\n", timefmt.Format(res.StartedAt, reportTimeFormat))
	fmt.Fprintf(&b, "  finished:  %s\n", timefmt.Format(res.FinishedAt, reportTimeFormat))
	fmt.Fprintf(&b, "  fields:    %d (%d opaque)\n", res.Fields, res.Opaque)
	fmt.Fprintf(&b, "  rewritten: %d\n", res.Rewritten)
	if len(res.Warnings) > 0 {
		b.WriteString("  warnings:\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "    - %s\n", w)
		}
	}
	return b.String()
}
