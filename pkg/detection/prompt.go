package detection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

const promptHeader = `You are analyzing a screenshot from a tactical shooter game.

All coordinates are integers on a 0-1000 scale relative to the FULL image
(0,0 is the top-left corner, 1000,1000 the bottom-right), NOT pixels.
`

const locateMinimap = `
1. Locate the minimap (the small overhead map overlay, usually in a corner).
   Report its rectangle as "minimapLocation".
2. Detect every player/agent icon drawn ON the minimap. Ignore icons in the
   scoreboard, kill feed, ability bar or anywhere outside the minimap.
`

const manualMinimap = `
1. The minimap is EXACTLY at xmin=%d, ymin=%d, xmax=%d, ymax=%d. Treat this
   rectangle as ground truth; do not search for the minimap elsewhere.
2. Detect every player/agent icon INSIDE that rectangle only.
`

const promptFooter = `
For each icon report:
   - "team": the side, e.g. "Red", "Blue", "Attacker", "Defender"
   - "agentGuess": the agent/character name if recognizable, else omit it
   - "boundingBox": a tight box around the icon
3. Name the map in "mapName".
4. Write a short tactical "summary" (at most 3 sentences) of the positions.

Return JSON only, matching this shape:
{
  "mapName": "string",
  "minimapLocation": {"xmin": 0, "ymin": 0, "xmax": 0, "ymax": 0},
  "detectedIcons": [
    {"team": "string", "agentGuess": "string",
     "boundingBox": {"xmin": 0, "ymin": 0, "xmax": 0, "ymax": 0}}
  ],
  "summary": "string"
}
No markdown, no code fences, no comments, no trailing commas.`

// BuildPrompt assembles the analysis instruction, pinning the minimap when manual bounds are given
func BuildPrompt(manual *types.MinimapBounds) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	if manual != nil {
		fmt.Fprintf(&b, manualMinimap,
			int(manual.XMin+0.5), int(manual.YMin+0.5), int(manual.XMax+0.5), int(manual.YMax+0.5))
	} else {
		b.WriteString(locateMinimap)
	}
	b.WriteString(promptFooter)
	return b.String()
}

var boxSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"xmin": map[string]any{"type": "number"},
		"ymin": map[string]any{"type": "number"},
		"xmax": map[string]any{"type": "number"},
		"ymax": map[string]any{"type": "number"},
	},
	"required": []string{"xmin", "ymin", "xmax", "ymax"},
}

// ResponseSchema is the JSON schema declared to providers for the analysis reply
var ResponseSchema = mustSchema(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"mapName":         map[string]any{"type": "string"},
		"minimapLocation": boxSchema,
		"detectedIcons": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"team":        map[string]any{"type": "string"},
					"agentGuess":  map[string]any{"type": "string"},
					"boundingBox": boxSchema,
				},
				"required": []string{"team", "boundingBox"},
			},
		},
		"summary": map[string]any{"type": "string"},
	},
	"required": []string{"mapName", "detectedIcons", "summary"},
})

func mustSchema(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
