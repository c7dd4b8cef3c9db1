// Package prompt holds the fixed instruction text sent to the vision model for
// each analysis mode.
package prompt

const (
	ObjectDetection  = "Object Detection"
	SceneDescription = "Scene Description"
	MoneyCounter     = "Money Counter"
	ReadingMode      = "Reading Mode"

	// DefaultMode is used for requests without a mode and as the prompt
	// fallback for unknown modes.
	DefaultMode = ObjectDetection
)

// Phrases the model is told to answer with when nothing relevant is visible.
const (
	NoCurrency = "No currency detected"
	NoText     = "No readable text detected"
)

var order = []string{ObjectDetection, SceneDescription, MoneyCounter, ReadingMode}

var prompts = map[string]string{
	ObjectDetection: `List the objects you see in this image. For each object, only provide:
1. Object name
2. Location (left, center, right, top, middle, bottom)

Keep it simple and brief. Example format:
"Coffee mug on the left, laptop computer in center, phone on right side"

Do not include detailed descriptions, colors, or unnecessary details.`,

	SceneDescription: `Describe this scene for someone who cannot see it. Include:
1. Overall setting and environment
2. People present and their activities
3. Lighting and atmosphere
4. Important details for navigation

Be comprehensive but clear for audio.`,

	MoneyCounter: `Look for currency, coins, or money in this image.
If money is visible:
1. List each denomination
2. Count quantity
3. Calculate total value

If no money: "` + NoCurrency + `"
Be accurate with counting.`,

	ReadingMode: `Read all visible text in this image:
1. Signs and labels
2. Documents
3. Digital displays
4. Any written content

Provide exact transcription of what the text says.
If no text: "` + NoText + `"`,
}

// Get returns the instruction registered for mode, or the Object Detection
// instruction when mode is unknown.
func Get(mode string) string {
	if p, ok := prompts[mode]; ok {
		return p
	}
	return prompts[DefaultMode]
}

// Lookup is like Get but reports whether mode is registered.
func Lookup(mode string) (string, bool) {
	p, ok := prompts[mode]
	return p, ok
}

// Modes returns the registered mode names in display order.
func Modes() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}
