package formula_gpt

import (
	"encoding/json"
	"fmt"
)

// parsePrompt is the system instruction for the drafting model.  It asks for
// semantic grouping over syntactic parsing and for a one-sentence imperative
// narrative whose phrases can later be located verbatim.
const parsePrompt = `You are a STEM tutor. Given LaTeX, break it into semantic components and write an intuitive explanation.

Group symbols by MEANING, not syntax.
WRONG (literal): "∂L/∂w" → "partial derivative of L with respect to w"
RIGHT (semantic): "∂L/∂w" → "total effect of weight on loss"

Return JSON: {"explanation", "components": [{symbol, role, counterpart}]}.
- "explanation": 1 sentence. Styles: imperative narrative, 3Blue1Brown-like geometric/mechanical intuition; according to the formula, what set of instructions must a human or machine perform?
- Example explanation (Sum of squared residuals): To quantify the model's total failure, measure the miss for every data point, amplify the larger mistakes to punish them severely, and sum up the total penalty.
- Example explanation 2 (Backpropagation): To update a weight, trace how a tiny change in that weight ripples forward into the neuron's pre-activation, then into its activation, then into the loss, and multiply the local sensitivities to obtain the weight's total effect on the loss.
- "components": Map the mathematical symbol to the exact verbatim phrase inside your narrative sentence that represents it. Do not define the symbol; locate its proxy in the story. This will be the counterpart.
- Example of role for a component: for symbol ∂L/∂a: "sensitivity of the loss to the neuron's activation (how loss changes if activation changes)"

Full Example:
Input: X_k = \frac{1}{N} \sum_{n=0}^{N-1} x_n e^{i2\pi k\frac{n}{N}}
Output:
{"explanation": "To find the energy at a particular frequency, spin your signal around a circle at that frequency and average points along the path.",
 "components": [
  {"symbol": "X_k", "role": "output frequency coefficient", "counterpart": "the energy at a particular frequency"},
  {"symbol": "x_n", "role": "input time-domain samples", "counterpart": "your signal"},
  {"symbol": "e^{i...}", "role": "rotation in the complex plane", "counterpart": "spin ... around a circle"},
  {"symbol": "2\pi k", "role": "rotation speed per frequency", "counterpart": "at that frequency"},
  {"symbol": "\frac{1}{N} \sum \frac{n}{N}", "role": "summing and normalizing", "counterpart": "average points along the path"}]

Notice how we don't force a physics-based conceptualization for the sum of squared residuals example, where it's less effective,
But we do for the DFT example, since the formula corresponds to physics-related processes/phenomena.`

// parseSchema is the strict JSON schema enforced on the model's reply via
// the chat-completions response_format field.
var parseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "explanation": {"type": "string"},
    "components": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "symbol": {"type": "string"},
          "role": {"type": "string"},
          "counterpart": {"type": "string"}
        },
        "required": ["symbol", "role", "counterpart"],
        "additionalProperties": false
      }
    }
  },
  "required": ["explanation", "components"],
  "additionalProperties": false
}`)

// buildUserMessage wraps the formula source into the per-request user turn.
func buildUserMessage(latex string) string {
	return fmt.Sprintf("Return JSON for: %s", latex)
}
