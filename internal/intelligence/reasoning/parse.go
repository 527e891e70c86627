package reasoning

import (
	"encoding/json"
	"strconv"
	"strings"

	apperrors "github.com/turtacn/ChemReact-Intelligence/pkg/errors"
	rxn "github.com/turtacn/ChemReact-Intelligence/pkg/types/reaction"
)

// flexFloat accepts a JSON number, a quoted number, or a quoted percentage
// ("85", "85%").  Models do not reliably honour the numeric type in the
// response contract, so the parser meets them halfway.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, `"`) {
		var quoted string
		if err := json.Unmarshal(data, &quoted); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(quoted), "%")
		s = strings.TrimSpace(s)
	}
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type productPayload struct {
	Formula     string    `json:"formula"`
	Name        string    `json:"name"`
	Probability flexFloat `json:"probability"`
}

type responsePayload struct {
	Products       []productPayload `json:"products"`
	Mechanism      string           `json:"mechanism"`
	Thermodynamics string           `json:"thermodynamics"`
	Confidence     flexFloat        `json:"confidence"`
	Reasoning      string           `json:"reasoning"`
}

// extractJSON strips markdown code fences and any prose around the object,
// returning the substring from the first '{' to the last '}'.
func extractJSON(content string) (string, bool) {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

// parsePayload decodes the model's answer into the response contract.
func parsePayload(content string) (*responsePayload, error) {
	raw, ok := extractJSON(content)
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeReasoningParseFailed, "no JSON object in reasoning response")
	}
	var payload responsePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeReasoningParseFailed, "malformed reasoning response")
	}
	if len(payload.Products) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeReasoningParseFailed, "reasoning response listed no products")
	}
	return &payload, nil
}

// candidates converts the payload's product list, dropping entries with no
// formula.  Order is preserved; rank-by-probability happens in the engine so
// topK truncation sees a sorted list.
func (p *responsePayload) candidates() []rxn.ProductCandidate {
	out := make([]rxn.ProductCandidate, 0, len(p.Products))
	for _, prod := range p.Products {
		formula := strings.TrimSpace(prod.Formula)
		if formula == "" {
			continue
		}
		out = append(out, rxn.ProductCandidate{
			Formula:     formula,
			Name:        strings.TrimSpace(prod.Name),
			Probability: float64(prod.Probability),
		})
	}
	return out
}
