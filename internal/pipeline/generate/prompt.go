// internal/pipeline/generate/prompt.go
package generate

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are an AI-powered regulatory reporting assistant designed to support UK banks in preparing PRA COREP regulatory returns.

Your task is to:
1. Understand natural-language regulatory questions and reporting scenarios.
2. Retrieve and reason over relevant regulatory texts from:
   - PRA Rulebook
   - COREP / EBA reporting instructions and taxonomy
3. Generate structured, auditable outputs aligned with predefined COREP templates.

Scope limitations:
- Focus only on a constrained subset of COREP templates (e.g. Own Funds or Capital Requirements).
- Do NOT hallucinate regulatory rules.
- If required data is missing or ambiguous, explicitly flag it.

Output requirements:
- Produce structured JSON strictly matching the provided schema.
- Populate only fields justified by retrieved regulatory text.
- Provide an audit trail mapping each populated field to the specific regulation paragraph(s) used.
- Apply basic validation rules and flag inconsistencies.

Tone and behavior:
- Be precise, conservative, and regulation-aware.
- Prefer "cannot determine" over assumptions.

CRITICAL: You must ONLY use information from the provided regulatory context. Do not make up rules or interpretations.`

const userPromptFormat = `User Question:
"%s"

Reporting Scenario:
%s

COREP Template:
%s

Retrieved Regulatory Context:
%s

Required Output Schema:
{
  "template": "%s",
  "fields": [
    {
      "field_code": "C_01.00_rXXX",
      "field_name": "Field name",
      "value": "Numeric value or 'N/A' if cannot determine",
      "justification": "Brief explanation of why this value applies",
      "source_rule": "Specific regulatory reference (e.g., 'PRA Rulebook 1.1.1')"
    }
  ],
  "validation_flags": [
    "List any missing data, ambiguities, or inconsistencies"
  ],
  "audit_log": [
    "Step-by-step reasoning for key decisions"
  ]
}

Instructions:
- Analyze the scenario against the retrieved regulatory context
- Populate ONLY the fields that can be determined from the scenario and context
- For each field, provide:
  * The value (or "N/A" if cannot determine)
  * Clear justification based on the scenario
  * Specific regulatory reference from the context
- List any validation issues or missing information in validation_flags
- Provide audit trail showing your reasoning process
- Be conservative: if unsure, mark as "N/A" and explain in validation_flags

Generate the JSON response now:`

func buildUserPrompt(input *Input) string {
	passages := make([]string, 0, len(input.Context))
	for _, ctx := range input.Context {
		docType := ctx.Metadata.DocumentType
		if docType == "" {
			docType = "Unknown"
		}
		passages = append(passages, fmt.Sprintf("[Source: %s]\n%s", docType, ctx.Content))
	}

	return fmt.Sprintf(userPromptFormat,
		input.Question,
		input.Scenario,
		input.TemplateCode,
		strings.Join(passages, "\n\n"),
		input.TemplateCode,
	)
}
