package extractor

import "github.com/propline/coldcall/internal/script"

const systemPromptTemplate = `You are the answer classifier for a scripted real-estate cold call.
The caller was just asked a question and replied. Your only job is to decide
whether the reply answers the question, and if so, extract the answer in the
exact JSON shape requested.

Rules:
- Respond with a single JSON object and nothing else. No markdown, no prose.
- If the reply does not contain a usable answer, respond {"valid": false}.
- If it does, respond {"valid": true, "value": <answer>} where <answer> has
  exactly the shape described below.

Question asked: %q

Expected answer shape:
%s`

// contractInstructions describes the machine-checkable value shape per
// contract, in the response-schema style the classifier is held to.
var contractInstructions = map[script.Contract]string{
	script.ContractBoolean: `{"value": <bool>} — true if the reply is affirmative, false if negative.
Hedged replies like "maybe" or "I guess so" count as affirmative only when clearly leaning yes.`,

	script.ContractScale: `{"score": <int 1-10>} — the rating. Map descriptive words onto the scale
(excellent/perfect=10, great=9, good=7, average=5, poor=3, terrible=1).`,

	script.ContractPrice: `{"min": <int>, "max": <int>, "not_sure": <bool>} — whole dollars.
Normalize "k" to thousands and "m"/"million" to millions. A single figure means min == max.
If the caller says they have no figure in mind, set not_sure true and min/max to 0.`,

	script.ContractRooms: `{"bedrooms": <int>, "bathrooms": <int>}`,

	script.ContractOccupancy: `{"status": "owner" | "tenant"} — "tenant" if rented out,
"owner" if the caller lives there or the property is vacant.`,

	script.ContractLease: `{"term": "annual" | "monthly"}`,

	script.ContractTimeframe: `{"text": <string>} — the date or timeframe in the caller's words.
Accept anything that expresses a time: a date, a month, "next year", "soon".`,

	script.ContractEmail: `{"address": <string>, "declined": <bool>} — the email address if given,
or declined true if the caller refuses to share one.`,

	script.ContractFreeText: `{"text": <string>} — the caller's reason, lightly trimmed.
Any substantive reply is valid.`,
}
