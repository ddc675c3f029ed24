package services

import "google.golang.org/genai"

// retrievalSystemPrompt defines the core instructions for the retrieval
// assistant. A "detailed" detail level asks for longer answers; anything
// else gets the default register.
func retrievalSystemPrompt(detailLevel string) *genai.Content {
	prompt := `You are a helpful assistant integrated into a health-report application. Your purpose is to answer questions about the reports the user has uploaded.

Your capabilities:
1. **Conversational Memory**: You can remember previous parts of the conversation. Answer follow-up questions without re-using your tools if the information is already available.
2. **Report Retrieval**: You can search the user's uploaded reports using the 'retrieveReportChunks' tool. Use it whenever a question requires knowledge from the reports (e.g. "What is my cholesterol level?", "Summarize my blood work").

Always think step-by-step. If a request requires information from the reports, your first step should be to call 'retrieveReportChunks' with a clear and concise search query. Do not invent information. If the reports do not contain the answer, say so.`

	if detailLevel == "detailed" {
		prompt += "\n\nProvide thorough, detailed answers, citing specific values from the reports where available."
	}

	contents := genai.Text(prompt)
	if len(contents) == 0 {
		return nil
	}
	return contents[0]
}

// retrievalTools declares the functions available to the model during a
// query session.
func retrievalTools() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        "retrieveReportChunks",
					Description: "Search the user's uploaded health reports for content relevant to a specific topic or question.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"query": {
								Type:        genai.TypeString,
								Description: "The specific topic or question to search for in the indexed reports. This should be a concise search query.",
							},
						},
						Required: []string{"query"},
					},
				},
			},
		},
	}
}
