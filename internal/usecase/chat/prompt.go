package chat

import (
	"strings"

	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
)

// FallbackReply is returned when the chat model fails.
const FallbackReply = "I apologize, but I'm having trouble generating a response right now. Please try again later."

const unknownSource = "Unknown"

const contextPersona = "You are QubitChat AI, an intelligent and friendly assistant. " +
	"You can help with both document-based questions and general conversations."

const generalPersona = "You are QubitChat AI, an intelligent and friendly assistant. " +
	"You can help with general questions, casual conversation, and various topics."

const contextInstructions = `Instructions:
1. If the user's question is directly related to the document content, use the context to provide a detailed answer and mention the source.
2. If the user's question is general (like greetings, general knowledge, casual conversation), respond naturally without forcing document references.
3. If the question is partially related to documents, combine both document insights and general knowledge as appropriate.
4. Always be helpful, conversational, and engaging.`

const generalInstructions = "Please provide a helpful, engaging response. " +
	"Feel free to have natural conversations on any topic. " +
	"If the user wants document-specific help, let them know they can upload documents for more targeted assistance."

// contextText renders hits as "Source: <source>\n<text>" blocks separated by blank lines.
func contextText(hits []result.Result) string {
	blocks := make([]string, 0, len(hits))
	for i := range hits {
		src := hits[i].Metadata()["source"]
		if src == "" {
			src = unknownSource
		}
		blocks = append(blocks, "Source: "+src+"\n"+hits[i].Text())
	}
	return strings.Join(blocks, "\n\n")
}

func systemPrompt(withContext bool) string {
	if withContext {
		return contextPersona
	}
	return generalPersona
}

func userPrompt(message, context string) string {
	var b strings.Builder
	if context != "" {
		b.WriteString("I have found some relevant information from uploaded documents:\n\n")
		b.WriteString("Context from documents:\n")
		b.WriteString(context)
		b.WriteString("\n\n")
	}
	b.WriteString("User question: ")
	b.WriteString(message)
	b.WriteString("\n\n")
	if context != "" {
		b.WriteString(contextInstructions)
	} else {
		b.WriteString(generalInstructions)
	}
	return b.String()
}
