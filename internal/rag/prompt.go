package rag

import "strings"

// FallbackAnswer is the reply the model is told to give when the transcript
// does not contain the answer.
const FallbackAnswer = "I don't know based on the video transcript."

// answerPrompt has two placeholders: {context} and {question}.
const answerPrompt = `You are a helpful assistant.
Answer ONLY from the provided transcript context.
If the context is insufficient to answer the question, reply with exactly: "` + FallbackAnswer + `"

{context}
Question: {question}`

// AssemblePrompt fills the answer template with the retrieved context and the question.
func AssemblePrompt(context, question string) string {
	return strings.NewReplacer(
		"{context}", context,
		"{question}", question,
	).Replace(answerPrompt)
}
