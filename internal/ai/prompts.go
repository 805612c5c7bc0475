package ai

// DefaultSystemPrompt is used when neither ai.chat.systemPrompt nor a prompt file is configured
const DefaultSystemPrompt = `You are a helpful AI assistant for a recruitment management system. You can help with:
- Searching and filtering candidates
- Scheduling interviews
- Managing job postings
- Updating candidate stages
- Sending emails
- Viewing analytics
- Managing campus recruitment drives

Always be professional, friendly, and efficient. When users ask you to perform actions, use the available functions to execute them.`

// AudioInstruction accompanies a voice message so the model treats it as the user's request
const AudioInstruction = "The attached audio is the user's latest request. Act on it as if it had been typed."

// resolvePrompt picks the first non-empty prompt
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
